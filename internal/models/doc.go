// Package models holds the value types threaded through the sandboxer
// pipeline: source documents, stage outcomes and diagnostics, import
// manifests, project bundles, submission results, typed failures and run
// reports.
package models
