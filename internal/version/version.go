// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sandboxer/internal/version.Version=v0.3.0"
package version

import "strings"

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version with whatever build metadata is known,
// e.g. "v0.3.0 (commit 1a2b3c4, built 2026-01-02)".
func String() string {
	var meta []string
	if GitCommit != "" && GitCommit != "unknown" {
		c := GitCommit
		if len(c) > 7 {
			c = c[:7]
		}
		meta = append(meta, "commit "+c)
	}
	if BuildTime != "" && BuildTime != "unknown" {
		meta = append(meta, "built "+BuildTime)
	}
	if len(meta) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(meta, ", ") + ")"
}
