// Package metrics provides observability hooks for sandboxer pipeline runs.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and keeps call sites free of nil checks; PrometheusRecorder is
// activated by the serve command when metrics are enabled in configuration:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	p := pipeline.New(catalog, submitter, pipeline.WithRecorder(rec))
//
// HTTPHandler exposes the registry for scraping.
package metrics
