// Package metrics provides the observability hooks for anchorbuilder builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	coord := build.NewCoordinator(ws, invoker)            // NoopRecorder
//	coord.WithRecorder(metrics.NewPrometheusRecorder(reg)) // when metrics.enabled
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler exposes that registry for scraping.
package metrics
