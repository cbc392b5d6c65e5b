// Package build provides the single-flight build coordinator for anchorbuilder.
//
// All execution paths (HTTP server, one-shot CLI build, tests) route through
// Coordinator.Build. The coordinator owns the one process-wide lock over the
// workspace and holds it across staging, artifact pre-clean, toolchain
// invocation and classification.
//
// Two outcomes are visible to callers. StatusError means the system could not
// run the build (staging I/O, launch failure, artifact read). StatusSuccess
// means the toolchain ran to completion; whether it produced a binary is
// carried by the Binary field and the log, not by the status.
package build
