// Package toolchain runs the external project build tool against the workspace.
//
// An Invoker runs one build synchronously and hands back the exit status plus
// both output streams split into lines. A non-zero exit is a normal Result, not
// an error; only a failure to launch the process is returned as an error.
package toolchain
