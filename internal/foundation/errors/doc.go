// Package errors provides the classified errors used across anchorbuilder.
//
// Every error carries an ErrorCategory. The category determines the HTTP
// status of a rejected request, the CLI exit code and the log level:
//
//	err := errors.FileSystemError("failed to stage file").
//		WithCause(ioErr).
//		WithContext("path", rel).
//		Build()
//
// Build failures are not errors at the transport level; the coordinator folds
// them into the build result and these adapters are only used for requests
// that never reach it.
package errors
