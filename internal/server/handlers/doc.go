// Package handlers contains HTTP handlers for the anchorbuilder HTTP API.
//
// This package provides handlers for:
//   - The build endpoint
//   - Health and status endpoints (monitoring)
//   - Artifact and IDL downloads
//   - Build history
//
// Transport-level failures (bad JSON, unknown build, missing artifact) are
// written through the foundation/errors HTTP adapter. A build that was
// accepted always answers 200; its outcome lives in the JSON body.
package handlers
