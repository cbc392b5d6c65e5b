package errors

import (
	"log/slog"
	"maps"
	"net/http"
)

// ErrorCategory classifies where an error originated. The category alone
// decides how the error surfaces over HTTP, on the CLI and in logs.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryNetwork    ErrorCategory = "network"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryInternal   ErrorCategory = "internal"
)

// traits is the presentation of one category.
type traits struct {
	status int        // HTTP status for transport-level rejections
	exit   int        // process exit code
	level  slog.Level // level used when the error is logged
	public bool       // message is shown to CLI users without --verbose
}

var categoryTraits = map[ErrorCategory]traits{
	CategoryValidation: {http.StatusBadRequest, 2, slog.LevelWarn, true},
	CategoryNotFound:   {http.StatusNotFound, 4, slog.LevelWarn, true},
	CategoryConfig:     {http.StatusBadRequest, 7, slog.LevelError, true},
	CategoryNetwork:    {http.StatusBadGateway, 8, slog.LevelError, false},
	CategoryBuild:      {http.StatusUnprocessableEntity, 11, slog.LevelError, true},
	CategoryFileSystem: {http.StatusInternalServerError, 11, slog.LevelError, false},
	CategoryEventStore: {http.StatusInternalServerError, 12, slog.LevelError, false},
	CategoryRuntime:    {http.StatusServiceUnavailable, 12, slog.LevelError, false},
	CategoryDaemon:     {http.StatusServiceUnavailable, 12, slog.LevelError, false},
	CategoryInternal:   {http.StatusInternalServerError, 10, slog.LevelError, false},
}

// unclassified applies to plain errors and unknown categories.
var unclassified = traits{http.StatusInternalServerError, 1, slog.LevelError, false}

func (c ErrorCategory) traits() traits {
	if t, ok := categoryTraits[c]; ok {
		return t
	}
	return unclassified
}

// ErrorContext carries structured details attached to an error.
type ErrorContext map[string]any

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// GetString retrieves a context value that is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// with returns a copy of c extended with key.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
