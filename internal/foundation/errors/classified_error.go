package errors

import (
	stdErrors "errors"
	"fmt"
)

// ClassifiedError is an error tagged with a category and optional details.
type ClassifiedError struct {
	category  ErrorCategory
	message   string
	cause     error
	retryable bool
	context   ErrorContext
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("[%s] %s", e.category, e.Description())
}

// Description renders the message and cause without the category prefix.
// This is the form surfaced to API callers and build logs.
func (e *ClassifiedError) Description() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Message() string { return e.message }

// Retryable reports whether repeating the operation may succeed.
func (e *ClassifiedError) Retryable() bool { return e.retryable }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of e with key attached. e is left untouched.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.with(key, value)
	return &cp
}

// Is matches on category and message so built errors work as sentinels.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stdErrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether err's chain carries a ClassifiedError of category.
func HasCategory(err error, category ErrorCategory) bool {
	c, ok := AsClassified(err)
	return ok && c.category == category
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if c, ok := AsClassified(err); ok {
		return c.category
	}
	return CategoryInternal
}

// Describe returns the caller-facing description of any error.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if c, ok := AsClassified(err); ok {
		return c.Description()
	}
	return err.Error()
}

// traitsOf returns the presentation traits for any error.
func traitsOf(err error) traits {
	if c, ok := AsClassified(err); ok {
		return c.category.traits()
	}
	return unclassified
}
