package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, message: message}}
}

// WrapError starts a builder whose cause is err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.with(key, value)
	return b
}

// Retryable marks the error as transient.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retryable = true
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	return &out
}

func ConfigError(message string) *ErrorBuilder { return NewError(CategoryConfig, message) }

func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }

func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

// NetworkError covers the NATS notifier and listener binding.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

func BuildError(message string) *ErrorBuilder { return NewError(CategoryBuild, message) }

// FileSystemError covers workspace staging and artifact reads.
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }

func EventStoreError(message string) *ErrorBuilder { return NewError(CategoryEventStore, message) }

// RuntimeError covers toolchain launch failures.
func RuntimeError(message string) *ErrorBuilder { return NewError(CategoryRuntime, message) }

func DaemonError(message string) *ErrorBuilder { return NewError(CategoryDaemon, message) }

func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
