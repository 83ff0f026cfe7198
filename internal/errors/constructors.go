package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *LithoError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *LithoError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

func RoutingFault(url string, cause error) *LithoError {
	return Wrap(cause, CategoryRouting, SeverityFatal, "route resolution failed").
		WithContext("url", url)
}

func RenderFault(url string, cause error) *LithoError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page render failed").
		WithContext("url", url)
}

func WriteFault(path string, cause error) *LithoError {
	return Wrap(cause, CategoryOutput, SeverityFatal, "output write failed").
		WithContext("path", path)
}

func SinkFault(url string, cause error) *LithoError {
	return Wrap(cause, CategoryOutput, SeverityFatal, "document sink callback failed").
		WithContext("url", url)
}

// History errors (non-fatal: run history is best effort)

func HistoryError(operation string, cause error) *LithoError {
	return Wrap(cause, CategoryHistory, SeverityWarning, "run history operation failed").
		WithContext("operation", operation)
}

// Daemon errors

func DaemonError(message string) *LithoError {
	return New(CategoryDaemon, SeverityError, message)
}
