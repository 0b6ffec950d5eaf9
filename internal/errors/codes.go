package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Process errors
	ErrAlreadyRunning ErrorCode = "already_running"
	ErrNotRunning     ErrorCode = "not_running"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrLoadScene   ErrorCode = "load_scene_failed"
	ErrSignalHost  ErrorCode = "signal_host_failed"
	ErrServeHTTP   ErrorCode = "serve_http_failed"
	ErrReadHistory ErrorCode = "read_history_failed"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrNotRunning:      "No running instance found",
	ErrInitApp:         "Failed to initialize application",
	ErrLoadScene:       "Failed to load scene",
	ErrSignalHost:      "Failed to signal running instance",
	ErrServeHTTP:       "HTTP server failed",
	ErrReadHistory:     "Failed to read history",
	ErrTimeout:         "Operation timed out",
	ErrInitMetrics:     "Failed to initialize metrics",
	ErrCollectMetrics:  "Failed to collect metrics data",
	ErrCloseMetrics:    "Failed to close metrics connection",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
