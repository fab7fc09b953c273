package domain

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// LoadSource tells where a module handed to a caller came from.
type LoadSource string

const (
	// SourceRegistry means the module was already materialized in this session.
	SourceRegistry LoadSource = "registry"
	// SourceCache means the module was read from the verified persistent cache.
	SourceCache LoadSource = "cache"
	// SourceAmbient means the module was already defined in the ambient namespace.
	SourceAmbient LoadSource = "ambient"
	// SourceNetwork means the module was fetched from its URL.
	SourceNetwork LoadSource = "network"
)

// IsCached reports whether the module was served without a fetch.
func (s LoadSource) IsCached() bool {
	return s != SourceNetwork
}
