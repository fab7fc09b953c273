package logger

// ErrorEntry exposes errorEntry for white-box testing.
type ErrorEntry = errorEntry

// Exported for white-box testing.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)
