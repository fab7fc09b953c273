package domain

import "go.trai.ch/zerr"

var (
	// ErrStoreUnavailable is returned when no persistent key/value store is available.
	// A client cannot be constructed without one.
	ErrStoreUnavailable = zerr.New("persistent store is not available")

	// ErrStoreReadFailed is returned when a key cannot be read from the persistent store.
	ErrStoreReadFailed = zerr.New("failed to read from store")

	// ErrStoreWriteFailed is returned when a key cannot be written to the persistent store.
	ErrStoreWriteFailed = zerr.New("failed to write to store")

	// ErrStoreDeleteFailed is returned when a key cannot be removed from the persistent store.
	ErrStoreDeleteFailed = zerr.New("failed to delete from store")

	// ErrStoreOpenFailed is returned when the persistent store cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open store")

	// ErrKeyIndexOutOfRange is returned when KeyAt is called with an index past the last key.
	ErrKeyIndexOutOfRange = zerr.New("key index out of range")

	// ErrUnknownStoreDriver is returned when the configuration names an unsupported store driver.
	ErrUnknownStoreDriver = zerr.New("unknown store driver")

	// ErrTransport is returned when a resource could not be loaded.
	ErrTransport = zerr.New("could not load resource")

	// ErrModuleNotFound is returned when a loaded resource does not define the requested module.
	ErrModuleNotFound = zerr.New("module not found at url")

	// ErrCheckTransport is returned when an update check could not re-fetch the module source.
	ErrCheckTransport = zerr.New("could not check for update")

	// ErrCheckModuleNotFound is returned when the re-fetched source no longer defines the module.
	ErrCheckModuleNotFound = zerr.New("module not found while checking for update")

	// ErrUpdateApplyFailed is returned when changed modules could not be written to the cache.
	ErrUpdateApplyFailed = zerr.New("failed to apply module updates")

	// ErrMaterializeFailed is returned when code text cannot be turned into a callable.
	ErrMaterializeFailed = zerr.New("failed to materialize module")

	// ErrNotCallable is returned when materialized code does not define exactly one function.
	ErrNotCallable = zerr.New("code does not define exactly one function")

	// ErrSerializeFailed is returned when the source of a callable cannot be recovered.
	ErrSerializeFailed = zerr.New("failed to serialize callable")

	// ErrEvaluateFailed is returned when a fetched script fails to evaluate.
	ErrEvaluateFailed = zerr.New("failed to evaluate script")

	// ErrCallFailed is returned when invoking a module fails.
	ErrCallFailed = zerr.New("module call failed")

	// ErrUnsupportedValue is returned when a value cannot cross the Go/script boundary.
	ErrUnsupportedValue = zerr.New("unsupported value type")

	// ErrHTTPStatus is returned when a remote resource answers with a non-success status.
	ErrHTTPStatus = zerr.New("unexpected http status")

	// ErrResourceTooLarge is returned when a fetched script exceeds the size limit.
	ErrResourceTooLarge = zerr.New("resource exceeds size limit")

	// ErrUnsupportedScheme is returned for resource URLs with an unknown scheme.
	ErrUnsupportedScheme = zerr.New("unsupported url scheme")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the configuration contains invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")
)
