package commands

// DecodeArgs exposes decodeArgs for tests.
var DecodeArgs = decodeArgs
