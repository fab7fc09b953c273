package logger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// messager describes an error that can report its own message without the chain.
type messager interface {
	Message() string
}

// metadataer describes an error carrying structured key/value metadata.
type metadataer interface {
	Metadata() map[string]any
}

// errorEntry is one link of an error chain.
type errorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the error chain. zerr links contribute their own message
// and metadata; the first standard error ends the walk with its full text.
func collectErrorEntries(err error) []errorEntry {
	var entries []errorEntry
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, errorEntry{Message: current.Error()})
			break
		}

		entry := errorEntry{Message: m.Message()}
		if md, ok := current.(metadataer); ok {
			entry.Metadata = md.Metadata()
		}

		// zerr.With on a plain error inserts a link with an empty message.
		if entry.Message == "" && len(entries) > 0 {
			entries[len(entries)-1].Metadata = mergeMetadata(entries[len(entries)-1].Metadata, entry.Metadata)
		} else if entry.Message != "" || len(entry.Metadata) > 0 {
			entries = append(entries, entry)
		}
		current = errors.Unwrap(current)
	}
	return entries
}

func mergeMetadata(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// formatErrorEntries renders entries as a main error followed by its causes.
func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, e := range entries {
		text := e.Message + formatMetadata(e.Metadata)
		parts := strings.Split(text, "\n")

		if i == 0 {
			lines = append(lines, "Error: "+parts[0])
			for _, line := range parts[1:] {
				lines = append(lines, "       "+line)
			}
			continue
		}

		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+parts[0])
		for _, line := range parts[1:] {
			lines = append(lines, "      "+line)
		}
	}
	return strings.Join(lines, "\n")
}

func formatMetadata(md map[string]any) string {
	if len(md) == 0 {
		return ""
	}
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, md[k])
	}
	return " (" + strings.Join(pairs, ", ") + ")"
}
