package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// Colors used by the pretty handler.
const (
	colorSlate  = "#94A3B8"
	colorYellow = "#EAB308"
	colorRed    = "#EF4444"
	colorGray   = "#64748B"
	colorCyan   = "#22D3EE"
)

// moduleKey is rendered as a line prefix instead of a key=value pair.
const moduleKey = "module"

// PrettyHandler is a slog.Handler that produces human-readable, colored output.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
// Colors are disabled when NO_COLOR is set.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(level)

	return &PrettyHandler{
		out:   termenv.NewOutput(w, termenv.WithProfile(colorProfile()), termenv.WithTTY(true)),
		level: levelVar,
	}
}

func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var msg string
	var color termenv.Color

	switch {
	case r.Level >= slog.LevelError:
		msg = "✗ " + r.Message
		color = termenv.RGBColor(colorRed)
	case r.Level >= slog.LevelWarn:
		msg = "! " + r.Message
		color = termenv.RGBColor(colorYellow)
	case r.Level < slog.LevelInfo:
		msg = r.Message
		color = termenv.RGBColor(colorGray)
	default:
		msg = r.Message
		color = termenv.RGBColor(colorSlate)
	}

	var module string
	attrParts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	collect := func(attr slog.Attr) bool {
		if attr.Key == moduleKey && h.group == "" {
			module = attr.Value.String()
			return true
		}
		attrParts = append(attrParts, formatAttr(h.group, attr))
		return true
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	r.Attrs(collect)

	if len(attrParts) > 0 {
		msg += " " + strings.Join(attrParts, " ")
	}

	line := h.out.String(msg).Foreground(color).String()
	if module != "" {
		line = h.out.String("["+module+"]").Foreground(termenv.RGBColor(colorCyan)).Bold().String() + " " + line
	}
	_, err := h.out.WriteString(line + "\n")

	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: name,
	}
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
