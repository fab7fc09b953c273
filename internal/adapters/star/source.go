package star

import (
	"strings"

	"go.starlark.net/syntax"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

// defSource extracts the lines of the def statement starting at pos from src.
// Nested definitions are dedented to the column of their def keyword.
func defSource(pos syntax.Position, src string) (string, error) {
	f, err := fileOptions.Parse(pos.Filename(), src, 0)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrSerializeFailed.Error())
	}

	var def *syntax.DefStmt
	syntax.Walk(f, func(n syntax.Node) bool {
		if def != nil {
			return false
		}
		if d, ok := n.(*syntax.DefStmt); ok && d.Def.Line == pos.Line && d.Def.Col == pos.Col {
			def = d
			return false
		}
		return true
	})
	if def == nil {
		return "", zerr.With(domain.ErrSerializeFailed, "position", pos.String())
	}

	start, end := def.Span()
	lines := strings.Split(src, "\n")
	if int(end.Line) > len(lines) {
		return "", zerr.With(domain.ErrSerializeFailed, "position", pos.String())
	}

	indent := int(start.Col) - 1
	var b strings.Builder
	for _, line := range lines[start.Line-1 : end.Line] {
		b.WriteString(dedent(line, indent))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// dedent removes up to n leading blanks from line.
func dedent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:]
}
