package pattern

import (
	"fmt"
	"strings"
)

// render reconstructs the pattern's source text with holes shown as
// {{ name }} placeholders, for use in mismatch reports.
func (c *Compiled) render() string {
	var sb strings.Builder
	for _, seg := range c.Segments {
		if seg.IsHole {
			sb.WriteString("{{ ")
			sb.WriteString(seg.Name)
			sb.WriteString(" }}")
			continue
		}
		sb.WriteString(seg.Literal)
	}
	return sb.String()
}

func (c *Compiled) mismatch(actual string) *Mismatch {
	expected := c.render()
	return &Mismatch{
		Expected: expected,
		Actual:   actual,
		Diff:     unifiedLineDiff(expected, actual),
	}
}

// unifiedLineDiff is a minimal line-based diff (no third-party diff library
// appears anywhere in the retrieved pack; this is plain stdlib string
// comparison, not a general LCS diff, which is sufficient for reporting a
// pattern/actual mismatch).
func unifiedLineDiff(expected, actual string) string {
	expLines := strings.Split(expected, "\n")
	actLines := strings.Split(actual, "\n")
	var sb strings.Builder
	max := len(expLines)
	if len(actLines) > max {
		max = len(actLines)
	}
	for i := 0; i < max; i++ {
		var e, a string
		if i < len(expLines) {
			e = expLines[i]
		}
		if i < len(actLines) {
			a = actLines[i]
		}
		if e == a {
			fmt.Fprintf(&sb, "  %s\n", e)
			continue
		}
		if i < len(expLines) {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
		if i < len(actLines) {
			fmt.Fprintf(&sb, "+ %s\n", a)
		}
	}
	return sb.String()
}
