package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cctr-run/cctr/internal/value"
)

var numberRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)

// Normalize strips ANSI escapes and normalizes CRLF to LF before matching
// actual output; the corpus file text itself is never touched.
func Normalize(actual string) string {
	actual = stripANSI(actual)
	actual = strings.ReplaceAll(actual, "\r\n", "\n")
	return strings.ReplaceAll(actual, "\r", "\n")
}

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// Match applies the compiled pattern to already-normalized actual output.
func (c *Compiled) Match(actual string) (Bindings, *Mismatch) {
	bindings := Bindings{}
	pos := 0
	for idx, seg := range c.Segments {
		if !seg.IsHole {
			if !strings.HasPrefix(actual[pos:], seg.Literal) {
				return nil, c.mismatch(actual)
			}
			pos += len(seg.Literal)
			continue
		}

		var next *Segment
		if idx+1 < len(c.Segments) {
			next = &c.Segments[idx+1]
		}

		text, newPos, ok := extractHole(actual, pos, seg.Kind, next)
		if !ok {
			return nil, c.mismatch(actual)
		}
		v, err := parseValue(text, seg.Kind)
		if err != nil {
			return nil, c.mismatch(actual)
		}
		bindings[seg.Name] = v
		pos = newPos
	}
	if pos != len(actual) {
		return nil, c.mismatch(actual)
	}
	return bindings, nil
}

// extractHole returns the raw captured text for one hole and the new
// scan position, given the kind-specific extraction rule.
func extractHole(actual string, pos int, kind Kind, next *Segment) (string, int, bool) {
	switch kind {
	case Number:
		m := numberRe.FindString(actual[pos:])
		if m == "" {
			return "", pos, false
		}
		return m, pos + len(m), true
	case JSONBool:
		if strings.HasPrefix(actual[pos:], "true") {
			return "true", pos + 4, true
		}
		if strings.HasPrefix(actual[pos:], "false") {
			return "false", pos + 5, true
		}
		return "", pos, false
	case JSONString:
		end, ok := scanJSONString(actual, pos)
		if !ok {
			return "", pos, false
		}
		return actual[pos:end], end, true
	case JSONArray:
		end, ok := scanBalanced(actual, pos, '[', ']')
		if !ok {
			return "", pos, false
		}
		return actual[pos:end], end, true
	case JSONObject:
		end, ok := scanBalanced(actual, pos, '{', '}')
		if !ok {
			return "", pos, false
		}
		return actual[pos:end], end, true
	case String, Auto:
		return extractGreedyMinimal(actual, pos, next)
	}
	return "", pos, false
}

func extractGreedyMinimal(actual string, pos int, next *Segment) (string, int, bool) {
	if next != nil && !next.IsHole && next.Literal != "" {
		boundary := next.Literal
		if nl := strings.IndexByte(boundary, '\n'); nl >= 0 {
			boundary = boundary[:nl]
		}
		idx := strings.Index(actual[pos:], boundary)
		if idx < 0 {
			return "", pos, false
		}
		return actual[pos : pos+idx], pos + idx, true
	}
	// No bounding literal: stop at end of line, or end of string if this is
	// the pattern's final line.
	rest := actual[pos:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return rest[:nl], pos + nl, true
	}
	return rest, len(actual), true
}

// scanJSONString scans a double-quoted JSON string starting at pos, which
// must hold the opening quote, returning the index just past the closing
// quote.
func scanJSONString(s string, pos int) (int, bool) {
	if pos >= len(s) || s[pos] != '"' {
		return pos, false
	}
	i := pos + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1, true
		}
		i++
	}
	return pos, false
}

// scanBalanced is a counting scanner for json_array/json_object holes: it
// recognizes strings (and their escapes) so that brackets inside string
// content never affect the balance count.
func scanBalanced(s string, pos int, open, close byte) (int, bool) {
	if pos >= len(s) || s[pos] != open {
		return pos, false
	}
	depth := 0
	inString := false
	for i := pos; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return pos, false
}

func parseValue(text string, kind Kind) (value.Value, error) {
	switch kind {
	case Number:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(f), nil
	case String:
		return value.String(text), nil
	case JSONString:
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return value.Value{}, fmt.Errorf("bad json string %q: %w", text, err)
		}
		return value.String(unquoted), nil
	case JSONBool:
		return value.Bool(text == "true"), nil
	case JSONArray:
		return parseJSONArray(text)
	case JSONObject:
		return parseJSONObject(text)
	case Auto:
		return duckType(text), nil
	}
	return value.Value{}, fmt.Errorf("unhandled hole kind")
}
