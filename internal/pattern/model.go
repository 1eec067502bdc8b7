// Package pattern compiles an expected-output pattern (literal text
// interleaved with typed holes) into a matcher, and applies that matcher
// against actual command output to produce bindings or a structured
// mismatch. json_array/json_object holes use a counting balanced-bracket
// scanner instead of regex; contains semantics live in internal/expr
// rather than here.
package pattern

import "github.com/cctr-run/cctr/internal/value"

// Kind is a hole's declared type, or Auto for duck-typed holes.
type Kind int

const (
	Auto Kind = iota
	Number
	String
	JSONString
	JSONBool
	JSONArray
	JSONObject
)

// Segment is either a literal text run or a typed hole.
type Segment struct {
	Literal string
	IsHole  bool
	Name    string
	Kind    Kind
}

// Compiled is a compiled pattern ready to match against actual output.
type Compiled struct {
	Segments  []Segment
	HoleNames []string
}

// Mismatch describes a failed match as a unified-style diff plus the raw
// rendered expected text, for reporting.
type Mismatch struct {
	Diff     string
	Expected string
	Actual   string
}

// Bindings maps hole name to the captured, typed value.
type Bindings map[string]value.Value
