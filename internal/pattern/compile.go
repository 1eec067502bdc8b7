package pattern

import (
	"fmt"
	"strings"
)

// TemplateVars supplies the {{ WORK_DIR }} / {{ FIXTURE_DIR }} template
// substitutions applied before hole compilation.
type TemplateVars map[string]string

// EnvLookup abstracts os.LookupEnv for testability.
type EnvLookup func(name string) (string, bool)

var kindNames = map[string]Kind{
	"number":      Number,
	"string":      String,
	"json string": JSONString,
	"json bool":   JSONBool,
	"json array":  JSONArray,
	"json object": JSONObject,
}

// Compile expands template tokens, then splits the pattern into literal
// and hole segments.
func Compile(raw string, tmpl TemplateVars, env EnvLookup) (*Compiled, error) {
	expanded, err := expandTemplates(raw, tmpl, env)
	if err != nil {
		return nil, err
	}
	return buildSegments(expanded)
}

// expandTemplates substitutes template tokens and resolvable env vars
// literally before any hole is recognized, so a name that is both an env
// var and a candidate hole name always resolves to the env substitution.
func expandTemplates(raw string, tmpl TemplateVars, env EnvLookup) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(raw) {
		start := strings.Index(raw[i:], "{{")
		if start < 0 {
			sb.WriteString(raw[i:])
			break
		}
		start += i
		sb.WriteString(raw[i:start])
		end := strings.Index(raw[start:], "}}")
		if end < 0 {
			sb.WriteString(raw[start:])
			break
		}
		end += start
		content := strings.TrimSpace(raw[start+2 : end])
		i = end + 2

		if strings.Contains(content, ":") {
			// Typed or explicit hole declaration; never a template token.
			sb.WriteString("{{")
			sb.WriteString(content)
			sb.WriteString("}}")
			continue
		}
		if v, ok := tmpl[content]; ok {
			sb.WriteString(v)
			continue
		}
		if env != nil {
			if v, ok := env(content); ok {
				sb.WriteString(v)
				continue
			}
		}
		sb.WriteString("{{")
		sb.WriteString(content)
		sb.WriteString("}}")
	}
	return sb.String(), nil
}

// buildSegments splits an expanded pattern into literal runs and hole
// descriptors, rejecting duplicate hole names and ambiguous adjacency of
// two greedy-minimal holes with no literal between them.
func buildSegments(expanded string) (*Compiled, error) {
	var segs []Segment
	seen := map[string]bool{}
	var literalBuf strings.Builder

	flushLiteral := func() {
		if literalBuf.Len() > 0 {
			segs = append(segs, Segment{Literal: literalBuf.String()})
			literalBuf.Reset()
		}
	}

	i := 0
	for i < len(expanded) {
		start := strings.Index(expanded[i:], "{{")
		if start < 0 {
			literalBuf.WriteString(expanded[i:])
			break
		}
		start += i
		literalBuf.WriteString(expanded[i:start])
		end := strings.Index(expanded[start:], "}}")
		if end < 0 {
			literalBuf.WriteString(expanded[start:])
			break
		}
		end += start
		content := strings.TrimSpace(expanded[start+2 : end])
		i = end + 2

		name, kind, err := parseHoleContent(content)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("hole has an empty name: %q", content)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate hole name %q in pattern", name)
		}
		seen[name] = true

		flushLiteral()
		segs = append(segs, Segment{IsHole: true, Name: name, Kind: kind})
	}
	flushLiteral()

	if err := checkAdjacency(segs); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for _, s := range segs {
		if s.IsHole {
			names = append(names, s.Name)
		}
	}
	return &Compiled{Segments: segs, HoleNames: names}, nil
}

func parseHoleContent(content string) (name string, kind Kind, err error) {
	colon := strings.Index(content, ":")
	if colon < 0 {
		return strings.TrimSpace(content), Auto, nil
	}
	name = strings.TrimSpace(content[:colon])
	typeStr := strings.ToLower(strings.TrimSpace(content[colon+1:]))
	k, ok := kindNames[typeStr]
	if !ok {
		return "", Auto, fmt.Errorf("unknown hole type %q in %q", typeStr, content)
	}
	return name, k, nil
}

// checkAdjacency rejects two consecutive greedy-minimal holes (string/auto)
// with no literal between them, since neither extraction rule can tell
// where one hole ends and the next begins.
func checkAdjacency(segs []Segment) error {
	for i := 0; i+1 < len(segs); i++ {
		a, b := segs[i], segs[i+1]
		if a.IsHole && b.IsHole && isGreedyMinimal(a.Kind) {
			return fmt.Errorf("ambiguous adjacent holes {{%s}} and {{%s}} with no literal text between them", a.Name, b.Name)
		}
	}
	return nil
}

func isGreedyMinimal(k Kind) bool {
	return k == String || k == Auto
}
