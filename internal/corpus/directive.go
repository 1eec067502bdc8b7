package corpus

import (
	"fmt"
	"strings"
)

func isDirectiveLine(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "%skip") || strings.HasPrefix(s, "%platform") || strings.HasPrefix(s, "%shell")
}

func parseDirective(raw string) (Directive, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "%skip"):
		return parseSkipDirective(s)
	case strings.HasPrefix(s, "%platform"):
		return parsePlatformDirective(s)
	case strings.HasPrefix(s, "%shell"):
		return parseShellDirective(s)
	}
	return Directive{}, fmt.Errorf("unrecognized directive: %q", s)
}

func parseSkipDirective(s string) (Directive, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(s, "%skip"))
	var reason, ifCmd string
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return Directive{}, fmt.Errorf("%%skip: unterminated reason, missing ')'")
		}
		reason = rest[1:end]
		rest = strings.TrimSpace(rest[end+1:])
	}
	if strings.HasPrefix(rest, "if:") {
		ifCmd = strings.TrimSpace(strings.TrimPrefix(rest, "if:"))
		if ifCmd == "" {
			return Directive{}, fmt.Errorf("%%skip if: missing command")
		}
	} else if rest != "" {
		return Directive{}, fmt.Errorf("%%skip: unrecognized trailing content %q", rest)
	}
	return Directive{Kind: DirSkip, SkipReason: reason, SkipIfCmd: ifCmd}, nil
}

func parsePlatformDirective(s string) (Directive, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(s, "%platform"))
	if rest == "" {
		return Directive{}, fmt.Errorf("%%platform requires a platform list")
	}
	fields := strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	return Directive{Kind: DirPlatform, Platforms: fields}, nil
}

func parseShellDirective(s string) (Directive, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(s, "%shell"))
	if rest == "" {
		return Directive{}, fmt.Errorf("%%shell requires a shell name")
	}
	return Directive{Kind: DirShell, ShellName: rest}, nil
}

// cmdOnlyPlatforms lists the platforms the "cmd" shell can run on; used to
// reject an incompatible %shell/%platform combination at parse time.
var cmdOnlyPlatforms = map[string]bool{"windows": true}

func checkDirectiveCompat(dirs []Directive) error {
	var shell string
	var platforms []string
	for _, d := range dirs {
		switch d.Kind {
		case DirShell:
			shell = d.ShellName
		case DirPlatform:
			platforms = append(platforms, d.Platforms...)
		}
	}
	if shell != "cmd" || len(platforms) == 0 {
		return nil
	}
	for _, p := range platforms {
		if cmdOnlyPlatforms[strings.ToLower(p)] {
			return nil
		}
	}
	return fmt.Errorf("%%shell cmd is incompatible with %%platform %s", strings.Join(platforms, " "))
}
