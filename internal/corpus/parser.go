package corpus

import (
	"fmt"
	"os"
	"strings"

	"github.com/cctr-run/cctr/internal/cctrerrors"
)

type line struct {
	text   string
	offset int // byte offset of text[0] within the normalized content
}

// ParseFile reads and parses a corpus file from disk.
func ParseFile(path string) (*ParsedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cctrerrors.Wrap(err, cctrerrors.Parse, "could not read corpus file "+path)
	}
	return ParseContent(string(data), path)
}

// ParseContent parses corpus text already read into memory; path is used
// only for error locations and the FilePath of each test.
func ParseContent(raw, path string) (*ParsedFile, error) {
	content := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	lines := splitLines(content)

	p := &parser{lines: lines, path: path, content: content}
	if err := p.findDelimLength(); err != nil {
		return nil, err
	}
	if err := p.parseFileDirectives(); err != nil {
		return nil, err
	}
	for p.i < len(p.lines) {
		if isBlank(p.lines[p.i].text) {
			p.i++
			continue
		}
		tc, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		p.tests = append(p.tests, tc)
	}
	return &ParsedFile{
		Path:           path,
		DelimLen:       p.delimLen,
		FileDirectives: p.fileDirectives,
		Tests:          p.tests,
		RawContent:     content,
	}, nil
}

func splitLines(content string) []line {
	var out []line
	offset := 0
	for {
		idx := strings.IndexByte(content[offset:], '\n')
		if idx < 0 {
			if offset < len(content) {
				out = append(out, line{text: content[offset:], offset: offset})
			}
			break
		}
		out = append(out, line{text: content[offset : offset+idx], offset: offset})
		offset += idx + 1
	}
	return out
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func isEqualsRun(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, c := range s {
		if c != '=' {
			return false
		}
	}
	return true
}

func isDashRun(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, c := range s {
		if c != '-' {
			return false
		}
	}
	return true
}

type parser struct {
	lines          []line
	i              int
	path           string
	content        string
	delimLen       int
	fileDirectives []Directive
	tests          []TestCase
}

func (p *parser) err(lineIdx int, format string, args ...any) error {
	lineNo := lineIdx + 1
	return cctrerrors.AtLoc(cctrerrors.Parse, fmt.Sprintf(format, args...), p.path, lineNo)
}

// findDelimLength scans for the first '='-run of length >=3, which fixes
// the delimiter length for the whole file.
func (p *parser) findDelimLength() error {
	for _, ln := range p.lines {
		if isEqualsRun(ln.text) {
			p.delimLen = len(ln.text)
			return nil
		}
	}
	p.delimLen = 0 // no tests in this file; directives-only or empty
	return nil
}

func (p *parser) isHeader(idx int) bool {
	return p.delimLen > 0 && len(p.lines[idx].text) == p.delimLen && isEqualsRun(p.lines[idx].text)
}

func (p *parser) isDash(idx int) bool {
	return p.delimLen > 0 && len(p.lines[idx].text) == p.delimLen && isDashRun(p.lines[idx].text)
}

func (p *parser) parseFileDirectives() error {
	for p.i < len(p.lines) {
		ln := p.lines[p.i]
		if isBlank(ln.text) {
			p.i++
			continue
		}
		if p.isHeader(p.i) {
			return nil
		}
		if isDirectiveLine(ln.text) {
			d, err := parseDirective(ln.text)
			if err != nil {
				return p.err(p.i, "%v", err)
			}
			p.fileDirectives = append(p.fileDirectives, d)
			p.i++
			continue
		}
		return p.err(p.i, "expected a directive or test header, found %q", ln.text)
	}
	return nil
}

// parseTest consumes one `header name header [directive]* body` production.
func (p *parser) parseTest() (TestCase, error) {
	headerIdx := p.i
	if !p.isHeader(p.i) {
		return TestCase{}, p.err(p.i, "expected test header ('=' x %d)", p.delimLen)
	}
	p.i++
	if p.i >= len(p.lines) {
		return TestCase{}, p.err(headerIdx, "unterminated test: missing name after header")
	}
	name := strings.TrimSpace(p.lines[p.i].text)
	p.i++
	if p.i >= len(p.lines) || !p.isHeader(p.i) {
		return TestCase{}, p.err(headerIdx, "test %q is missing its closing header", name)
	}
	p.i++

	var testDirectives []Directive
	for p.i < len(p.lines) && isDirectiveLine(p.lines[p.i].text) {
		d, err := parseDirective(p.lines[p.i].text)
		if err != nil {
			return TestCase{}, p.err(p.i, "%v", err)
		}
		testDirectives = append(testDirectives, d)
		p.i++
	}
	if err := checkDirectiveCompat(append(append([]Directive{}, p.fileDirectives...), testDirectives...)); err != nil {
		return TestCase{}, p.err(headerIdx, "%v", err)
	}

	var commandLines []line
	for p.i < len(p.lines) && !p.isDash(p.i) {
		commandLines = append(commandLines, p.lines[p.i])
		p.i++
	}
	if p.i >= len(p.lines) {
		return TestCase{}, p.err(headerIdx, "test %q: unterminated command, missing '-' fence", name)
	}
	for len(commandLines) > 0 && isBlank(commandLines[len(commandLines)-1].text) {
		commandLines = commandLines[:len(commandLines)-1]
	}
	if len(commandLines) == 0 {
		return TestCase{}, p.err(headerIdx, "test %q has an empty command", name)
	}
	command := joinLines(commandLines)

	fenceIdx := p.i
	p.i++ // past the dash fence

	var expectedLines []line
	var whereExprs []string
	for p.i < len(p.lines) {
		if p.isDash(p.i) {
			next := p.i + 1
			if next < len(p.lines) && strings.TrimSpace(p.lines[next].text) == "where" {
				p.i = next + 1
				for p.i < len(p.lines) && !p.isHeader(p.i) {
					trimmed := strings.TrimSpace(p.lines[p.i].text)
					if trimmed != "" {
						whereExprs = append(whereExprs, strings.TrimSpace(strings.TrimPrefix(trimmed, "*")))
					}
					p.i++
				}
			} else {
				p.i++
			}
			break
		}
		if p.isHeader(p.i) {
			break
		}
		expectedLines = append(expectedLines, p.lines[p.i])
		p.i++
	}
	for len(expectedLines) > 0 && isBlank(expectedLines[len(expectedLines)-1].text) {
		expectedLines = expectedLines[:len(expectedLines)-1]
	}

	var byteRange ByteRange
	if len(expectedLines) > 0 {
		byteRange.Start = expectedLines[0].offset
		last := expectedLines[len(expectedLines)-1]
		byteRange.End = last.offset + len(last.text)
	} else {
		// Exit-only test: empty expected region, anchored right after the fence.
		fence := p.lines[fenceIdx]
		byteRange.Start = fence.offset + len(fence.text)
		if byteRange.Start < len(p.content) {
			byteRange.Start++ // past the fence line's newline
		}
		byteRange.End = byteRange.Start
	}

	endLine := p.i
	expected := joinLines(expectedLines)

	return TestCase{
		Name:            name,
		Command:         command,
		ExpectedPattern: expected,
		Where:           whereExprs,
		TestDirectives:  testDirectives,
		FileDirectives:  append([]Directive{}, p.fileDirectives...),
		FilePath:        p.path,
		StartLine:       headerIdx + 1,
		EndLine:         endLine,
		ExpectedRange:   byteRange,
	}, nil
}

func joinLines(lns []line) string {
	parts := make([]string, len(lns))
	for i, l := range lns {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}
