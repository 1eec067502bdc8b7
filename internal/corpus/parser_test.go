package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleTest(t *testing.T) {
	content := "===\nhello\n===\necho hi\n---\nhi\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	tc := pf.Tests[0]
	assert.Equal(t, "hello", tc.Name)
	assert.Equal(t, "echo hi", tc.Command)
	assert.Equal(t, "hi", tc.ExpectedPattern)
	assert.Empty(t, tc.Where)
	assert.Equal(t, 3, pf.DelimLen)
}

func TestParseMultipleTests(t *testing.T) {
	content := "===\nfirst\n===\necho first\n---\nfirst\n\n===\nsecond\n===\necho second\n---\nsecond\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 2)
	assert.Equal(t, "first", pf.Tests[0].Name)
	assert.Equal(t, "second", pf.Tests[1].Name)
}

func TestParseExitOnly(t *testing.T) {
	content := "===\nexit only\n===\ntrue\n---\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	assert.Equal(t, "", pf.Tests[0].ExpectedPattern)
}

func TestParseConstraints(t *testing.T) {
	content := "===\ntiming\n===\ntime_command\n---\nCompleted in {{ n: number }}s\n---\nwhere\n* n > 0\n* n < 60\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	tc := pf.Tests[0]
	assert.Equal(t, "Completed in {{ n: number }}s", tc.ExpectedPattern)
	require.Len(t, tc.Where, 2)
	assert.Equal(t, "n > 0", tc.Where[0])
	assert.Equal(t, "n < 60", tc.Where[1])
}

func TestLongerDelimiterAllowsLiteralDashes(t *testing.T) {
	content := "====\nliteral dashes\n====\necho x\n----\na\n---\nb\n----\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	assert.Equal(t, "a\n---\nb", pf.Tests[0].ExpectedPattern)
	assert.Equal(t, 4, pf.DelimLen)
}

func TestFileLevelDirectives(t *testing.T) {
	content := "%platform linux macos\n===\nname\n===\necho hi\n---\nhi\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.FileDirectives, 1)
	assert.Equal(t, DirPlatform, pf.FileDirectives[0].Kind)
	assert.Equal(t, []string{"linux", "macos"}, pf.FileDirectives[0].Platforms)
}

func TestTestLevelSkipDirective(t *testing.T) {
	content := "===\nname\n===\n%skip(flaky)\necho hi\n---\nhi\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	require.Len(t, pf.Tests[0].TestDirectives, 1)
	assert.Equal(t, "flaky", pf.Tests[0].TestDirectives[0].SkipReason)
}

func TestSkipIfDirective(t *testing.T) {
	content := "===\nname\n===\n%skip if: test -f /nonexistent\necho hi\n---\nhi\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	assert.Equal(t, "test -f /nonexistent", pf.Tests[0].TestDirectives[0].SkipIfCmd)
}

func TestShellCmdIncompatibleWithNonWindowsPlatform(t *testing.T) {
	content := "===\nname\n===\n%shell cmd\n%platform linux\necho hi\n---\nhi\n"
	_, err := ParseContent(content, "corpus.txt")
	assert.Error(t, err)
}

func TestUnterminatedTestHeaderFails(t *testing.T) {
	content := "===\nname\necho hi\n---\nhi\n"
	_, err := ParseContent(content, "corpus.txt")
	assert.Error(t, err)
}

func TestByteRangeCoversExpectedRegion(t *testing.T) {
	content := "===\nname\n===\necho hi\n---\nhi\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	tc := pf.Tests[0]
	assert.Equal(t, "hi", pf.RawContent[tc.ExpectedRange.Start:tc.ExpectedRange.End])
}

func TestCRLFNormalized(t *testing.T) {
	content := "===\r\nname\r\n===\r\necho hi\r\n---\r\nhi\r\n"
	pf, err := ParseContent(content, "corpus.txt")
	require.NoError(t, err)
	require.Len(t, pf.Tests, 1)
	assert.Equal(t, "hi", pf.Tests[0].ExpectedPattern)
}
