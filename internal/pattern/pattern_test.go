package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctr-run/cctr/internal/value"
)

func noEnv(string) (string, bool) { return "", false }

func TestCompileAndMatchLiteralOnly(t *testing.T) {
	c, err := Compile("hello world", nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match("hello world")
	require.Nil(t, mismatch)
	assert.Empty(t, bindings)
}

func TestCompileAndMatchNumberHole(t *testing.T) {
	c, err := Compile("Took {{ ms: number }}ms", nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match("Took 42ms")
	require.Nil(t, mismatch)
	assert.Equal(t, value.Number(42), bindings["ms"])
}

func TestMatchFailureReturnsDiff(t *testing.T) {
	c, err := Compile("hello", nil, noEnv)
	require.NoError(t, err)
	_, mismatch := c.Match("goodbye")
	require.NotNil(t, mismatch)
	assert.Contains(t, mismatch.Diff, "hello")
	assert.Contains(t, mismatch.Diff, "goodbye")
}

func TestDuckTypedHole(t *testing.T) {
	c, err := Compile(`val: {{ x }}`, nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match("val: 42")
	require.Nil(t, mismatch)
	assert.Equal(t, value.Number(42), bindings["x"])

	bindings, mismatch = c.Match("val: true")
	require.Nil(t, mismatch)
	assert.Equal(t, value.Bool(true), bindings["x"])

	bindings, mismatch = c.Match("val: hello")
	require.Nil(t, mismatch)
	assert.Equal(t, value.String("hello"), bindings["x"])
}

func TestJSONArrayHole(t *testing.T) {
	c, err := Compile("items: {{ items: json array }}", nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match(`items: [1, 2, "x,y"]`)
	require.Nil(t, mismatch)
	v := bindings["items"]
	require.Equal(t, value.KindArray, v.K)
	assert.Len(t, v.Arr, 3)
}

func TestJSONObjectHole(t *testing.T) {
	c, err := Compile("obj: {{ o: json object }}", nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match(`obj: {"a": 1, "b": [1,2]}`)
	require.Nil(t, mismatch)
	v := bindings["o"]
	require.Equal(t, value.KindObject, v.K)
	assert.Equal(t, 2, v.Obj.Len())
}

func TestTemplateExpansionBeforeHoleCompilation(t *testing.T) {
	c, err := Compile("dir: {{ WORK_DIR }}", TemplateVars{"WORK_DIR": "/tmp/work123"}, noEnv)
	require.NoError(t, err)
	assert.Empty(t, c.HoleNames)
	bindings, mismatch := c.Match("dir: /tmp/work123")
	require.Nil(t, mismatch)
	assert.Empty(t, bindings)
}

func TestEnvExpansionFallback(t *testing.T) {
	env := func(name string) (string, bool) {
		if name == "HOME" {
			return "/root", true
		}
		return "", false
	}
	c, err := Compile("home: {{ HOME }}", nil, env)
	require.NoError(t, err)
	_, mismatch := c.Match("home: /root")
	require.Nil(t, mismatch)
}

func TestDuplicateHoleNameRejected(t *testing.T) {
	_, err := Compile("{{ x }} and {{ x }}", nil, noEnv)
	assert.Error(t, err)
}

func TestAmbiguousAdjacentHolesRejected(t *testing.T) {
	_, err := Compile("{{ a }}{{ b }}", nil, noEnv)
	assert.Error(t, err)
}

func TestMultipleHolesWithLiteralsBetween(t *testing.T) {
	c, err := Compile("{{ count: number }} items in {{ time: number }}s: {{ msg: string }}", nil, noEnv)
	require.NoError(t, err)
	bindings, mismatch := c.Match("5 items in 2s: done")
	require.Nil(t, mismatch)
	assert.Equal(t, value.Number(5), bindings["count"])
	assert.Equal(t, value.Number(2), bindings["time"])
	assert.Equal(t, value.String("done"), bindings["msg"])
}

func TestANSIStrippedBeforeMatch(t *testing.T) {
	c, err := Compile("hello", nil, noEnv)
	require.NoError(t, err)
	_, mismatch := c.Match(Normalize("\x1b[32mhello\x1b[0m"))
	assert.Nil(t, mismatch)
}
