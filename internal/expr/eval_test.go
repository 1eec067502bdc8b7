package expr

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctr-run/cctr/internal/value"
)

func evalSrc(t *testing.T, src string, bindings map[string]value.Value) (bool, error) {
	t.Helper()
	return EvalBool(src, bindings, os.LookupEnv)
}

func TestArithmeticAndComparison(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"1 + 2 == 3", true},
		{"2 ^ 3 == 8", true},
		{"2 ** 3 == 8", true},
		{"10 % 3 == 1", true},
		{"7 / 2 == 3.5", true},
		{"-3 < 0", true},
		{"3 > 2 and 2 > 1", true},
		{"3 > 2 and 1 > 2", false},
		{"false or 1 > 2", false},
		{"false or 2 > 1", true},
	}
	for _, c := range cases {
		got, err := evalSrc(t, c.src, nil)
		require.NoError(t, err, c.src)
		assert.Equal(t, c.want, got, c.src)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	_, err := evalSrc(t, "1 / 0 == 1", nil)
	assert.Error(t, err)
}

func TestStringOps(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{`"hello world" contains "wor"`, true},
		{`"hello world" not contains "zzz"`, true},
		{`"hello" startswith "he"`, true},
		{`"hello" endswith "lo"`, true},
		{`"hello" matches /^h.*o$/`, true},
		{`"hello" not matches /^z/`, true},
		{`lower("ABC") == "abc"`, true},
		{`upper("abc") == "ABC"`, true},
	}
	for _, c := range cases {
		got, err := evalSrc(t, c.src, nil)
		require.NoError(t, err, c.src)
		assert.Equal(t, c.want, got, c.src)
	}
}

func TestContainsUniformAcrossKinds(t *testing.T) {
	bindings := map[string]value.Value{
		"arr": value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)}),
	}
	got, err := evalSrc(t, "arr contains 2", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	obj := value.NewObject()
	obj.Set("a", value.Number(1))
	bindings = map[string]value.Value{"o": value.FromObject(obj)}
	got, err = evalSrc(t, `o contains "a"`, bindings)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestInOperator(t *testing.T) {
	got, err := evalSrc(t, `2 in [1, 2, 3]`, nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestLenTypeKeysValues(t *testing.T) {
	obj := value.NewObject()
	obj.Set("b", value.Number(2))
	obj.Set("a", value.Number(1))
	bindings := map[string]value.Value{"o": value.FromObject(obj)}

	got, err := evalSrc(t, `keys(o)[0] == "a"`, bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, `type(o) == "object"`, bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, `len(keys(o)) == 2`, bindings)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestSumMinMaxAbsUnique(t *testing.T) {
	bindings := map[string]value.Value{
		"nums": value.Array([]value.Value{value.Number(3), value.Number(1), value.Number(1), value.Number(-5)}),
	}
	got, err := evalSrc(t, "sum(nums) == 0", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "min(nums) == -5", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "max(nums) == 3", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "abs(-5) == 5", nil)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "len(unique(nums)) == 3", bindings)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestForallQuantifierOverArrayAndObject(t *testing.T) {
	bindings := map[string]value.Value{
		"nums": value.Array([]value.Value{value.Number(2), value.Number(4), value.Number(6)}),
	}
	got, err := evalSrc(t, "n % 2 == 0 forall n in nums", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "n > 10 forall n in nums", bindings)
	require.NoError(t, err)
	assert.False(t, got)

	obj := value.NewObject()
	obj.Set("x", value.Number(1))
	obj.Set("y", value.Number(2))
	bindings = map[string]value.Value{"o": value.FromObject(obj)}
	got, err = evalSrc(t, "v > 0 forall v in o", bindings)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEnvFunction(t *testing.T) {
	t.Setenv("CCTR_TEST_VAR", "hi")
	got, err := evalSrc(t, `env("CCTR_TEST_VAR") == "hi"`, nil)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, `env("CCTR_DOES_NOT_EXIST") == null`, nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestUnknownVariableFails(t *testing.T) {
	_, err := evalSrc(t, "x > 0", nil)
	assert.Error(t, err)
}

func TestCrossTypeComparisonFails(t *testing.T) {
	bindings := map[string]value.Value{"s": value.String("3")}
	_, err := evalSrc(t, "s > 2", bindings)
	assert.Error(t, err)
}

func TestFieldAndIndexAccess(t *testing.T) {
	obj := value.NewObject()
	inner := value.NewObject()
	inner.Set("id", value.Number(42))
	obj.Set("user", value.FromObject(inner))
	bindings := map[string]value.Value{
		"data": value.FromObject(obj),
		"arr":  value.Array([]value.Value{value.Number(10), value.Number(20)}),
	}
	got, err := evalSrc(t, "data.user.id == 42", bindings)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = evalSrc(t, "arr[-1] == 20", bindings)
	require.NoError(t, err)
	assert.True(t, got)
}
