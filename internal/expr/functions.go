package expr

import (
	"fmt"
	"strings"

	"github.com/cctr-run/cctr/internal/value"
)

func callFunc(name string, args []value.Value, env Env) (value.Value, error) {
	switch name {
	case "len":
		return fnLen(args)
	case "type":
		return fnType(args)
	case "keys":
		return fnKeys(args)
	case "values":
		return fnValues(args)
	case "sum":
		return fnSum(args)
	case "min":
		return fnMin(args)
	case "max":
		return fnMax(args)
	case "abs":
		return fnAbs(args)
	case "unique":
		return fnUnique(args)
	case "lower":
		return fnLower(args)
	case "upper":
		return fnUpper(args)
	case "env":
		return fnEnv(args, env)
	}
	return value.Value{}, fmt.Errorf("unknown function %q", name)
}

func want1(args []value.Value, fn string) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("%s expects exactly 1 argument, got %d", fn, len(args))
	}
	return args[0], nil
}

func fnLen(args []value.Value) (value.Value, error) {
	v, err := want1(args, "len")
	if err != nil {
		return value.Value{}, err
	}
	switch v.K {
	case value.KindString:
		return value.Number(float64(len([]rune(v.Str)))), nil
	case value.KindArray:
		return value.Number(float64(len(v.Arr))), nil
	case value.KindObject:
		return value.Number(float64(v.Obj.Len())), nil
	}
	return value.Value{}, fmt.Errorf("len is not defined for kind %s", v.K)
}

func fnType(args []value.Value) (value.Value, error) {
	v, err := want1(args, "type")
	if err != nil {
		return value.Value{}, err
	}
	return value.String(string(v.K)), nil
}

func fnKeys(args []value.Value) (value.Value, error) {
	v, err := want1(args, "keys")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindObject {
		return value.Value{}, fmt.Errorf("keys requires an object argument, got %s", v.K)
	}
	keys := v.Obj.SortedKeys()
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.String(k)
	}
	return value.Array(items), nil
}

func fnValues(args []value.Value) (value.Value, error) {
	v, err := want1(args, "values")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindObject {
		return value.Value{}, fmt.Errorf("values requires an object argument, got %s", v.K)
	}
	keys := v.Obj.SortedKeys()
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i], _ = v.Obj.Get(k)
	}
	return value.Array(items), nil
}

func numericItems(v value.Value, fn string) ([]float64, error) {
	if v.K != value.KindArray {
		return nil, fmt.Errorf("%s requires an array argument, got %s", fn, v.K)
	}
	out := make([]float64, len(v.Arr))
	for i, item := range v.Arr {
		if item.K != value.KindNumber {
			return nil, fmt.Errorf("%s requires an array of numbers, found %s at index %d", fn, item.K, i)
		}
		out[i] = item.Num
	}
	return out, nil
}

func fnSum(args []value.Value) (value.Value, error) {
	v, err := want1(args, "sum")
	if err != nil {
		return value.Value{}, err
	}
	nums, err := numericItems(v, "sum")
	if err != nil {
		return value.Value{}, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return value.Number(total), nil
}

func fnMin(args []value.Value) (value.Value, error) {
	v, err := want1(args, "min")
	if err != nil {
		return value.Value{}, err
	}
	nums, err := numericItems(v, "min")
	if err != nil {
		return value.Value{}, err
	}
	if len(nums) == 0 {
		return value.Value{}, fmt.Errorf("min of an empty array")
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return value.Number(m), nil
}

func fnMax(args []value.Value) (value.Value, error) {
	v, err := want1(args, "max")
	if err != nil {
		return value.Value{}, err
	}
	nums, err := numericItems(v, "max")
	if err != nil {
		return value.Value{}, err
	}
	if len(nums) == 0 {
		return value.Value{}, fmt.Errorf("max of an empty array")
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return value.Number(m), nil
}

func fnAbs(args []value.Value) (value.Value, error) {
	v, err := want1(args, "abs")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindNumber {
		return value.Value{}, fmt.Errorf("abs requires a number argument, got %s", v.K)
	}
	if v.Num < 0 {
		return value.Number(-v.Num), nil
	}
	return value.Number(v.Num), nil
}

func fnUnique(args []value.Value) (value.Value, error) {
	v, err := want1(args, "unique")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindArray {
		return value.Value{}, fmt.Errorf("unique requires an array argument, got %s", v.K)
	}
	var out []value.Value
	for _, item := range v.Arr {
		dup := false
		for _, seen := range out {
			if value.Equal(seen, item) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return value.Array(out), nil
}

func fnLower(args []value.Value) (value.Value, error) {
	v, err := want1(args, "lower")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindString {
		return value.Value{}, fmt.Errorf("lower requires a string argument, got %s", v.K)
	}
	return value.String(strings.ToLower(v.Str)), nil
}

func fnUpper(args []value.Value) (value.Value, error) {
	v, err := want1(args, "upper")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindString {
		return value.Value{}, fmt.Errorf("upper requires a string argument, got %s", v.K)
	}
	return value.String(strings.ToUpper(v.Str)), nil
}

func fnEnv(args []value.Value, env Env) (value.Value, error) {
	v, err := want1(args, "env")
	if err != nil {
		return value.Value{}, err
	}
	if v.K != value.KindString {
		return value.Value{}, fmt.Errorf("env requires a string argument, got %s", v.K)
	}
	if env == nil {
		return value.Null(), nil
	}
	if val, ok := env(v.Str); ok {
		return value.String(val), nil
	}
	return value.Null(), nil
}
