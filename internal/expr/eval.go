package expr

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cctr-run/cctr/internal/value"
)

// Env abstracts environment-variable lookups so evaluation stays pure and
// testable; production callers pass os.LookupEnv.
type Env func(name string) (string, bool)

// Evaluate walks the AST against an immutable bindings map. It never
// mutates bindings and carries no package-level state.
func Evaluate(e Expr, bindings map[string]value.Value, env Env) (value.Value, error) {
	switch n := e.(type) {
	case *LiteralExpr:
		return n.Val, nil
	case *ArrayExpr:
		items := make([]value.Value, len(n.Items))
		for i, item := range n.Items {
			v, err := Evaluate(item, bindings, env)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items), nil
	case *IdentExpr:
		v, ok := bindings[n.Name]
		if !ok {
			return value.Value{}, fmt.Errorf("unknown variable %q", n.Name)
		}
		return v, nil
	case *FieldExpr:
		recv, err := Evaluate(n.Recv, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		if recv.K != value.KindObject {
			return value.Value{}, fmt.Errorf("field access %q on non-object value", n.Name)
		}
		v, ok := recv.Obj.Get(n.Name)
		if !ok {
			return value.Value{}, fmt.Errorf("object has no field %q", n.Name)
		}
		return v, nil
	case *IndexExpr:
		recv, err := Evaluate(n.Recv, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		idx, err := Evaluate(n.Index, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		return evalIndex(recv, idx)
	case *CallExpr:
		args := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := Evaluate(a, bindings, env)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return callFunc(n.Name, args, env)
	case *UnaryExpr:
		v, err := Evaluate(n.Expr, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		switch n.Op {
		case "-":
			if v.K != value.KindNumber {
				return value.Value{}, fmt.Errorf("unary '-' on non-number")
			}
			return value.Number(-v.Num), nil
		case "not":
			return value.Bool(!v.IsTruthy()), nil
		}
		return value.Value{}, fmt.Errorf("unknown unary operator %q", n.Op)
	case *BinaryExpr:
		return evalBinary(n, bindings, env)
	case *ForallExpr:
		return evalForall(n, bindings, env)
	case *RegexExpr:
		return value.Value{}, fmt.Errorf("regex literal used outside of matches")
	}
	return value.Value{}, fmt.Errorf("unhandled expression node %T", e)
}

func evalIndex(recv, idx value.Value) (value.Value, error) {
	switch recv.K {
	case value.KindArray:
		if idx.K != value.KindNumber {
			return value.Value{}, fmt.Errorf("array index must be a number")
		}
		i := int(idx.Num)
		n := len(recv.Arr)
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return value.Value{}, fmt.Errorf("array index %d out of range (len %d)", int(idx.Num), n)
		}
		return recv.Arr[i], nil
	case value.KindString:
		if idx.K != value.KindNumber {
			return value.Value{}, fmt.Errorf("string index must be a number")
		}
		runes := []rune(recv.Str)
		i := int(idx.Num)
		n := len(runes)
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return value.Value{}, fmt.Errorf("string index %d out of range (len %d)", int(idx.Num), n)
		}
		return value.String(string(runes[i])), nil
	case value.KindObject:
		if idx.K != value.KindString {
			return value.Value{}, fmt.Errorf("object index must be a string")
		}
		v, ok := recv.Obj.Get(idx.Str)
		if !ok {
			return value.Value{}, fmt.Errorf("object has no key %q", idx.Str)
		}
		return v, nil
	}
	return value.Value{}, fmt.Errorf("cannot index value of kind %s", recv.K)
}

func evalBinary(n *BinaryExpr, bindings map[string]value.Value, env Env) (value.Value, error) {
	// or/and short-circuit.
	if n.Op == "or" {
		l, err := Evaluate(n.Left, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		if l.IsTruthy() {
			return value.Bool(true), nil
		}
		r, err := Evaluate(n.Right, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.IsTruthy()), nil
	}
	if n.Op == "and" {
		l, err := Evaluate(n.Left, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		if !l.IsTruthy() {
			return value.Bool(false), nil
		}
		r, err := Evaluate(n.Right, bindings, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(r.IsTruthy()), nil
	}

	l, err := Evaluate(n.Left, bindings, env)
	if err != nil {
		return value.Value{}, err
	}

	if n.Op == "matches" {
		re, ok := n.Right.(*RegexExpr)
		if !ok {
			return value.Value{}, fmt.Errorf("matches requires a /regex/ literal operand")
		}
		if l.K != value.KindString {
			return value.Value{}, fmt.Errorf("matches requires a string operand")
		}
		rx, err := regexp.Compile(re.Pattern)
		if err != nil {
			return value.Value{}, fmt.Errorf("bad regex %q: %w", re.Pattern, err)
		}
		res := rx.MatchString(l.Str)
		return value.Bool(applyNeg(n.Neg, res)), nil
	}

	r, err := Evaluate(n.Right, bindings, env)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case "contains":
		res, err := evalContains(l, r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(applyNeg(n.Neg, res)), nil
	case "startswith":
		if l.K != value.KindString || r.K != value.KindString {
			return value.Value{}, fmt.Errorf("startswith requires string operands")
		}
		return value.Bool(applyNeg(n.Neg, strings.HasPrefix(l.Str, r.Str))), nil
	case "endswith":
		if l.K != value.KindString || r.K != value.KindString {
			return value.Value{}, fmt.Errorf("endswith requires string operands")
		}
		return value.Bool(applyNeg(n.Neg, strings.HasSuffix(l.Str, r.Str))), nil
	case "in":
		if r.K != value.KindArray {
			return value.Value{}, fmt.Errorf("in requires an array right operand")
		}
		found := false
		for _, item := range r.Arr {
			if value.Equal(l, item) {
				found = true
				break
			}
		}
		return value.Bool(applyNeg(n.Neg, found)), nil
	case "==":
		return value.Bool(value.Equal(l, r)), nil
	case "!=":
		return value.Bool(!value.Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		return evalOrderComparison(n.Op, l, r)
	case "+", "-", "*", "/", "%", "^":
		return evalArith(n.Op, l, r)
	}
	return value.Value{}, fmt.Errorf("unknown binary operator %q", n.Op)
}

func applyNeg(neg, v bool) bool {
	if neg {
		return !v
	}
	return v
}

func evalContains(l, r value.Value) (bool, error) {
	switch l.K {
	case value.KindString:
		if r.K != value.KindString {
			return false, fmt.Errorf("contains on a string requires a string operand")
		}
		return strings.Contains(l.Str, r.Str), nil
	case value.KindArray:
		for _, item := range l.Arr {
			if value.Equal(item, r) {
				return true, nil
			}
		}
		return false, nil
	case value.KindObject:
		if r.K != value.KindString {
			return false, fmt.Errorf("contains on an object requires a string key operand")
		}
		_, ok := l.Obj.Get(r.Str)
		return ok, nil
	}
	return false, fmt.Errorf("contains is not defined for kind %s", l.K)
}

func evalOrderComparison(op string, l, r value.Value) (value.Value, error) {
	if l.K != r.K || (l.K != value.KindNumber && l.K != value.KindString) {
		return value.Value{}, fmt.Errorf("cannot compare %s with %s using %s", l.K, r.K, op)
	}
	var cmp int
	if l.K == value.KindNumber {
		switch {
		case l.Num < r.Num:
			cmp = -1
		case l.Num > r.Num:
			cmp = 1
		}
	} else {
		cmp = strings.Compare(l.Str, r.Str)
	}
	var res bool
	switch op {
	case "<":
		res = cmp < 0
	case "<=":
		res = cmp <= 0
	case ">":
		res = cmp > 0
	case ">=":
		res = cmp >= 0
	}
	return value.Bool(res), nil
}

func evalArith(op string, l, r value.Value) (value.Value, error) {
	if l.K != value.KindNumber || r.K != value.KindNumber {
		return value.Value{}, fmt.Errorf("arithmetic operator %q requires numeric operands", op)
	}
	switch op {
	case "+":
		return value.Number(l.Num + r.Num), nil
	case "-":
		return value.Number(l.Num - r.Num), nil
	case "*":
		return value.Number(l.Num * r.Num), nil
	case "/":
		if r.Num == 0 {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		return value.Number(l.Num / r.Num), nil
	case "%":
		if r.Num == 0 {
			return value.Value{}, fmt.Errorf("modulo by zero")
		}
		return value.Number(math.Mod(l.Num, r.Num)), nil
	case "^":
		return value.Number(math.Pow(l.Num, r.Num)), nil
	}
	return value.Value{}, fmt.Errorf("unknown arithmetic operator %q", op)
}

func evalForall(n *ForallExpr, bindings map[string]value.Value, env Env) (value.Value, error) {
	coll, err := Evaluate(n.Collection, bindings, env)
	if err != nil {
		return value.Value{}, err
	}
	var items []value.Value
	switch coll.K {
	case value.KindArray:
		items = coll.Arr
	case value.KindObject:
		for _, k := range coll.Obj.SortedKeys() {
			v, _ := coll.Obj.Get(k)
			items = append(items, v)
		}
	default:
		return value.Value{}, fmt.Errorf("forall requires an array or object collection, got %s", coll.K)
	}
	for _, item := range items {
		scoped := make(map[string]value.Value, len(bindings)+1)
		for k, v := range bindings {
			scoped[k] = v
		}
		scoped[n.Ident] = item
		v, err := Evaluate(n.Predicate, scoped, env)
		if err != nil {
			return value.Value{}, err
		}
		if !v.IsTruthy() {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

// EvalBool parses and evaluates a constraint source string, returning
// whether it is truthy, and a reason string on evaluation failure.
func EvalBool(src string, bindings map[string]value.Value, env Env) (bool, error) {
	ast, err := Parse(src)
	if err != nil {
		return false, fmt.Errorf("parse error: %w", err)
	}
	v, err := Evaluate(ast, bindings, env)
	if err != nil {
		return false, err
	}
	return v.IsTruthy(), nil
}
