// Package value implements the evaluator's Value universe: number, string,
// bool, null, array, and object, plus the equality and type-name rules that
// the matcher and expression evaluator both depend on.
package value

import (
	"fmt"
	"sort"
)

// Kind names the dynamic type of a Value, matching the names type() returns.
type Kind string

const (
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Object is a mapping from string keys to Values that remembers the order in
// which keys were first set (InsertionKeys); SortedKeys gives the alphabetical
// order that keys()/values() report. Equal compares objects by key set and
// values, independent of key order.
type Object struct {
	keys   []string
	values map[string]Value
}

func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Len() int { return len(o.keys) }

// InsertionKeys returns keys in the order they were first set.
func (o *Object) InsertionKeys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// SortedKeys returns keys in ascending lexical order, as used by keys()/values().
func (o *Object) SortedKeys() []string {
	out := o.InsertionKeys()
	sort.Strings(out)
	return out
}

// Value is a tagged union over the evaluator's universe. Exactly one of the
// typed fields is meaningful, selected by Kind.
type Value struct {
	K   Kind
	Num float64
	Str string
	B   bool
	Arr []Value
	Obj *Object
}

func Number(n float64) Value  { return Value{K: KindNumber, Num: n} }
func String(s string) Value   { return Value{K: KindString, Str: s} }
func Bool(b bool) Value        { return Value{K: KindBool, B: b} }
func Null() Value              { return Value{K: KindNull} }
func Array(items []Value) Value { return Value{K: KindArray, Arr: items} }
func FromObject(o *Object) Value { return Value{K: KindObject, Obj: o} }

func (v Value) IsTruthy() bool {
	switch v.K {
	case KindBool:
		return v.B
	case KindNull:
		return false
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Arr) > 0
	case KindObject:
		return v.Obj != nil && v.Obj.Len() > 0
	}
	return false
}

// Equal implements the deep-equality rule used by contains, ==, and in.
func Equal(a, b Value) bool {
	if a.K != b.K {
		return false
	}
	switch a.K {
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindBool:
		return a.B == b.B
	case KindNull:
		return true
	case KindArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.Obj.Len() != b.Obj.Len() {
			return false
		}
		for _, k := range a.Obj.InsertionKeys() {
			av, _ := a.Obj.Get(k)
			bv, ok := b.Obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.K {
	case KindNumber:
		return fmt.Sprintf("%g", v.Num)
	case KindString:
		return v.Str
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	case KindArray:
		s := "["
		for i, e := range v.Arr {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + "]"
	case KindObject:
		s := "{"
		for i, k := range v.Obj.InsertionKeys() {
			if i > 0 {
				s += ", "
			}
			ev, _ := v.Obj.Get(k)
			s += fmt.Sprintf("%q: %s", k, ev.String())
		}
		return s + "}"
	}
	return ""
}
