package pattern

import (
	"encoding/json"
	"strconv"

	"github.com/cctr-run/cctr/internal/value"
)

// duckType infers a Kind for an auto hole in priority order: object, array,
// string-literal, bool, null, number, fallback string.
func duckType(text string) value.Value {
	if v, err := parseJSONObject(text); err == nil {
		return v
	}
	if v, err := parseJSONArray(text); err == nil {
		return v
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		if unquoted, err := strconv.Unquote(text); err == nil {
			return value.String(unquoted)
		}
	}
	if text == "true" {
		return value.Bool(true)
	}
	if text == "false" {
		return value.Bool(false)
	}
	if text == "null" {
		return value.Null()
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(f)
	}
	return value.String(text)
}

func parseJSONArray(text string) (value.Value, error) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return value.Value{}, err
	}
	items := make([]value.Value, len(raw))
	for i, item := range raw {
		items[i] = fromJSONAny(item)
	}
	return value.Array(items), nil
}

func parseJSONObject(text string) (value.Value, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return value.Value{}, err
	}
	// Object equality and keys()/values() never depend on insertion order
	// (the former compares key sets, the latter sorts), so encoding/json's
	// unordered map decode is sufficient here.
	obj := value.NewObject()
	for k, v := range raw {
		obj.Set(k, fromJSONAny(v))
	}
	return value.FromObject(obj), nil
}

func fromJSONAny(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	case []interface{}:
		items := make([]value.Value, len(v))
		for i, item := range v {
			items[i] = fromJSONAny(item)
		}
		return value.Array(items)
	case map[string]interface{}:
		obj := value.NewObject()
		for k, item := range v {
			obj.Set(k, fromJSONAny(item))
		}
		return value.FromObject(obj)
	}
	return value.Null()
}
