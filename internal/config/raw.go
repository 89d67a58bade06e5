// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers key order. Declaration order of
// plugins is significant, so configuration is never decoded into plain maps.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Parse decodes a JSON document. Objects become *Object, arrays []any,
// numbers json.Number; strings, booleans and null decode as usual.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
			}
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// Merge recursively merges src into a copy of dst and returns the result;
// neither argument is modified.
//
// Objects merge key by key, keeping dst's key order and appending keys that
// only src has. Where either side is a list the two sides are concatenated.
// Otherwise the src value wins.
func Merge(dst, src any) any {
	dstObj, dstIsObj := dst.(*Object)
	srcObj, srcIsObj := src.(*Object)

	switch {
	case dst == nil:
		return clone(src)
	case dstIsObj && srcIsObj:
		out := clone(dstObj).(*Object)
		for pair := srcObj.Oldest(); pair != nil; pair = pair.Next() {
			if existing, ok := out.Get(pair.Key); ok {
				out.Set(pair.Key, Merge(existing, pair.Value))
				continue
			}
			out.Set(pair.Key, clone(pair.Value))
		}
		return out
	case !dstIsObj && !srcIsObj && (isList(dst) || isList(src)):
		out := append([]any{}, asList(clone(dst))...)
		return append(out, asList(clone(src))...)
	default:
		return clone(src)
	}
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func clone(v any) any {
	switch val := v.(type) {
	case *Object:
		out := NewObject()
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, clone(pair.Value))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clone(item)
		}
		return out
	default:
		return val
	}
}
