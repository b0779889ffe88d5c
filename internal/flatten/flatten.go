// Package flatten collapses nested mappings and sequences into single-level
// records keyed by underscore-joined paths, e.g. {"a": [{"b": 1}]} becomes
// {"a_0_b": 1}.
//
// Keys are not escaped: if a field name contains the delimiter two different
// paths can join to the same key. The value visited later wins and the key
// keeps the position of its first occurrence.
package flatten

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const Delimiter = "_"

var ErrNotContainer = errors.New("flatten: root must be a mapping or a sequence")

// Record is a flattened value. Keys are kept in traversal order; mapping keys
// are visited in sorted order so the order is stable across runs.
type Record struct {
	keys   []string
	values map[string]any
	paths  map[string][]string
}

func newRecord() *Record {
	return &Record{values: map[string]any{}, paths: map[string][]string{}}
}

func (r *Record) set(path []string, v any) {
	key := strings.Join(path, Delimiter)
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
	r.paths[key] = append([]string(nil), path...)
}

func (r *Record) Keys() []string { return r.keys }

func (r *Record) Len() int { return len(r.keys) }

func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Path returns the segments that produced key.
func (r *Record) Path(key string) []string { return r.paths[key] }

// Map returns the record as a plain map (order is lost).
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the keys in traversal order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("flatten: key %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Flatten walks a tree of map[string]any / []any (as produced by encoding/json)
// and returns its leaves. The root must be a container.
func Flatten(v any) (*Record, error) {
	switch v.(type) {
	case map[string]any, []any, []map[string]any, map[string]string, []string:
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotContainer, v)
	}
	r := newRecord()
	walk(r, nil, v)
	return r, nil
}

// FlattenValue normalises any JSON-marshalable value (structs included) to
// its JSON tree before flattening.
func FlattenValue(v any) (*Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("flatten: marshal %T: %w", v, err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("flatten: unmarshal %T: %w", v, err)
	}
	return Flatten(tree)
}

func walk(r *Record, path []string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			walk(r, append(path, k), t[k])
		}
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(r, append(path, k), t[k])
		}
	case []any:
		for i, e := range t {
			walk(r, append(path, strconv.Itoa(i)), e)
		}
	case []map[string]any:
		for i, e := range t {
			walk(r, append(path, strconv.Itoa(i)), e)
		}
	case []string:
		for i, e := range t {
			walk(r, append(path, strconv.Itoa(i)), e)
		}
	default:
		r.set(path, v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Columns returns the union of keys across rows in first-seen order.
func Columns(rows []*Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}
