// Package ace reads and writes AgMIP ACE JSON datasets and exposes the buckets the soil and
// experiment tools work on.
//
// Records keep the decoded JSON tree as is, so fields the tools do not know about survive a
// read/write round trip.
package ace

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// Record is one decoded JSON object.
type Record map[string]any

// Bucket returns the nested object stored under key, or nil.
func (r Record) Bucket(key string) Record {
	switch v := r[key].(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	}
	return nil
}

// Identity returns a key shared by every Record value backed by the same object, and 0 for a
// nil Record.
func (r Record) Identity() uintptr {
	if r == nil {
		return 0
	}
	return reflect.ValueOf(r).Pointer()
}

// SetBucket returns the nested object under key, creating it when absent.
func (r Record) SetBucket(key string) Record {
	if b := r.Bucket(key); b != nil {
		return b
	}
	b := map[string]any{}
	r[key] = b
	return Record(b)
}

// List returns the objects of the array stored under key. Non-object entries are skipped.
func (r Record) List(key string) []Record {
	var out []Record
	switch v := r[key].(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
	case []map[string]any:
		for _, m := range v {
			out = append(out, Record(m))
		}
	case []Record:
		out = v
	}
	return out
}

// Value returns the scalar under key as a string, or "" when absent.
func (r Record) Value(key string) string {
	return stringify(r[key])
}

// Set stores a string value.
func (r Record) Set(key, value string) {
	r[key] = value
}

// Strings flattens the scalar fields of the record into a string map.
func (r Record) Strings() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		switch v.(type) {
		case map[string]any, []any, Record:
			continue
		}
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// toList converts string maps back into JSON array entries.
func toList[M ~map[string]string](items []M) []any {
	out := make([]any, len(items))
	for i, item := range items {
		m := make(map[string]any, len(item))
		for k, v := range item {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// fromList reads the string fields of every object under key.
func fromList[M ~map[string]string](r Record, key string) []M {
	records := r.List(key)
	if len(records) == 0 {
		return nil
	}
	out := make([]M, len(records))
	for i, rec := range records {
		out[i] = M(rec.Strings())
	}
	return out
}
