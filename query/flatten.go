/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one leaf of a flattened filter object.
type Entry struct {
	// Name is the generated placeholder, "@" plus the camel-cased dot path.
	Name string
	// Path is the document path with array indices in bracket form.
	Path string
	// Value is the leaf value.
	Value any
}

// Flatten walks a nested object and returns one entry per leaf. At each level
// leaves come first in key order, followed by the contents of nested objects.
// Structs are read through their JSON form. A scalar argument yields nothing.
func Flatten(obj any) []Entry {
	tree := normalize(obj)
	if !isContainer(tree) {
		return nil
	}
	var out []Entry
	flatten(tree, nil, &out)
	return out
}

func flatten(node any, prefix []string, out *[]Entry) {
	keys, values := children(node)
	var nested []int
	for i, v := range values {
		if isContainer(v) {
			nested = append(nested, i)
			continue
		}
		segs := appendSeg(prefix, keys[i])
		*out = append(*out, Entry{
			Name:  "@" + CamelCase(strings.Join(segs, ".")),
			Path:  JoinPath(segs),
			Value: v,
		})
	}
	for _, i := range nested {
		flatten(values[i], appendSeg(prefix, keys[i]), out)
	}
}

func appendSeg(prefix []string, seg string) []string {
	out := make([]string, len(prefix), len(prefix)+1)
	copy(out, prefix)
	return append(out, seg)
}

// JoinPath joins path segments with dots, writing numeric segments as
// bracketed array indices.
func JoinPath(segs []string) string {
	var sb strings.Builder
	for i, s := range segs {
		if isIndex(s) && i > 0 {
			sb.WriteString("[" + s + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalize converts structs and pointers to their JSON tree form so that the
// walk only deals with maps, slices and scalars.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return rv.Interface()
	}
	raw, err := json.Marshal(rv.Interface())
	if err != nil {
		return rv.Interface()
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return rv.Interface()
	}
	return tree
}

func isContainer(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []byte:
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map:
		return reflect.TypeOf(v).Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array:
		return true
	case reflect.Struct, reflect.Pointer:
		return isContainer(normalize(v))
	}
	return false
}

// children returns the keys and normalized values of a map (sorted by key)
// or slice (by index).
func children(node any) ([]string, []any) {
	node = normalize(node)
	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Map:
		byKey := make(map[string]any, rv.Len())
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			keys = append(keys, k)
			byKey[k] = iter.Value().Interface()
		}
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = normalize(byKey[k])
		}
		return keys, values
	case reflect.Slice, reflect.Array:
		keys := make([]string, rv.Len())
		values := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			keys[i] = strconv.Itoa(i)
			values[i] = normalize(rv.Index(i).Interface())
		}
		return keys, values
	}
	return nil, nil
}

// CamelCase converts s to a lower camel-case identifier. Words are split on
// non-alphanumeric runs, lower-to-upper transitions, acronym boundaries and
// letter/digit boundaries: "a.b.0" becomes "aB0" and "HTTPServer_id"
// becomes "httpServerId".
func CamelCase(s string) string {
	words := splitWords(s)
	title := cases.Title(language.Und)
	var sb strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			w = title.String(w)
		}
		sb.WriteString(w)
	}
	return sb.String()
}

func splitWords(s string) []string {
	var words []string
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsDigit(r) != unicode.IsDigit(prev):
			flush(i)
			start = i
		case unicode.IsLower(prev) && unicode.IsUpper(r):
			flush(i)
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}
