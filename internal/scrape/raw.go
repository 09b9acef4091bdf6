package scrape

import (
	"encoding/json"
	"math"
	"strconv"
)

// RawItem is one provider record exactly as decoded from JSON. Stages read
// it through a Schema and never mutate it.
type RawItem map[string]any

// Field is a key path into a RawItem, outermost key first.
type Field []string

// Schema tells the pipeline where a provider keeps each piece of a record.
// Fields listed in a slice are tried in order and the first usable value
// wins.
type Schema struct {
	// ItemsField names the array of records in an object page body.
	ItemsField string
	// CursorFields are the continuation token keys of an object page body.
	CursorFields []string
	// HasMoreField, when present in a page and false, ends pagination even
	// if a cursor is set.
	HasMoreField string

	ID            Field
	Author        Field
	Timestamps    []Field
	Plays         []Field
	Likes         []Field
	Comments      []Field
	MetricsHidden Field

	// AuthorFollowers and Region are optional author and place details some
	// providers embed in each record.
	AuthorFollowers []Field
	Region          Field

	// Permalink builds the canonical URL of a record.
	Permalink func(id, author string) string
	// ProfileLink builds the URL of the author's profile.
	ProfileLink func(author string) string
}

const unknownAuthor = "unknown"

func (it RawItem) lookup(f Field) (any, bool) {
	var cur any = map[string]any(it)
	for _, key := range f {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// integer converts an integral JSON value. Floats and booleans are rejected.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	}
	return 0, false
}

// numeric converts any JSON number, truncating fractions.
func numeric(v any) (int64, bool) {
	if i, ok := integer(v); ok {
		return i, true
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (s Schema) id(it RawItem) (string, bool) {
	v, ok := it.lookup(s.ID)
	if !ok {
		return "", false
	}
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		if _, err := id.Int64(); err == nil {
			return id.String(), true
		}
	case int, int64:
		i, _ := integer(id)
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

func (s Schema) author(it RawItem) string {
	if v, ok := it.lookup(s.Author); ok {
		if name, ok := v.(string); ok && name != "" {
			return name
		}
	}
	return unknownAuthor
}

// timestamp returns the first strictly positive creation time.
func (s Schema) timestamp(it RawItem) (int64, bool) {
	for _, f := range s.Timestamps {
		v, ok := it.lookup(f)
		if !ok {
			continue
		}
		if ts, ok := numeric(v); ok && ts > 0 {
			return ts, true
		}
	}
	return 0, false
}

// counter returns the first integral value among fields, clamped at zero.
func counter(it RawItem, fields []Field) int64 {
	for _, f := range fields {
		v, ok := it.lookup(f)
		if !ok {
			continue
		}
		if n, ok := integer(v); ok {
			return max(n, 0)
		}
	}
	return 0
}

func (s Schema) plays(it RawItem) int64    { return counter(it, s.Plays) }
func (s Schema) likes(it RawItem) int64    { return counter(it, s.Likes) }
func (s Schema) comments(it RawItem) int64 { return counter(it, s.Comments) }

func (s Schema) authorFollowers(it RawItem) int64 { return counter(it, s.AuthorFollowers) }

func (s Schema) region(it RawItem) string {
	if len(s.Region) == 0 {
		return ""
	}
	v, _ := it.lookup(s.Region)
	name, _ := v.(string)
	return name
}

func (s Schema) metricsHidden(it RawItem) bool {
	if len(s.MetricsHidden) == 0 {
		return false
	}
	v, _ := it.lookup(s.MetricsHidden)
	hidden, _ := v.(bool)
	return hidden
}
