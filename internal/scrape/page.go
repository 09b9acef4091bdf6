package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const defaultItemsField = "items"

// PageResult is one fetched page. An empty Cursor means the feed is
// exhausted.
type PageResult struct {
	Items  []RawItem
	Cursor string
}

// ParsePage decodes a provider response body. Object bodies yield the
// schema's items array and cursor. Array bodies yield their elements and no
// cursor. Nested arrays are flattened one level and non-object elements are
// dropped. Any other JSON value is an empty page.
func ParsePage(body []byte, schema Schema) (PageResult, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return PageResult{}, fmt.Errorf("decode page: %w", err)
	}
	return PageFromValue(v, schema), nil
}

// PageFromValue builds a page from an already decoded body.
func PageFromValue(v any, schema Schema) PageResult {
	switch body := v.(type) {
	case map[string]any:
		field := schema.ItemsField
		if field == "" {
			field = defaultItemsField
		}
		return PageResult{
			Items:  flatten(body[field]),
			Cursor: schema.cursor(body),
		}
	case []any:
		return PageResult{Items: flatten(body)}
	default:
		return PageResult{}
	}
}

func flatten(v any) []RawItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]RawItem, 0, len(list))
	for _, el := range list {
		switch x := el.(type) {
		case map[string]any:
			items = append(items, RawItem(x))
		case []any:
			for _, inner := range x {
				if m, ok := inner.(map[string]any); ok {
					items = append(items, RawItem(m))
				}
			}
		}
	}
	return items
}

func (s Schema) cursor(body map[string]any) string {
	if s.HasMoreField != "" {
		if more, ok := body[s.HasMoreField].(bool); ok && !more {
			return ""
		}
	}
	for _, key := range s.CursorFields {
		switch c := body[key].(type) {
		case string:
			if c != "" {
				return c
			}
		case json.Number:
			if _, err := c.Int64(); err == nil {
				return c.String()
			}
		}
	}
	return ""
}
