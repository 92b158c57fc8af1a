package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/sadopc/treq/internal/core/request"
)

type itemKind int

const (
	itemHeader  itemKind = iota // Key:Value
	itemQuery                   // key==value
	itemField                   // key=value, a JSON string field
	itemRawJSON                 // key:=value, a raw JSON field
)

type item struct {
	kind  itemKind
	key   string
	value string
}

// separators are tried longest first so "==" wins over "=" at the same offset.
var separators = []struct {
	sep  string
	kind itemKind
}{
	{"==", itemQuery},
	{":=", itemRawJSON},
	{"=", itemField},
	{":", itemHeader},
}

// isItem reports whether arg looks like a request item rather than a name.
func isItem(arg string) bool {
	return strings.ContainsAny(arg, ":=")
}

// parseItem splits arg at its earliest separator.
func parseItem(arg string) (item, error) {
	best, bestAt := -1, len(arg)
	for i, s := range separators {
		if at := strings.Index(arg, s.sep); at >= 0 && at < bestAt {
			best, bestAt = i, at
		}
	}
	if best < 0 {
		return item{}, usageErrorf("invalid request item %q", arg)
	}
	s := separators[best]
	key := arg[:bestAt]
	if key == "" {
		return item{}, usageErrorf("request item %q has an empty key", arg)
	}
	return item{kind: s.kind, key: key, value: arg[bestAt+len(s.sep):]}, nil
}

func parseItems(args []string) ([]item, error) {
	items := make([]item, 0, len(args))
	for _, arg := range args {
		it, err := parseItem(arg)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func hasBodyItems(items []item) bool {
	for _, it := range items {
		if it.kind == itemField || it.kind == itemRawJSON {
			return true
		}
	}
	return false
}

// applyItems folds items into d. Body fields merge into an existing JSON
// object body and replace anything else.
func applyItems(d *request.Data, items []item) error {
	fields := map[string]any{}
	for _, it := range items {
		switch it.kind {
		case itemHeader:
			// An empty value removes the header.
			deleteHeader(d, it.key)
			if it.value != "" {
				d.SetHeader(it.key, it.value)
			}
		case itemQuery:
			d.URL.AddQuery(it.key, it.value)
		case itemField:
			fields[it.key] = it.value
		case itemRawJSON:
			var v any
			if err := json.Unmarshal([]byte(it.value), &v); err != nil {
				return usageErrorf("field %s: invalid JSON %q", it.key, it.value)
			}
			fields[it.key] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}

	var body map[string]any
	if d.Body != "" {
		if err := json.Unmarshal([]byte(d.Body), &body); err != nil {
			body = nil
		}
	}
	// A JSON null decodes to a nil map.
	if body == nil {
		body = map[string]any{}
	}
	maps.Copy(body, fields)
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	d.Body = string(data)
	if !hasHeader(d, "Content-Type") {
		d.SetHeader("Content-Type", "application/json")
	}
	return nil
}

func hasHeader(d *request.Data, key string) bool {
	for k := range d.Headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func deleteHeader(d *request.Data, key string) {
	for k := range d.Headers {
		if strings.EqualFold(k, key) {
			delete(d.Headers, k)
		}
	}
}
