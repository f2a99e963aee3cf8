package input

import (
	"encoding/json"
	"strings"
)

// ListKind records which interpretation produced a decoded list.
type ListKind int

const (
	ListEmpty ListKind = iota
	ListJSONArray
	ListDelimited
	ListLiteral
)

func (k ListKind) String() string {
	switch k {
	case ListJSONArray:
		return "json-array"
	case ListDelimited:
		return "delimited"
	case ListLiteral:
		return "literal"
	}
	return "empty"
}

// List is a decoded multi-value form field.
type List struct {
	Kind  ListKind
	Items []string
}

// Precedence is the ordered set of interpretations tried after JSON.
// A JSON array always wins when the raw value parses as one.
type Precedence int

const (
	// JSONThenDelimited splits on commas when the value is not a JSON array.
	// Used for feature tags.
	JSONThenDelimited Precedence = iota
	// JSONThenLiteral keeps the value whole when it is not a JSON array.
	// Used for image URLs, which may legitimately contain commas. The result
	// is an ordered list and repeats are kept.
	JSONThenLiteral
)

// DecodeList interprets raw as a JSON string array, falling back per p.
// Items are trimmed and empty items dropped. Under JSONThenDelimited the
// result is a set: duplicates are removed keeping the first occurrence. Decoding never fails; unparseable input degrades to the
// fallback interpretation.
func DecodeList(raw string, p Precedence) List {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return List{Kind: ListEmpty}
	}

	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			items := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					items = append(items, s)
				}
			}
			return List{Kind: ListJSONArray, Items: clean(items, p)}
		}
	}

	if p == JSONThenDelimited {
		return List{Kind: ListDelimited, Items: clean(strings.Split(raw, ","), p)}
	}
	return List{Kind: ListLiteral, Items: []string{raw}}
}

// MergeLists concatenates the values of several fields in order, decoding
// each one with p.
func MergeLists(p Precedence, raws ...string) []string {
	var out []string
	for _, raw := range raws {
		out = append(out, DecodeList(raw, p).Items...)
	}
	return clean(out, p)
}

func clean(items []string, p Precedence) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || (p == JSONThenDelimited && seen[item]) {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
