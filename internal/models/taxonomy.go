// internal/models/taxonomy.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Taxonomy maps an intent or entity name to its human-readable description.
type Taxonomy map[string]string

var errNullTaxonomy = errors.New("taxonomy must be a JSON object, got null")

// ParseTaxonomy decodes operator-supplied text. The text must be a JSON
// object whose values are all strings.
func ParseTaxonomy(raw string) (Taxonomy, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input, expected a JSON object")
		}
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the JSON object")
	}
	if values == nil {
		return nil, errNullTaxonomy
	}

	t := make(Taxonomy, len(values))
	for name, v := range values {
		desc, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("description for %q must be a string, got %T", name, v)
		}
		t[name] = desc
	}
	return t, nil
}

// TaxonomyText returns the JSON text of a taxonomy supplied either as a
// JSON object or as a JSON string that holds the object.
func TaxonomyText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return text
		}
	}
	return string(trimmed)
}

// Names returns the taxonomy keys in sorted order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders one "- name: description" line per entry.
func (t Taxonomy) Describe() string {
	lines := make([]string, 0, len(t))
	for _, name := range t.Names() {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, t[name]))
	}
	return strings.Join(lines, "\n")
}

// EncodeJSON serializes v without HTML escaping; non-ASCII text is kept as is.
func EncodeJSON(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
