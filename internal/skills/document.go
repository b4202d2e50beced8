// Package skills loads the skill catalog from disk: the categories document,
// the set of identifiers a skill may extend, and the skill documents themselves.
package skills

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrNotObject is returned for documents that are valid JSON but not an object.
var ErrNotObject = errors.New("document is not a JSON object")

// Document is one parsed skill document.
type Document struct {
	Path string
	// Name is empty when the field is absent, null, or falsy.
	Name string
	// Extends holds every declared parent. A string value yields one entry;
	// an array yields its elements. Nil when the field is absent or empty.
	Extends []string
	// Raw is the document as read from disk.
	Raw []byte

	category gjson.Result
}

// ParseDocument parses a skill document. The returned error carries the JSON
// syntax error text, or ErrNotObject for non-object documents.
func ParseDocument(path string, data []byte) (*Document, error) {
	// gjson does not report where a document is malformed, so syntax errors
	// come from encoding/json.
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, ErrNotObject
	}

	doc := &Document{
		Path:     path,
		Raw:      data,
		category: field(res, "category"),
	}
	if name := field(res, "name"); isSet(name) {
		doc.Name = text(name)
	}
	doc.Extends = extendsValues(field(res, "extends"))
	return doc, nil
}

// field returns the last value stored under key in obj. gjson's Get returns
// the first; repeated keys must resolve the way encoding/json resolves them.
func field(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			out = v
		}
		return true
	})
	return out
}

// Category reports the document's category field. present is false when the
// field does not exist; isString is false for non-string values.
func (d *Document) Category() (value string, isString, present bool) {
	if !d.category.Exists() {
		return "", false, false
	}
	if d.category.Type != gjson.String {
		return d.category.Raw, false, true
	}
	return d.category.Str, true, true
}

// isSet mirrors JSON truthiness: null, false, 0, "", [] and {} are unset.
func isSet(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	default:
		return true
	}
}

// text returns a string value as-is and anything else as its JSON text.
func text(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

func extendsValues(r gjson.Result) []string {
	if !isSet(r) {
		return nil
	}
	if !r.IsArray() {
		return []string{text(r)}
	}
	var out []string
	for _, item := range r.Array() {
		if isSet(item) {
			out = append(out, text(item))
		}
	}
	return out
}
