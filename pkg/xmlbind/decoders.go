// Package xmlbind binds the generic XML representation produced by
// pkg/xmlmap to typed records.
//
// It has two halves. The pure decoders (AsList, EpochMillis,
// FlattenStringMap) translate the wire's recurring micro-formats: the
// one-versus-many ambiguity of repeated elements, epoch-millisecond
// timestamp elements, and entry-encoded hashmaps. The Doc cursor walks a
// parsed document binding fields, and instead of stopping at the first
// problem it accumulates a FieldError per failure so a single pass reports
// everything wrong with a payload.
package xmlbind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
)

// AsList normalizes the three wire cardinalities of a child element: absent
// yields an empty list, a single occurrence yields a one-element list, and
// a repeated occurrence yields the list itself.
func AsList(v xmlmap.Value) xmlmap.List {
	switch t := v.(type) {
	case nil:
		return xmlmap.List{}
	case xmlmap.List:
		return t
	default:
		return xmlmap.List{v}
	}
}

// EpochMillis decodes the engine's timestamp element, an object holding the
// epoch offset in milliseconds under "time" alongside a timezone name, into
// a UTC instant. The timezone element is ignored; the offset is absolute.
// A bare numeric string is also accepted, as older servers inline the epoch
// without the wrapper element.
func EpochMillis(v xmlmap.Value) (time.Time, error) {
	var raw string
	switch t := v.(type) {
	case nil:
		return time.Time{}, errors.New("timestamp element is empty")
	case string:
		raw = t
	case *xmlmap.Object:
		inner, ok := t.Get("time")
		if !ok {
			return time.Time{}, errors.New("timestamp element has no time value")
		}
		s, err := scalarText(inner)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp time value: %w", err)
		}
		raw = s
	default:
		return time.Time{}, fmt.Errorf("timestamp element has unexpected shape %T", v)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not epoch milliseconds", raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// FlattenStringMap decodes an entry-encoded hashmap element into a flat
// string map. Each entry carries its pair in one of two shapes: two child
// elements where a "string"-tagged key precedes the value element, or a
// single "string" tag holding exactly two text values. An absent element
// decodes to an empty, non-nil map; later entries overwrite earlier keys.
func FlattenStringMap(v xmlmap.Value) (map[string]string, error) {
	out := make(map[string]string)
	var entries xmlmap.List
	switch t := v.(type) {
	case nil:
		return out, nil
	case string:
		return nil, &MapEncodingError{Reason: fmt.Sprintf("expected map entries, found text %q", t)}
	case xmlmap.List:
		entries = t
	case *xmlmap.Object:
		if inner, ok := t.Get("entry"); ok {
			entries = AsList(inner)
		} else if hasElementKeys(t) {
			entries = xmlmap.List{t}
		}
	}
	for _, entry := range entries {
		if err := flattenEntry(entry, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// flattenEntry folds one map entry into out. A nil entry carries no pair
// and is skipped.
func flattenEntry(v xmlmap.Value, out map[string]string) error {
	if v == nil {
		return nil
	}
	obj, ok := v.(*xmlmap.Object)
	if !ok {
		return &MapEncodingError{Reason: fmt.Sprintf("entry has unexpected shape %T", v)}
	}
	var names []string
	for _, key := range obj.Keys() {
		if !strings.HasPrefix(key, xmlmap.AttrPrefix) {
			names = append(names, key)
		}
	}

	switch len(names) {
	case 0:
		return nil

	case 1:
		if names[0] != "string" {
			return &MapEncodingError{Reason: fmt.Sprintf("single-tag entry must use a string key, found %q", names[0])}
		}
		pair, _ := obj.Get("string")
		values := AsList(pair)
		if len(values) != 2 {
			return &MapEncodingError{Reason: fmt.Sprintf("single-tag entry must hold exactly two values, found %d", len(values))}
		}
		key, err := scalarText(values[0])
		if err != nil {
			return &MapEncodingError{Reason: "entry key is not text"}
		}
		value, err := scalarText(values[1])
		if err != nil {
			return &MapEncodingError{Reason: fmt.Sprintf("value for key %q is not text", key)}
		}
		out[key] = value

	case 2:
		if names[0] != "string" {
			return &MapEncodingError{Reason: fmt.Sprintf("entry key must be string-tagged, found %q", names[0])}
		}
		rawKey, _ := obj.Get(names[0])
		key, err := scalarText(rawKey)
		if err != nil {
			return &MapEncodingError{Reason: "entry key is not text"}
		}
		rawValue, _ := obj.Get(names[1])
		value, err := scalarText(rawValue)
		if err != nil {
			return &MapEncodingError{Reason: fmt.Sprintf("value for key %q is not text", key)}
		}
		out[key] = value

	default:
		return &MapEncodingError{Reason: fmt.Sprintf("entry holds %d child elements, at most two are allowed", len(names))}
	}
	return nil
}

// scalarText extracts the text of a scalar element, treating an empty
// element as the empty string.
func scalarText(v xmlmap.Value) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case xmlmap.List:
		return "", errors.New("expected a single value, found a list")
	default:
		return "", fmt.Errorf("expected text, found %T", v)
	}
}

// hasElementKeys reports whether the object carries any child elements, as
// opposed to attributes only.
func hasElementKeys(o *xmlmap.Object) bool {
	for _, key := range o.Keys() {
		if !strings.HasPrefix(key, xmlmap.AttrPrefix) {
			return true
		}
	}
	return false
}
