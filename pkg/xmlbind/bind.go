package xmlbind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
)

var errMissing = errors.New("required value is missing")

// Doc is a cursor over a parsed document used to bind typed records. Field
// getters return zero values on failure and record a FieldError against a
// shared accumulator instead of aborting, so one binding pass collects
// every problem in the payload. Check Err after binding.
type Doc struct {
	val  xmlmap.Value
	path string
	errs *ValidationError
}

// NewDoc roots a cursor at a parsed document. When rootElement is non-empty
// and present as the document's sole top-level key, the envelope is
// unwrapped; otherwise the value is bound as-is, which keeps decoding
// usable for payloads delivered without their envelope.
func NewDoc(v xmlmap.Value, rootElement string) *Doc {
	d := &Doc{val: v, errs: &ValidationError{}}
	if rootElement == "" {
		return d
	}
	obj, ok := v.(*xmlmap.Object)
	if !ok || obj.Len() != 1 {
		return d
	}
	if inner, found := obj.Get(rootElement); found {
		d.val = inner
	}
	return d
}

// Err returns the accumulated validation failures, or nil when every getter
// succeeded.
func (d *Doc) Err() error {
	if len(d.errs.Fields) == 0 {
		return nil
	}
	return d.errs
}

// AddFieldError records a failure against a named field. Record decoders
// also use it to fold rule violations found after binding into the same
// error shape.
func (d *Doc) AddFieldError(name string, err error) {
	d.errs.Fields = append(d.errs.Fields, &FieldError{Path: d.join(name), Err: err})
}

func (d *Doc) join(name string) string {
	if d.path == "" {
		return name
	}
	if name == "" {
		return d.path
	}
	return d.path + "." + name
}

func (d *Doc) descend(v xmlmap.Value, name string) *Doc {
	return &Doc{val: v, path: d.join(name), errs: d.errs}
}

// lookup resolves a child element by name. A missing key or a non-object
// current value both read as absent.
func (d *Doc) lookup(name string) (xmlmap.Value, bool) {
	obj, ok := d.val.(*xmlmap.Object)
	if !ok {
		return nil, false
	}
	return obj.Get(name)
}

// String binds a required text field. An absent or empty element is an
// error; an element holding whitespace only binds to the empty string.
func (d *Doc) String(name string) string {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		d.AddFieldError(name, errMissing)
		return ""
	}
	s, err := scalarText(v)
	if err != nil {
		d.AddFieldError(name, err)
		return ""
	}
	return s
}

// StringOpt binds an optional text field; absent and empty elements yield
// nil.
func (d *Doc) StringOpt(name string) *string {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		return nil
	}
	s, err := scalarText(v)
	if err != nil {
		d.AddFieldError(name, err)
		return nil
	}
	return &s
}

func (d *Doc) integer(name string, bitSize int) int64 {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		d.AddFieldError(name, errMissing)
		return 0
	}
	s, err := scalarText(v)
	if err != nil {
		d.AddFieldError(name, err)
		return 0
	}
	n, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		d.AddFieldError(name, fmt.Errorf("value %q is not an integer", s))
		return 0
	}
	return n
}

// Int binds a required integer field.
func (d *Doc) Int(name string) int {
	return int(d.integer(name, 0))
}

// Int64 binds a required 64-bit integer field.
func (d *Doc) Int64(name string) int64 {
	return d.integer(name, 64)
}

// Bool binds a required boolean field.
func (d *Doc) Bool(name string) bool {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		d.AddFieldError(name, errMissing)
		return false
	}
	s, err := scalarText(v)
	if err != nil {
		d.AddFieldError(name, err)
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		d.AddFieldError(name, fmt.Errorf("value %q is not a boolean", s))
		return false
	}
	return b
}

// UUID binds a required UUID field.
func (d *Doc) UUID(name string) uuid.UUID {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		d.AddFieldError(name, errMissing)
		return uuid.Nil
	}
	s, err := scalarText(v)
	if err != nil {
		d.AddFieldError(name, err)
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		d.AddFieldError(name, fmt.Errorf("value %q is not a UUID", s))
		return uuid.Nil
	}
	return id
}

// Time binds a required engine timestamp field.
func (d *Doc) Time(name string) time.Time {
	v, ok := d.lookup(name)
	if !ok {
		d.AddFieldError(name, errMissing)
		return time.Time{}
	}
	ts, err := EpochMillis(v)
	if err != nil {
		d.AddFieldError(name, err)
		return time.Time{}
	}
	return ts
}

// TimeOpt binds an optional engine timestamp field.
func (d *Doc) TimeOpt(name string) *time.Time {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		return nil
	}
	ts, err := EpochMillis(v)
	if err != nil {
		d.AddFieldError(name, err)
		return nil
	}
	return &ts
}

// StringMap binds an entry-encoded hashmap field; absent decodes to an
// empty, non-nil map.
func (d *Doc) StringMap(name string) map[string]string {
	v, _ := d.lookup(name)
	m, err := FlattenStringMap(v)
	if err != nil {
		d.AddFieldError(name, err)
		return map[string]string{}
	}
	return m
}

// List binds a repeating child element, normalizing the absent, single and
// repeated wire shapes into cursors over each occurrence.
func (d *Doc) List(name string) []*Doc {
	v, _ := d.lookup(name)
	items := AsList(v)
	out := make([]*Doc, len(items))
	for i, item := range items {
		out[i] = d.descend(item, fmt.Sprintf("%s[%d]", name, i))
	}
	return out
}

// WrappedList binds the wrapper-element convention for nested collections,
// a <channels> wrapper holding repeated <channel> children and so on.
func (d *Doc) WrappedList(name, childName string) []*Doc {
	v, _ := d.lookup(name)
	if v == nil {
		return nil
	}
	return d.descend(v, name).List(childName)
}

// Child descends into an optional nested element, reporting whether it is
// present and non-empty.
func (d *Doc) Child(name string) (*Doc, bool) {
	v, ok := d.lookup(name)
	if !ok || v == nil {
		return nil, false
	}
	return d.descend(v, name), true
}

// IntEntry is one element of a keyed XML map: an integer key and a cursor
// over the value element.
type IntEntry struct {
	Key   int
	Value *Doc
}

// IntEntries binds a keyed map element whose entries each hold an integer
// key element followed by exactly one value element. Absent and empty
// elements yield no entries; malformed entries record a MapEncodingError
// and are skipped.
func (d *Doc) IntEntries(name string) []IntEntry {
	v, _ := d.lookup(name)
	if v == nil {
		return nil
	}
	obj, ok := v.(*xmlmap.Object)
	if !ok {
		d.AddFieldError(name, fmt.Errorf("expected a keyed map element, found %T", v))
		return nil
	}
	raw, _ := obj.Get("entry")
	entries := AsList(raw)
	out := make([]IntEntry, 0, len(entries))
	for i, entry := range entries {
		entryName := fmt.Sprintf("%s.entry[%d]", name, i)
		eObj, ok := entry.(*xmlmap.Object)
		if !ok {
			d.AddFieldError(entryName, &MapEncodingError{Reason: fmt.Sprintf("entry has unexpected shape %T", entry)})
			continue
		}
		var names []string
		for _, key := range eObj.Keys() {
			if !strings.HasPrefix(key, xmlmap.AttrPrefix) {
				names = append(names, key)
			}
		}
		if len(names) == 0 {
			continue
		}
		if len(names) != 2 {
			d.AddFieldError(entryName, &MapEncodingError{Reason: fmt.Sprintf("keyed entry holds %d child elements, exactly two are required", len(names))})
			continue
		}
		rawKey, _ := eObj.Get(names[0])
		keyText, err := scalarText(rawKey)
		if err != nil {
			d.AddFieldError(entryName, &MapEncodingError{Reason: "entry key is not text"})
			continue
		}
		key, err := strconv.Atoi(keyText)
		if err != nil {
			d.AddFieldError(entryName, &MapEncodingError{Reason: fmt.Sprintf("entry key %q is not an integer", keyText)})
			continue
		}
		value, _ := eObj.Get(names[1])
		out = append(out, IntEntry{
			Key:   key,
			Value: d.descend(value, fmt.Sprintf("%s.%s", entryName, names[1])),
		})
	}
	return out
}
