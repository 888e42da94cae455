// Package xmlmap converts XML documents to and from a generic, ordered
// key/value representation.
//
// The representation mirrors the wire conventions of XML-first APIs rather
// than Go struct tags: element order is preserved, attributes are stored
// under "@"-prefixed keys, character data that shares an element with
// attributes or children is stored under the "#text" key, and an element
// that repeats under one parent collects into a List. A single occurrence
// stays a bare value unless its name is registered as force-list at parse
// time, which is how callers resolve the inherent one-versus-many ambiguity
// of XML collections.
package xmlmap

const (
	// AttrPrefix marks attribute keys within an Object.
	AttrPrefix = "@"
	// TextKey holds character data for elements that also carry attributes
	// or child elements.
	TextKey = "#text"
)

// A Value is the decoded content of one XML element. It is always one of:
//
//	nil     - an empty element
//	string  - character data only
//	*Object - an element with attributes and/or child elements
//	List    - repeated sibling elements collected under one name
type Value interface{}

// List holds the values of repeated sibling elements in document order.
type List []Value

// Object is an insertion-ordered map of element names to values. The zero
// value is not usable; create instances with NewObject.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Len reports the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the element names in insertion order. The returned slice is
// a copy and safe for the caller to modify.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Get returns the value stored under key and whether the key is present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set stores a value, appending the key if it is new and keeping its
// original position otherwise.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// addChild attaches a decoded child element, collecting repeated names into
// a List. Names registered as force-list become a List from their first
// occurrence.
func (o *Object) addChild(name string, v Value, forceList bool) {
	existing, ok := o.values[name]
	if !ok {
		if forceList {
			o.Set(name, List{v})
			return
		}
		o.Set(name, v)
		return
	}
	if l, isList := existing.(List); isList {
		o.values[name] = append(l, v)
		return
	}
	o.values[name] = List{existing, v}
}

// Equal reports deep structural equality of two values. Key order within
// Objects is significant, matching what Parse produces for a given document.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av == nil || bv == nil || av.Len() != bv.Len() {
			return false
		}
		for i, key := range av.keys {
			if bv.keys[i] != key {
				return false
			}
			if !Equal(av.values[key], bv.values[key]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
