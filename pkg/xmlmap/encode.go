package xmlmap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Serialize renders a value as a complete XML document rooted at the given
// element name, prefixed with the standard XML declaration.
//
// The mapping is the inverse of Parse: nil emits a self-closing element,
// strings emit escaped character data, "@"-prefixed Object keys emit
// attributes (attribute values must be strings), the "#text" key emits
// character data, and a List emits one sibling element per item. A List at
// the document root or directly inside another List cannot be represented
// and fails, as does any value outside the Value universe.
func Serialize(root string, v Value) (string, error) {
	if _, isList := v.(List); isList {
		return "", fmt.Errorf("cannot serialize a list as document element %q", root)
	}
	var sb strings.Builder
	sb.WriteString(xml.Header)
	if err := writeElement(&sb, root, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeElement(sb *strings.Builder, name string, v Value) error {
	if err := checkName(name); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		sb.WriteString("<" + name + "/>")
	case string:
		sb.WriteString("<" + name + ">")
		if err := xml.EscapeText(sb, []byte(t)); err != nil {
			return err
		}
		sb.WriteString("</" + name + ">")
	case List:
		for _, item := range t {
			if _, nested := item.(List); nested {
				return fmt.Errorf("element %q: nested lists cannot be represented in XML", name)
			}
			if err := writeElement(sb, name, item); err != nil {
				return err
			}
		}
	case *Object:
		return writeObject(sb, name, t)
	default:
		return fmt.Errorf("element %q: unsupported value type %T", name, v)
	}
	return nil
}

func writeObject(sb *strings.Builder, name string, o *Object) error {
	sb.WriteString("<" + name)
	hasChildren := false
	for _, key := range o.keys {
		if !strings.HasPrefix(key, AttrPrefix) {
			hasChildren = true
			continue
		}
		v := o.values[key]
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("element %q: attribute %q must be a string, got %T", name, key, v)
		}
		attr := strings.TrimPrefix(key, AttrPrefix)
		if err := checkName(attr); err != nil {
			return fmt.Errorf("element %q: invalid attribute name %q", name, attr)
		}
		sb.WriteString(" " + attr + `="`)
		if err := xml.EscapeText(sb, []byte(s)); err != nil {
			return err
		}
		sb.WriteString(`"`)
	}
	if !hasChildren {
		sb.WriteString("/>")
		return nil
	}

	sb.WriteString(">")
	for _, key := range o.keys {
		if strings.HasPrefix(key, AttrPrefix) {
			continue
		}
		v := o.values[key]
		if key == TextKey {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("element %q: %s must be a string, got %T", name, TextKey, v)
			}
			if err := xml.EscapeText(sb, []byte(s)); err != nil {
				return err
			}
			continue
		}
		if err := writeElement(sb, key, v); err != nil {
			return err
		}
	}
	sb.WriteString("</" + name + ">")
	return nil
}

// checkName rejects element and attribute names that would produce
// unparseable markup.
func checkName(name string) error {
	if name == "" {
		return errors.New("empty element name")
	}
	for i, r := range name {
		switch r {
		case ' ', '\t', '\n', '\r', '<', '>', '&', '"', '\'', '/', '=':
			return fmt.Errorf("invalid element name %q", name)
		}
		if i == 0 && (unicode.IsDigit(r) || r == '-' || r == '.') {
			return fmt.Errorf("invalid element name %q", name)
		}
	}
	return nil
}
