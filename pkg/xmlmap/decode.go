package xmlmap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// MalformedXMLError reports a document that could not be decoded at the
// syntax level: truncated input, invalid tokens, bad entity references,
// content outside the document element, or an unreadable encoding.
type MalformedXMLError struct {
	Err error
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed xml: %v", e.Err)
}

func (e *MalformedXMLError) Unwrap() error { return e.Err }

// frame tracks one open element while walking the token stream.
type frame struct {
	name string
	obj  *Object
	text strings.Builder
}

// value reduces a closed element to its decoded form: nil when empty, the
// trimmed character data when text-only, otherwise the accumulated Object
// with any mixed text stored under TextKey.
func (f *frame) value() Value {
	text := strings.TrimSpace(f.text.String())
	if f.obj == nil {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		f.obj.Set(TextKey, text)
	}
	return f.obj
}

// Parse decodes a complete XML document into an Object holding the root
// element name as its only key.
//
// Element character data is whitespace-trimmed. An element with no
// attributes, children or text decodes to nil. Sibling elements sharing a
// name collect into a List; names listed in forceList always decode to a
// List even when they occur once. Attributes become "@"-prefixed keys and
// mixed character data is kept under "#text". Documents declaring a
// non-UTF-8 encoding are transcoded. Namespace prefixes are not preserved;
// elements and attributes are keyed by their local names.
func Parse(data []byte, forceList ...string) (*Object, error) {
	force := make(map[string]struct{}, len(forceList))
	for _, name := range forceList {
		force[name] = struct{}{}
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		stack []*frame
		root  *Object
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedXMLError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, &MalformedXMLError{
					Err: fmt.Errorf("content after document element at offset %d", dec.InputOffset()),
				}
			}
			f := &frame{name: t.Name.Local}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				if f.obj == nil {
					f.obj = NewObject()
				}
				f.obj.Set(AttrPrefix+attr.Name.Local, attr.Value)
			}
			stack = append(stack, f)

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &MalformedXMLError{Err: errors.New("character data outside document element")}
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			val := f.value()
			if len(stack) == 0 {
				root = NewObject()
				root.Set(f.name, val)
				continue
			}
			parent := stack[len(stack)-1]
			if parent.obj == nil {
				parent.obj = NewObject()
			}
			_, forced := force[f.name]
			parent.obj.addChild(f.name, val, forced)
		}
	}

	if len(stack) > 0 {
		return nil, &MalformedXMLError{Err: errors.New("unexpected end of document")}
	}
	if root == nil {
		return nil, &MalformedXMLError{Err: errors.New("no document element")}
	}
	return root, nil
}
