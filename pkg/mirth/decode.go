package mirth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/illmade-knight/go-mirth/pkg/xmlbind"
	"github.com/illmade-knight/go-mirth/pkg/xmlmap"
)

// validate checks rule tags on decoded records and request filters. The
// instance is configured once at package load and is safe for concurrent
// use.
var validate = validator.New()

// record is the contract every wire type implements: a root envelope name,
// a binding pass populating the struct from a document cursor, and the
// inverse mapping back to the generic representation.
type record interface {
	rootElement() string
	bind(d *xmlbind.Doc)
	xmlValue() xmlmap.Value
}

// recordPtr constrains decodeInto to pointer receivers over record structs.
type recordPtr[T any] interface {
	*T
	record
}

// decodeInto parses a payload, unwraps the record's envelope, binds every
// field collecting all failures, and applies rule validation only once the
// shape is sound.
func decodeInto[T any, P recordPtr[T]](data []byte, forceList ...string) (*T, error) {
	root, err := xmlmap.Parse(data, forceList...)
	if err != nil {
		return nil, err
	}
	rec := P(new(T))
	doc := xmlbind.NewDoc(root, rec.rootElement())
	rec.bind(doc)
	if err := doc.Err(); err != nil {
		return nil, err
	}
	if err := checkRules(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// encodeRecord renders a record as an XML document under its envelope.
func encodeRecord(rec record) (string, error) {
	return xmlmap.Serialize(rec.rootElement(), rec.xmlValue())
}

// checkRules runs tag-based validation and normalizes failures into the
// same aggregated shape field binding produces.
func checkRules(rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var ruleErrs validator.ValidationErrors
	if !errors.As(err, &ruleErrs) {
		return fmt.Errorf("rule validation: %w", err)
	}
	out := &xmlbind.ValidationError{}
	for _, rule := range ruleErrs {
		out.Fields = append(out.Fields, &xmlbind.FieldError{
			Path: rulePath(rule.Namespace()),
			Err:  fmt.Errorf("value %q failed the %q rule", fmt.Sprint(rule.Value()), rule.Tag()),
		})
	}
	return out
}

// rulePath converts a validator namespace such as "Event.Level" into the
// wire-style path "level".
func rulePath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToLower(part[:1]) + part[1:]
	}
	return strings.Join(parts, ".")
}

// setOpt writes an optional text field, omitting absent values entirely.
func setOpt(o *xmlmap.Object, name string, v *string) {
	if v != nil {
		o.Set(name, *v)
	}
}
