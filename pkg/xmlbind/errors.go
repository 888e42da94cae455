package xmlbind

import (
	"fmt"
	"strings"
)

// FieldError reports one field that could not be bound or that failed a
// validation rule. Path is the dotted location within the record, with list
// elements indexed, e.g. "connectorMessages.entry[1].chainId".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationError aggregates every field failure found while binding one
// document. Decoders collect failures instead of stopping at the first, so
// a caller sees the full set of problems in a payload at once.
type ValidationError struct {
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual field errors so errors.As can reach their
// causes.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}

// MapEncodingError reports an entry-encoded hashmap element whose shape
// violates the one-or-two-children entry encoding.
type MapEncodingError struct {
	Reason string
}

func (e *MapEncodingError) Error() string {
	return "map encoding: " + e.Reason
}
