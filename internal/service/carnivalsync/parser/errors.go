package parser

import "fmt"

// ParseErrorKind classifies why a document could not be parsed.
type ParseErrorKind string

const (
	KindUnrecognizedSchema   ParseErrorKind = "unrecognizedSchema"
	KindRequiredFieldMissing ParseErrorKind = "requiredFieldMissing"
	KindIDCollision          ParseErrorKind = "idCollisionInBatch"
)

// Field names reported by requiredFieldMissing.
const (
	FieldMySidelineID = "mySidelineId"
	FieldTitle        = "title"
)

// ParseError fails the whole batch. Field is set for requiredFieldMissing
// and holds the colliding id for idCollisionInBatch.
type ParseError struct {
	Kind   ParseErrorKind
	Field  string
	Detail string
}

func (e *ParseError) Error() string {
	msg := "parse: " + string(e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf("(%s)", e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Warning is a non-fatal problem with one field of one record. The field is
// emitted as nil.
type Warning struct {
	RecordID string
	Field    string
	Detail   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s.%s: %s", w.RecordID, w.Field, w.Detail)
}
