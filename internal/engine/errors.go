package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/microstore/internal/ir"
)

// PushErrorCode categorizes push failures.
type PushErrorCode string

const (
	// ErrCodeInterpretFailed indicates the interpreter rejected the payload.
	ErrCodeInterpretFailed PushErrorCode = "INTERPRET_FAILED"

	// ErrCodeMissingPrimaryKey indicates a row without a string primary key value.
	ErrCodeMissingPrimaryKey PushErrorCode = "MISSING_PRIMARY_KEY"

	// ErrCodeSerializeFailed indicates a field transform failed on write.
	ErrCodeSerializeFailed PushErrorCode = "SERIALIZE_FAILED"

	// ErrCodeStoreFailed indicates the store rejected a write.
	ErrCodeStoreFailed PushErrorCode = "STORE_FAILED"

	// ErrCodeRecordTransformFailed indicates a record transform failed on write.
	ErrCodeRecordTransformFailed PushErrorCode = "RECORD_TRANSFORM_FAILED"
)

// PushError describes why a push stopped. Rows written before the failure
// stay written.
type PushError struct {
	Code PushErrorCode

	// Type is the entity type, empty for interpreter failures.
	Type string

	Method ir.Method

	// RowID is the primary key value, when known.
	RowID string

	Err error
}

// Error implements the error interface.
func (e *PushError) Error() string {
	switch {
	case e.Type != "" && e.RowID != "":
		return fmt.Sprintf("%s: %s %s/%s: %v", e.Code, e.Method, e.Type, e.RowID, e.Err)
	case e.Type != "":
		return fmt.Sprintf("%s: %s %s: %v", e.Code, e.Method, e.Type, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Method, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *PushError) Unwrap() error {
	return e.Err
}

// IsPushError reports whether err is a PushError with the given code.
// Uses errors.As to handle wrapped errors.
func IsPushError(err error, code PushErrorCode) bool {
	var pe *PushError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
