package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("user is not authorized")
	ErrRowNotFound  = errors.New("row not found")
)

type ValidationReason string

const (
	MissingRequiredField ValidationReason = "MissingRequiredField"
	NoContactChannel     ValidationReason = "NoContactChannel"
	InvalidPhoneFormat   ValidationReason = "InvalidPhoneFormat"
	InvalidEmailFormat   ValidationReason = "InvalidEmailFormat"
)

// ValidationError rejects intake text. Always recoverable: the user re-sends.
type ValidationError struct {
	Reason ValidationReason
	Field  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + string(e.Reason)
	}
	return fmt.Sprintf("validation: %s (%s)", e.Reason, e.Field)
}

// ProtocolError is a malformed or unknown button payload.
type ProtocolError struct {
	Data   string
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s: %q", e.Detail, e.Data)
}

// StoreError wraps a failed record store operation.
type StoreError struct {
	Op  string
	Row int
	Err error
}

func (e *StoreError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("store %s row %d: %v", e.Op, e.Row, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
