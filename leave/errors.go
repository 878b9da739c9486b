/*
errors.go - Error taxonomy of the leave engine

ERROR CATEGORIES:
  1. Validation violations - collected into a single *ValidationError
     (missing_field, past_date, invalid_range, unknown_leave_type,
     insufficient_balance, non_combinable_overlap)
  2. Decision errors - ErrNotFound, ErrAlreadyDecided, ErrInvalidAction
  3. Store errors - ErrDuplicateRequest, wrapped driver failures

All categories 1 and 2 are normal, recoverable outcomes of user input.
Only a broken invariant on data the engine admitted itself panics.
*/
package leave

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownLeaveType is returned by catalog lookups for unknown codes.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrNotFound is returned when a decision references an unknown request id.
	ErrNotFound = errors.New("leave request not found")

	// ErrAlreadyDecided is returned when a decision targets a non-pending request.
	ErrAlreadyDecided = errors.New("leave request already decided")

	// ErrInvalidAction is returned for decisions other than approve/reject.
	ErrInvalidAction = errors.New("invalid action: must be approve or reject")

	// ErrDuplicateRequest is returned by stores when a request id already exists.
	ErrDuplicateRequest = errors.New("duplicate leave request id")

	// ErrValidation is the target for errors.Is on any *ValidationError.
	ErrValidation = errors.New("leave request rejected")
)

// =============================================================================
// VIOLATIONS
// =============================================================================

type ErrorKind string

const (
	KindMissingField         ErrorKind = "missing_field"
	KindPastDate             ErrorKind = "past_date"
	KindInvalidRange         ErrorKind = "invalid_range"
	KindUnknownLeaveType     ErrorKind = "unknown_leave_type"
	KindInsufficientBalance  ErrorKind = "insufficient_balance"
	KindNonCombinableOverlap ErrorKind = "non_combinable_overlap"
)

// Field names reported by MissingField violations.
const (
	FieldFromDate  = "fromDate"
	FieldToDate    = "toDate"
	FieldLeaveType = "leaveType"
	FieldReason    = "reason"
)

// Violation is one failed check. Field is set for missing_field;
// Available and Requested for insufficient_balance.
type Violation struct {
	Kind      ErrorKind `json:"kind"`
	Field     string    `json:"field,omitempty"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

func MissingField(field string) Violation {
	return Violation{Kind: KindMissingField, Field: field}
}

func InsufficientBalance(available, requested int) Violation {
	return Violation{Kind: KindInsufficientBalance, Available: available, Requested: requested}
}

// MarshalJSON always writes both numbers of an insufficient_balance
// violation, zero included, and leaves them off every other kind.
func (v Violation) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind      ErrorKind `json:"kind"`
		Field     string    `json:"field,omitempty"`
		Available *int      `json:"available,omitempty"`
		Requested *int      `json:"requested,omitempty"`
	}
	out := wire{Kind: v.Kind, Field: v.Field}
	if v.Kind == KindInsufficientBalance {
		out.Available, out.Requested = &v.Available, &v.Requested
	}
	return json.Marshal(out)
}

func (v Violation) String() string {
	switch v.Kind {
	case KindMissingField:
		return fmt.Sprintf("%s(%s)", v.Kind, v.Field)
	case KindInsufficientBalance:
		return fmt.Sprintf("%s(available=%d, requested=%d)", v.Kind, v.Available, v.Requested)
	default:
		return string(v.Kind)
	}
}

// ValidationError carries every violation found for a candidate.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "leave request rejected: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Has reports whether any violation is of the given kind.
func (e *ValidationError) Has(kind ErrorKind) bool {
	_, ok := e.Find(kind)
	return ok
}

// Find returns the first violation of the given kind.
func (e *ValidationError) Find(kind ErrorKind) (Violation, bool) {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return v, true
		}
	}
	return Violation{}, false
}

// Kinds returns the distinct kinds in order of first appearance.
func (e *ValidationError) Kinds() []ErrorKind {
	seen := make(map[ErrorKind]bool)
	var kinds []ErrorKind
	for _, v := range e.Violations {
		if !seen[v.Kind] {
			seen[v.Kind] = true
			kinds = append(kinds, v.Kind)
		}
	}
	return kinds
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrInvalidAction)
}

// IsNotFound returns true if the error indicates a missing request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the request state forbids the operation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyDecided) || errors.Is(err, ErrDuplicateRequest)
}
