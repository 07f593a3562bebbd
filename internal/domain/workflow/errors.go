package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)

// Step completion outcomes reported back to the caller
var (
	ErrNotFound        = errors.New("user not found")
	ErrUnknownStep     = errors.New("invalid step name")
	ErrOutOfOrder      = errors.New("step out of order")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrMustBeFuture    = errors.New("interview must be scheduled for a future date")
	ErrDateMismatch    = errors.New("interview date mismatch")
	ErrApplicantClosed = errors.New("applicant is no longer in progress")
)

// OutOfOrderError names the step the applicant has to complete first.
// Current is empty once every step is complete.
type OutOfOrderError struct {
	Current   string
	Requested string
}

func (e *OutOfOrderError) Error() string {
	if e.Current == "" {
		return fmt.Sprintf("All steps complete. Cannot complete '%s'.", e.Requested)
	}
	return fmt.Sprintf("You are currently on '%s'. Cannot complete '%s' yet.", e.Current, e.Requested)
}

// Is lets errors.Is match ErrOutOfOrder
func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// Kind is the transport-neutral classification of an error
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindUnknownStep     Kind = "unknown_step"
	KindOutOfOrder      Kind = "out_of_order"
	KindMissingField    Kind = "missing_field"
	KindInvalidFormat   Kind = "invalid_format"
	KindMustBeFuture    Kind = "must_be_future"
	KindDateMismatch    Kind = "date_mismatch"
	KindApplicantClosed Kind = "applicant_closed"
	KindInternal        Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrUnknownStep, KindUnknownStep},
	{ErrOutOfOrder, KindOutOfOrder},
	{ErrMissingField, KindMissingField},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrMustBeFuture, KindMustBeFuture},
	{ErrDateMismatch, KindDateMismatch},
	{ErrApplicantClosed, KindApplicantClosed},
}

// KindOf classifies err. Anything unrecognised is internal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
