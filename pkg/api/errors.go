package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is not in the
	// coupon table. The quote is left unchanged.
	ErrInvalidCoupon = errors.New("invalid coupon code")

	// ErrQuoteFrozen is returned when a coupon change is attempted
	// while a payment attempt is open.
	ErrQuoteFrozen = errors.New("quote is frozen while payment is in progress")

	// ErrPaymentInFlight is returned when a submission is attempted
	// while another one is still running.
	ErrPaymentInFlight = errors.New("payment attempt already in flight")

	// ErrPaymentCancelled is returned when the applicant dismissed the
	// checkout. No server-side calls were made.
	ErrPaymentCancelled = errors.New("payment cancelled")

	// ErrVerificationFailed is returned when server-side verification
	// rejects the gateway triple. The fan-out must not run.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrConfirmAbandon is returned by Abandon when the draft holds
	// data; the caller must confirm before the draft is discarded.
	ErrConfirmAbandon = errors.New("draft has data: confirm abandon")

	// ErrAlreadySubmitted is returned when the session has already
	// reached a terminal status.
	ErrAlreadySubmitted = errors.New("application already submitted")
)

// ValidationKind tags the reason a field value was rejected.
type ValidationKind string

const (
	KindTooShort         ValidationKind = "too_short"
	KindContainsDigit    ValidationKind = "contains_digit"
	KindContainsSymbol   ValidationKind = "contains_symbol"
	KindMalformedEmail   ValidationKind = "malformed_email"
	KindWrongLength      ValidationKind = "wrong_length"
	KindBadLeadingDigit  ValidationKind = "bad_leading_digit"
	KindNonNumeric       ValidationKind = "non_numeric"
	KindRepeatedDigitRun ValidationKind = "repeated_digit_run"
	KindRequired         ValidationKind = "required"
)

// ValidationError describes why a single field value is invalid.
// Message is suitable for direct display next to the field.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError constructs a ValidationError.
func NewValidationError(kind ValidationKind, message string) error {
	return &ValidationError{Kind: kind, Message: message}
}

// ValidationKindOf returns the kind carried by err, if any.
func ValidationKindOf(err error) (ValidationKind, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Kind, true
	}
	return "", false
}

// StepRejectedError is returned by Advance when the active step's data
// does not pass validation. The wizard stays on the same step.
type StepRejectedError struct {
	Step   Step
	Fields FieldErrors
}

func (e *StepRejectedError) Error() string {
	return fmt.Sprintf("step %s rejected: %d field error(s)", e.Step, len(e.Fields))
}

// DuplicateError reports that a downstream system already holds a
// record for this applicant. Boundary adapters produce it; the fan-out
// coordinator treats it as success for the best-effort systems.
type DuplicateError struct {
	System FanOutSystem
	Detail string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: record already exists: %s", e.System, e.Detail)
}

// IsDuplicate reports whether err signals an already-existing record.
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}

// CompletionError is the fatal post-payment failure: money moved but
// the canonical completion call did not succeed. It must never be
// answered by retrying payment.
type CompletionError struct {
	LeadID          string
	VisaApplicantID string
	Err             error
}

func (e *CompletionError) Error() string {
	return "payment succeeded but application completion failed, contact support: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error { return e.Err }

// IsCompletionFailure reports whether err is the fatal completion-call
// failure, as opposed to a payment failure.
func IsCompletionFailure(err error) bool {
	var c *CompletionError
	return errors.As(err, &c)
}
