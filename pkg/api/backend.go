package api

import (
	"context"

	"github.com/shopspring/decimal"
)

// LeadRequest creates the earliest, minimal identity record once the
// applicant commits to the identity step.
type LeadRequest struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	City       string
	LeadSource string
}

// ApplicantRequest layers the academic-intent record onto a lead.
// LeadID may be empty if the lead call has not resolved yet; the server
// reconciles by contact fields in that case.
type ApplicantRequest struct {
	LeadID string

	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string

	Country    string
	University string
	Course     string
	Intake     string
}

// DocumentUploadRequest uploads the admission letter together with all
// accumulated metadata. Identifier fields may be empty, same as for
// ApplicantRequest.
type DocumentUploadRequest struct {
	LeadID          string
	VisaApplicantID string

	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string

	Country    string
	University string
	Course     string
	Intake     string

	Document DocumentRef
}

// OrderRequest asks the backend to create a payment order with the
// gateway. Amount is the total the applicant was shown, in rupees.
type OrderRequest struct {
	Name        string
	Email       string
	Phone       string
	Amount      decimal.Decimal
	Description string
}

// VerificationRequest carries the gateway success triple plus the
// receipt id from order creation back to the backend for server-side
// verification.
type VerificationRequest struct {
	GatewayOrderID    string
	GatewayPaymentID  string
	Signature         string
	InternalReceiptID string
}

// StudentRegistration provisions an identity record in the student
// platform after payment. An "already exists" response is reported as a
// DuplicateError.
type StudentRegistration struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	DomainURL string
}

// ContactInvite creates or invites a CRM contact after payment.
// A duplicate-contact response is reported as a DuplicateError.
type ContactInvite struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	UserTypeID string
}

// Backend is the set of remote calls the pipeline depends on.
//
// Implementations must translate each remote system's duplicate
// condition into a DuplicateError so callers never match on message
// text. All other failures are returned as ordinary errors; the
// pipeline decides per call site whether they are fatal.
type Backend interface {
	// CreateLead registers a new lead and returns its id.
	CreateLead(ctx context.Context, req LeadRequest) (leadID string, err error)

	// UpsertApplicant creates or updates the visa applicant record and
	// returns its id.
	UpsertApplicant(ctx context.Context, req ApplicantRequest) (visaApplicantID string, err error)

	// UploadAdmissionLetter stores the admission letter.
	UploadAdmissionLetter(ctx context.Context, req DocumentUploadRequest) error

	// CreatePaymentOrder creates a gateway order for the given amount.
	CreatePaymentOrder(ctx context.Context, req OrderRequest) (PaymentOrder, error)

	// VerifyPayment checks the gateway triple server-side. A negative
	// verification is returned as ErrVerificationFailed.
	VerifyPayment(ctx context.Context, req VerificationRequest) error

	// RegisterStudent provisions the applicant's identity record.
	RegisterStudent(ctx context.Context, req StudentRegistration) error

	// InviteContact creates or invites the CRM contact.
	InviteContact(ctx context.Context, req ContactInvite) error

	// CompleteApplication is the canonical completion call. Its success
	// defines "application submitted".
	CompleteApplication(ctx context.Context, leadID, visaApplicantID string) error
}
