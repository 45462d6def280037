package visaflow

import (
	"context"
	"fmt"

	"github.com/globalminds/visaflow/internal/fanout"
	"github.com/globalminds/visaflow/internal/payment"
	"github.com/globalminds/visaflow/internal/persist"
	"github.com/globalminds/visaflow/internal/pricing"
	"github.com/globalminds/visaflow/internal/wizard"
	"github.com/globalminds/visaflow/pkg/api"
)

// Defaults applied by NewSession when the corresponding SessionConfig
// field is empty.
const (
	DefaultLeadSource  = "visa-application"
	DefaultDescription = "Visa Application Processing Fee"
)

// SessionConfig configures a wizard session.
type SessionConfig struct {
	// Backend receives all server-side calls. Required.
	Backend api.Backend

	// Gateway presents the payment checkout. Required.
	Gateway api.Gateway

	// Observer receives pipeline events. Optional.
	Observer api.Observer

	// FeeSchedule and Coupons override the built-in pricing tables.
	FeeSchedule api.FeeSchedule
	Coupons     api.CouponTable

	// LeadSource tags created leads. Defaults to DefaultLeadSource.
	LeadSource string

	// DomainURL is carried on post-payment student registration.
	DomainURL string

	// UserTypeID is carried on the post-payment CRM contact invite.
	UserTypeID string

	// Description labels payment orders and the checkout dialog.
	// Defaults to DefaultDescription.
	Description string
}

// Session is one applicant's run through the submission pipeline, from
// the first wizard screen to the completed application. It owns the
// draft, the step state machine, the pricing engine, the background
// persistence coordinator, and the payment flow.
//
// A Session is safe for concurrent use, though a typical caller drives
// it from a single user-interaction loop.
type Session struct {
	machine *wizard.Machine
	pricing *pricing.Engine
	persist *persist.Coordinator
	payment *payment.Orchestrator
	fanout  *fanout.Coordinator
	obs     api.Observer
}

// SubmissionResult reports what a successful or failed Submit produced.
type SubmissionResult struct {
	Payment         api.PaymentResult
	FanOut          []api.FanOutOutcome
	LeadID          string
	VisaApplicantID string
}

// NewSession creates a Session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("visaflow: SessionConfig.Backend is required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("visaflow: SessionConfig.Gateway is required")
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	leadSource := cfg.LeadSource
	if leadSource == "" {
		leadSource = DefaultLeadSource
	}
	description := cfg.Description
	if description == "" {
		description = DefaultDescription
	}

	priceEngine := pricing.New(cfg.FeeSchedule, cfg.Coupons)

	persistCoord := persist.New(persist.Config{
		Backend:    cfg.Backend,
		Observer:   obs,
		LeadSource: leadSource,
	})

	machine := wizard.New(wizard.Config{
		Observer: obs,
		Forward:  persistCoord.DispatchForward,
	})

	s := &Session{
		machine: machine,
		pricing: priceEngine,
		persist: persistCoord,
		payment: payment.New(payment.Config{
			Backend:     cfg.Backend,
			Gateway:     cfg.Gateway,
			Pricing:     priceEngine,
			Observer:    obs,
			Description: description,
		}),
		fanout: fanout.New(fanout.Config{
			Backend:    cfg.Backend,
			Observer:   obs,
			DomainURL:  cfg.DomainURL,
			UserTypeID: cfg.UserTypeID,
		}),
		obs: obs,
	}
	return s, nil
}

// SetIdentity updates the identity-step fields.
func (s *Session) SetIdentity(firstName, lastName, email, phone, city string) {
	s.machine.SetIdentity(firstName, lastName, email, phone, city)
}

// SetCountry updates the destination country. Changing it resets the
// dependent university and course selections.
func (s *Session) SetCountry(country string) { s.machine.SetCountry(country) }

// SetUniversity updates the university selection.
func (s *Session) SetUniversity(university string) { s.machine.SetUniversity(university) }

// SetCourse updates the course selection.
func (s *Session) SetCourse(course string) { s.machine.SetCourse(course) }

// SetIntake updates the intake selection.
func (s *Session) SetIntake(intake string) { s.machine.SetIntake(intake) }

// SetDocument attaches the admission letter.
func (s *Session) SetDocument(doc api.DocumentRef) { s.machine.SetDocument(doc) }

// Advance validates the active step and moves forward. On success the
// step's persistence call is dispatched in the background; Advance
// itself never waits for the server.
func (s *Session) Advance(ctx context.Context) error { return s.machine.Advance(ctx) }

// Retreat moves one step back without validation.
func (s *Session) Retreat() { s.machine.Retreat() }

// Abandon requests discarding the draft. When the draft holds data it
// returns ErrConfirmAbandon and keeps everything; call
// AbandonConfirmed after the user confirms.
func (s *Session) Abandon() error { return s.machine.Abandon() }

// AbandonConfirmed discards the draft unconditionally.
func (s *Session) AbandonConfirmed() { s.machine.AbandonConfirmed() }

// Step returns the active wizard step.
func (s *Session) Step() api.Step { return s.machine.Step() }

// Status returns the session's lifecycle status.
func (s *Session) Status() api.Status { return s.machine.Status() }

// Draft returns a copy of the draft, including any identifiers the
// background persistence has resolved so far.
func (s *Session) Draft() api.ApplicationDraft {
	s.machine.RecordIDs(s.persist.IDs())
	return s.machine.Draft()
}

// FieldErrors returns the current validation errors for the active
// step.
func (s *Session) FieldErrors() api.FieldErrors { return s.machine.FieldErrors() }

// Quote returns the current price.
func (s *Session) Quote() api.PricingQuote { return s.pricing.Quote() }

// ApplyCoupon applies a coupon code and returns the updated quote.
// Invalid codes leave the quote unchanged and return ErrInvalidCoupon;
// while a payment attempt is open the quote is frozen and
// ErrQuoteFrozen is returned.
func (s *Session) ApplyCoupon(code string) (api.PricingQuote, error) {
	return s.pricing.ApplyCoupon(code)
}

// ClearCoupon removes any applied coupon.
func (s *Session) ClearCoupon() error { return s.pricing.ClearCoupon() }

// Wait blocks until all background persistence calls have settled.
// Intended for tests and graceful teardown.
func (s *Session) Wait() { s.persist.Wait() }

// Submit runs the blocking tail of the pipeline from the payment step:
// collect and verify the payment, then fan out to the post-payment
// systems and mark the application complete.
//
// On any payment-side failure the session stays on the payment step and
// the whole Submit may be retried. A CompletionError is different: the
// payment went through but the canonical completion call failed, and
// retrying payment would charge the applicant twice.
func (s *Session) Submit(ctx context.Context) (SubmissionResult, error) {
	if s.machine.Status() != api.StatusInProgress {
		return SubmissionResult{}, api.ErrAlreadySubmitted
	}
	if step := s.machine.Step(); step != api.LastStep {
		return SubmissionResult{}, fmt.Errorf("cannot submit from the %s step", step)
	}

	draft := s.Draft()

	payRes, err := s.payment.Collect(ctx, draft)
	if err != nil {
		s.obs.OnSubmissionFailed(ctx, err)
		return SubmissionResult{Payment: payRes}, err
	}

	outcomes, err := s.fanout.Run(ctx, draft)
	res := SubmissionResult{
		Payment:         payRes,
		FanOut:          outcomes,
		LeadID:          draft.LeadID,
		VisaApplicantID: draft.VisaApplicantID,
	}
	if err != nil {
		s.obs.OnSubmissionFailed(ctx, err)
		return res, err
	}

	s.machine.MarkSubmitted()
	s.obs.OnSubmitted(ctx, draft.LeadID, draft.VisaApplicantID)
	return res, nil
}
