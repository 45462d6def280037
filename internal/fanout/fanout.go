// Package fanout reconciles a paid applicant's identity across the
// external systems and then marks the application complete.
//
// The first two calls are best-effort identity synchronization and
// tolerate duplicates; the completion call is the authoritative state
// transition and its failure is fatal. Tolerate duplication upstream of
// money movement, refuse to tolerate failure downstream of it.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/globalminds/visaflow/pkg/api"
)

// Config describes how to construct a Coordinator.
type Config struct {
	Backend  api.Backend
	Observer api.Observer

	// DomainURL is carried on student registration.
	DomainURL string

	// UserTypeID is carried on the CRM contact invite.
	UserTypeID string
}

// Coordinator runs the post-payment fan-out. It must only be invoked
// after server-side payment verification succeeded.
type Coordinator struct {
	backend    api.Backend
	obs        api.Observer
	domainURL  string
	userTypeID string
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Coordinator{
		backend:    cfg.Backend,
		obs:        obs,
		domainURL:  cfg.DomainURL,
		userTypeID: cfg.UserTypeID,
	}
}

// Run performs the fan-out for the given draft. Identity provisioning
// and the CRM invite run concurrently; both are attempted before the
// canonical completion call is issued.
//
// Outcomes are returned in a fixed order (identity, CRM, completion)
// regardless of which call finished first. The returned error is
// non-nil only for a completion failure, reported as a
// CompletionError.
func (c *Coordinator) Run(ctx context.Context, draft api.ApplicationDraft) ([]api.FanOutOutcome, error) {
	var (
		mu       sync.Mutex
		outcomes = map[api.FanOutSystem]api.FanOutOutcome{}
	)
	record := func(system api.FanOutSystem, err error) {
		out := outcome(system, err)
		mu.Lock()
		outcomes[system] = out
		mu.Unlock()
		c.obs.OnFanOutSettled(ctx, out)
	}

	var g errgroup.Group
	g.Go(func() error {
		record(api.SystemIdentity, c.backend.RegisterStudent(ctx, api.StudentRegistration{
			FirstName: draft.FirstName,
			LastName:  draft.LastName,
			Email:     draft.Email,
			Phone:     draft.Phone,
			DomainURL: c.domainURL,
		}))
		return nil
	})
	g.Go(func() error {
		record(api.SystemCRM, c.backend.InviteContact(ctx, api.ContactInvite{
			FirstName:  draft.FirstName,
			LastName:   draft.LastName,
			Email:      draft.Email,
			Phone:      draft.Phone,
			UserTypeID: c.userTypeID,
		}))
		return nil
	})
	// Best-effort calls never abort the group; errors were folded into
	// their outcomes above.
	_ = g.Wait()

	completionErr := c.backend.CompleteApplication(ctx, draft.LeadID, draft.VisaApplicantID)
	record(api.SystemCompletion, completionErr)

	ordered := []api.FanOutOutcome{
		outcomes[api.SystemIdentity],
		outcomes[api.SystemCRM],
		outcomes[api.SystemCompletion],
	}

	if completionErr != nil {
		return ordered, &api.CompletionError{
			LeadID:          draft.LeadID,
			VisaApplicantID: draft.VisaApplicantID,
			Err:             completionErr,
		}
	}
	return ordered, nil
}

// outcome folds a call result into a FanOutOutcome: nil is Created, a
// DuplicateError is AlreadyExists, anything else is Failed.
func outcome(system api.FanOutSystem, err error) api.FanOutOutcome {
	switch {
	case err == nil:
		return api.FanOutOutcome{System: system, Status: api.FanOutCreated}
	case api.IsDuplicate(err):
		return api.FanOutOutcome{System: system, Status: api.FanOutAlreadyExists}
	default:
		return api.FanOutOutcome{System: system, Status: api.FanOutFailed, Err: err}
	}
}
