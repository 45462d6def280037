// Package persist keeps the backend's view of an application in sync
// with wizard progress without ever making the applicant wait. Every
// call is dispatched as a detached task: spawned, logged, and otherwise
// discarded. Persistence here is best-effort; the pipeline's
// correctness never depends on any of these calls having completed.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/globalminds/visaflow/pkg/api"
)

// Call names used in observer events.
const (
	CallCreateLead      = "create-lead"
	CallUpsertApplicant = "upsert-applicant"
	CallUploadDocument  = "upload-admission-letter"
)

// Config describes how to construct a Coordinator.
type Config struct {
	Backend    api.Backend
	Observer   api.Observer
	LeadSource string
}

// Coordinator dispatches the per-step persistence calls and records the
// identifiers the backend assigns as they resolve.
type Coordinator struct {
	backend    api.Backend
	obs        api.Observer
	leadSource string

	mu          sync.Mutex
	leadID      string
	applicantID string

	wg sync.WaitGroup
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
		leadSource: cfg.LeadSource,
	}
}

// DispatchForward fires the persistence call for leaving the given
// step. It returns immediately; the call resolves in the background and
// its failure is logged, never surfaced.
//
// The applicant and document calls snapshot whatever identifiers have
// resolved at dispatch time, possibly none; the server reconciles by
// contact fields.
func (c *Coordinator) DispatchForward(ctx context.Context, from api.Step, snap api.ApplicationDraft) {
	switch from {
	case api.StepIdentity:
		req := api.LeadRequest{
			FirstName:  snap.FirstName,
			LastName:   snap.LastName,
			Email:      snap.Email,
			Phone:      snap.Phone,
			City:       snap.City,
			LeadSource: c.leadSource,
		}
		c.detach(ctx, CallCreateLead, func(ctx context.Context) error {
			id, err := c.backend.CreateLead(ctx, req)
			if err != nil {
				return err
			}
			c.recordLeadID(id)
			return nil
		})

	case api.StepAcademic:
		leadID, _ := c.IDs()
		req := api.ApplicantRequest{
			LeadID:     leadID,
			FirstName:  snap.FirstName,
			LastName:   snap.LastName,
			Email:      snap.Email,
			Phone:      snap.Phone,
			City:       snap.City,
			Country:    snap.Country,
			University: snap.University,
			Course:     snap.Course,
			Intake:     snap.Intake,
		}
		c.detach(ctx, CallUpsertApplicant, func(ctx context.Context) error {
			id, err := c.backend.UpsertApplicant(ctx, req)
			if err != nil {
				return err
			}
			c.recordApplicantID(id)
			return nil
		})

	case api.StepDocument:
		if snap.Document == nil {
			return
		}
		leadID, applicantID := c.IDs()
		req := api.DocumentUploadRequest{
			LeadID:          leadID,
			VisaApplicantID: applicantID,
			FirstName:       snap.FirstName,
			LastName:        snap.LastName,
			Email:           snap.Email,
			Phone:           snap.Phone,
			City:            snap.City,
			Country:         snap.Country,
			University:      snap.University,
			Course:          snap.Course,
			Intake:          snap.Intake,
			Document:        *snap.Document,
		}
		c.detach(ctx, CallUploadDocument, func(ctx context.Context) error {
			return c.backend.UploadAdmissionLetter(ctx, req)
		})
	}
}

// IDs returns the identifiers resolved so far. The applicant id is only
// exposed once a lead id exists.
func (c *Coordinator) IDs() (leadID, visaApplicantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leadID == "" {
		return "", ""
	}
	return c.leadID, c.applicantID
}

// Wait blocks until all dispatched calls have settled. Intended for
// tests and graceful teardown; the wizard itself never waits.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// detach spawns fn on its own goroutine. The task is decoupled from the
// caller's cancellation: a step transition or dismissed dialog must not
// cancel persistence already in flight.
func (c *Coordinator) detach(ctx context.Context, call string, fn func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	c.obs.OnPersistDispatched(ctx, call)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start := time.Now()
		err := fn(bg)
		c.obs.OnPersistSettled(bg, call, err, time.Since(start))
	}()
}

func (c *Coordinator) recordLeadID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.leadID = id
	c.mu.Unlock()
}

func (c *Coordinator) recordApplicantID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.applicantID = id
	c.mu.Unlock()
}
