// Package wizard holds the step state machine of the application
// wizard: the current step, the accumulated draft, and the per-field
// validation errors that gate forward transitions.
package wizard

import (
	"context"
	"sync"

	"github.com/globalminds/visaflow/internal/validate"
	"github.com/globalminds/visaflow/pkg/api"
)

// ForwardFunc is invoked after every successful forward transition with
// the step that was just left and a snapshot of the draft at that
// moment. The session uses it to dispatch background persistence; it
// must not block.
type ForwardFunc func(ctx context.Context, from api.Step, snapshot api.ApplicationDraft)

// Config describes how to construct a Machine.
type Config struct {
	Observer api.Observer
	Forward  ForwardFunc
}

// Machine owns the ApplicationDraft for the lifetime of one wizard
// session. No other component writes to the draft.
type Machine struct {
	mu      sync.Mutex
	step    api.Step
	status  api.Status
	draft   api.ApplicationDraft
	fields  api.FieldErrors
	obs     api.Observer
	forward ForwardFunc
}

// New creates a Machine positioned on the identity step.
func New(cfg Config) *Machine {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Machine{
		step:    api.FirstStep,
		status:  api.StatusInProgress,
		fields:  api.FieldErrors{},
		obs:     obs,
		forward: cfg.Forward,
	}
}

// Step returns the active step.
func (m *Machine) Step() api.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Status returns the session status.
func (m *Machine) Status() api.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Draft returns a copy of the accumulated draft.
func (m *Machine) Draft() api.ApplicationDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// FieldErrors returns the validation errors recomputed on the last
// input change or rejected advance.
func (m *Machine) FieldErrors() api.FieldErrors {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(api.FieldErrors, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// SetIdentity updates the identity fields of the draft.
func (m *Machine) SetIdentity(firstName, lastName, email, phone, city string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.FirstName = firstName
	m.draft.LastName = lastName
	m.draft.Email = email
	m.draft.Phone = phone
	m.draft.City = city
	m.recomputeLocked()
}

// SetCountry updates the destination country. Changing the country
// resets the dependent university and course selections so stale values
// for a different country can never reach the backend.
func (m *Machine) SetCountry(country string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if country != m.draft.Country {
		m.draft.University = ""
		m.draft.Course = ""
	}
	m.draft.Country = country
	m.recomputeLocked()
}

// SetUniversity updates the university selection.
func (m *Machine) SetUniversity(university string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.University = university
	m.recomputeLocked()
}

// SetCourse updates the course selection.
func (m *Machine) SetCourse(course string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Course = course
	m.recomputeLocked()
}

// SetIntake updates the intake selection.
func (m *Machine) SetIntake(intake string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Intake = intake
	m.recomputeLocked()
}

// SetDocument attaches the admission letter to the draft.
func (m *Machine) SetDocument(doc api.DocumentRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := doc
	m.draft.Document = &d
	m.recomputeLocked()
}

// RecordIDs stores server-assigned identifiers on the draft.
// VisaApplicantID is only stored once a LeadID exists; callers reading
// the draft therefore never see an applicant id without a lead id.
func (m *Machine) RecordIDs(leadID, visaApplicantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if leadID != "" {
		m.draft.LeadID = leadID
	}
	if visaApplicantID != "" && m.draft.LeadID != "" {
		m.draft.VisaApplicantID = visaApplicantID
	}
}

// Advance moves to the next step if the active step's required fields
// are present and valid. On rejection it returns a StepRejectedError
// carrying the blocking FieldErrors and the step does not change.
//
// Advancing from the payment step is not a transition; submission is
// driven separately.
func (m *Machine) Advance(ctx context.Context) error {
	m.mu.Lock()
	if m.status != api.StatusInProgress {
		m.mu.Unlock()
		return api.ErrAlreadySubmitted
	}
	if m.step == api.LastStep {
		m.mu.Unlock()
		return nil
	}

	fields := stepErrors(m.step, m.draft)
	if len(fields) > 0 {
		m.fields = fields
		step := m.step
		m.mu.Unlock()
		m.obs.OnStepRejected(ctx, step, fields)
		return &api.StepRejectedError{Step: step, Fields: fields}
	}

	from := m.step
	m.step++
	to := m.step
	snapshot := m.draft
	forward := m.forward
	m.mu.Unlock()

	m.obs.OnStepAdvanced(ctx, from, to)
	if forward != nil {
		forward(ctx, from, snapshot)
	}
	return nil
}

// Retreat moves one step back. Backward transitions are always
// permitted and never re-validate.
func (m *Machine) Retreat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.step > api.FirstStep {
		m.step--
	}
}

// Abandon requests discarding the draft. If the draft holds any data,
// ErrConfirmAbandon is returned and nothing is discarded; the caller
// prompts the user and calls AbandonConfirmed.
func (m *Machine) Abandon() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.draft.Empty() {
		return api.ErrConfirmAbandon
	}
	m.abandonLocked()
	return nil
}

// AbandonConfirmed discards the draft unconditionally.
func (m *Machine) AbandonConfirmed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandonLocked()
}

func (m *Machine) abandonLocked() {
	m.status = api.StatusAbandoned
	m.draft = api.ApplicationDraft{}
	m.fields = api.FieldErrors{}
}

// MarkSubmitted moves the session to its terminal success status.
func (m *Machine) MarkSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = api.StatusSubmitted
}

// recomputeLocked refreshes field errors for the active step after an
// input change.
func (m *Machine) recomputeLocked() {
	m.fields = stepErrors(m.step, m.draft)
}

// stepErrors computes the blocking FieldErrors for one step: required
// fields must be non-empty, and fields that have validators must pass
// them.
func stepErrors(step api.Step, d api.ApplicationDraft) api.FieldErrors {
	fields := api.FieldErrors{}

	switch step {
	case api.StepIdentity:
		checkValidated(fields, "firstName", d.FirstName, validate.Name)
		checkValidated(fields, "lastName", d.LastName, validate.Name)
		checkValidated(fields, "email", d.Email, validate.Email)
		checkValidated(fields, "phone", d.Phone, validate.Phone)
		checkRequired(fields, "city", d.City)
	case api.StepAcademic:
		checkRequired(fields, "country", d.Country)
		checkRequired(fields, "university", d.University)
		checkRequired(fields, "course", d.Course)
		checkRequired(fields, "intake", d.Intake)
	case api.StepDocument:
		if d.Document == nil || len(d.Document.Content) == 0 {
			fields["document"] = "upload your admission letter"
		}
	}

	return fields
}

func checkRequired(fields api.FieldErrors, name, value string) {
	if value == "" {
		fields[name] = "this field is required"
	}
}

func checkValidated(fields api.FieldErrors, name, value string, fn func(string) error) {
	if value == "" {
		fields[name] = "this field is required"
		return
	}
	if err := fn(value); err != nil {
		fields[name] = err.Error()
	}
}
