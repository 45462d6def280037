package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/globalminds/visaflow/pkg/api"
)

// recordingBackend captures persistence calls for assertions. The
// payment and fan-out methods are never reached from this package.
type recordingBackend struct {
	api.Backend

	mu         sync.Mutex
	leads      []api.LeadRequest
	applicants []api.ApplicantRequest
	uploads    []api.DocumentUploadRequest

	leadErr   error
	leadID    string
	leadGate  chan struct{} // when set, CreateLead blocks until closed
	applicant string
}

func (b *recordingBackend) CreateLead(ctx context.Context, req api.LeadRequest) (string, error) {
	if b.leadGate != nil {
		<-b.leadGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leads = append(b.leads, req)
	if b.leadErr != nil {
		return "", b.leadErr
	}
	return b.leadID, nil
}

func (b *recordingBackend) UpsertApplicant(ctx context.Context, req api.ApplicantRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applicants = append(b.applicants, req)
	return b.applicant, nil
}

func (b *recordingBackend) UploadAdmissionLetter(ctx context.Context, req api.DocumentUploadRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, req)
	return nil
}

type settledRecorder struct {
	api.NoopObserver

	mu      sync.Mutex
	settled map[string]error
}

func (r *settledRecorder) OnPersistSettled(ctx context.Context, call string, err error, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled == nil {
		r.settled = map[string]error{}
	}
	r.settled[call] = err
}

func draft() api.ApplicationDraft {
	return api.ApplicationDraft{
		FirstName: "Jane", LastName: "Doe", Email: "jane@x.com",
		Phone: "9876543210", City: "Pune",
		Country: "canada", University: "UofT", Course: "MCS", Intake: "sep",
	}
}

func TestCreateLeadRecordsID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &recordingBackend{leadID: "lead-1"}
	c := New(Config{Backend: backend, LeadSource: "website"})

	c.DispatchForward(ctx, api.StepIdentity, draft())
	c.Wait()

	leadID, applicantID := c.IDs()
	require.Equal(t, "lead-1", leadID)
	require.Empty(t, applicantID)

	require.Len(t, backend.leads, 1)
	require.Equal(t, "website", backend.leads[0].LeadSource)
	require.Equal(t, "Jane", backend.leads[0].FirstName)
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	gate := make(chan struct{})
	backend := &recordingBackend{leadID: "lead-1", leadGate: gate}
	c := New(Config{Backend: backend})

	done := make(chan struct{})
	go func() {
		c.DispatchForward(ctx, api.StepIdentity, draft())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("DispatchForward blocked on the backend call")
	}
	close(gate)
	c.Wait()
}

func TestApplicantCarriesEmptyLeadIDWhenUnresolved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The lead call is stuck; the applicant call fires anyway and must
	// carry whatever identifier is available, here none.
	gate := make(chan struct{})
	backend := &recordingBackend{leadID: "lead-1", leadGate: gate, applicant: "app-1"}
	c := New(Config{Backend: backend})

	c.DispatchForward(ctx, api.StepIdentity, draft())
	c.DispatchForward(ctx, api.StepAcademic, draft())

	// Only unblock the lead call after the applicant one settled.
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.applicants) == 1
	}, time.Second, time.Millisecond)

	backend.mu.Lock()
	require.Empty(t, backend.applicants[0].LeadID)
	backend.mu.Unlock()

	close(gate)
	c.Wait()
}

func TestFailedLeadCallIsLoggedNotSurfaced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	obs := &settledRecorder{}
	backend := &recordingBackend{leadErr: errors.New("backend down")}
	c := New(Config{Backend: backend, Observer: obs})

	c.DispatchForward(ctx, api.StepIdentity, draft())
	c.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Error(t, obs.settled[CallCreateLead])

	leadID, _ := c.IDs()
	require.Empty(t, leadID, "no id recorded for a failed call")
}

func TestDetachedCallSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	gate := make(chan struct{})
	backend := &recordingBackend{leadID: "lead-1", leadGate: gate}
	c := New(Config{Backend: backend})

	c.DispatchForward(ctx, api.StepIdentity, draft())
	cancel()
	close(gate)
	c.Wait()

	leadID, _ := c.IDs()
	require.Equal(t, "lead-1", leadID, "in-flight call must not be cancelled by the caller")
}

func TestApplicantIDHiddenWithoutLeadID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Applicant call resolves while the lead call never does.
	gate := make(chan struct{})
	backend := &recordingBackend{leadErr: errors.New("down"), leadGate: gate, applicant: "app-1"}
	c := New(Config{Backend: backend})

	c.DispatchForward(ctx, api.StepAcademic, draft())
	require.Eventually(t, func() bool {
		_, appID := c.IDs()
		_ = appID
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.applicants) == 1
	}, time.Second, time.Millisecond)
	close(gate)
	c.Wait()

	leadID, applicantID := c.IDs()
	require.Empty(t, leadID)
	require.Empty(t, applicantID, "applicant id is only exposed once a lead id exists")
}

func TestUploadCarriesAccumulatedMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &recordingBackend{leadID: "lead-1", applicant: "app-1"}
	c := New(Config{Backend: backend})

	d := draft()
	d.Document = &api.DocumentRef{FileName: "admission.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}

	c.DispatchForward(ctx, api.StepIdentity, d)
	c.Wait()
	c.DispatchForward(ctx, api.StepAcademic, d)
	c.Wait()
	c.DispatchForward(ctx, api.StepDocument, d)
	c.Wait()

	require.Len(t, backend.uploads, 1)
	up := backend.uploads[0]
	require.Equal(t, "lead-1", up.LeadID)
	require.Equal(t, "app-1", up.VisaApplicantID)
	require.Equal(t, "admission.pdf", up.Document.FileName)
	require.Equal(t, "canada", up.Country)
}
