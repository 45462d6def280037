// Package localbackend provides Backend implementations that keep all
// state in-process: an in-memory store for tests and demos, and a
// SQLite-backed store for local single-binary deployments. Both apply
// the same contract as the remote API, including duplicate detection
// and payment signature verification, so the pipeline behaves
// identically against them.
package localbackend

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/globalminds/visaflow/internal/gatewaysig"
	"github.com/globalminds/visaflow/pkg/api"
)

// MemoryBackend is an in-memory Backend.
type MemoryBackend struct {
	secret string

	mu         sync.Mutex
	leads      map[string]api.LeadRequest
	applicants map[string]api.ApplicantRequest
	documents  []api.DocumentUploadRequest
	receipts   map[string]receipt
	users      map[string]struct{}
	contacts   map[string]struct{}
	completed  map[string]string
}

type receipt struct {
	orderID  string
	amount   decimal.Decimal
	verified bool
}

var _ api.Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a MemoryBackend. Payment verification checks
// signatures against the given gateway secret.
func NewMemoryBackend(secret string) *MemoryBackend {
	return &MemoryBackend{
		secret:     secret,
		leads:      map[string]api.LeadRequest{},
		applicants: map[string]api.ApplicantRequest{},
		receipts:   map[string]receipt{},
		users:      map[string]struct{}{},
		contacts:   map[string]struct{}{},
		completed:  map[string]string{},
	}
}

func (b *MemoryBackend) CreateLead(ctx context.Context, req api.LeadRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := "lead_" + uuid.NewString()
	b.leads[id] = req
	return id, nil
}

func (b *MemoryBackend) UpsertApplicant(ctx context.Context, req api.ApplicantRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Upsert keyed by email: repeated saves update the existing record.
	for id, existing := range b.applicants {
		if existing.Email == req.Email {
			b.applicants[id] = req
			return id, nil
		}
	}
	id := "app_" + uuid.NewString()
	b.applicants[id] = req
	return id, nil
}

func (b *MemoryBackend) UploadAdmissionLetter(ctx context.Context, req api.DocumentUploadRequest) error {
	if len(req.Document.Content) == 0 {
		return fmt.Errorf("empty document %q", req.Document.FileName)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.documents = append(b.documents, req)
	return nil
}

func (b *MemoryBackend) CreatePaymentOrder(ctx context.Context, req api.OrderRequest) (api.PaymentOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	orderID := "order_" + uuid.NewString()
	receiptID := "rcpt_" + uuid.NewString()
	b.receipts[receiptID] = receipt{orderID: orderID, amount: req.Amount}
	return api.PaymentOrder{
		OrderID:           orderID,
		Amount:            req.Amount,
		Currency:          "INR",
		GatewayKey:        "local",
		InternalReceiptID: receiptID,
	}, nil
}

func (b *MemoryBackend) VerifyPayment(ctx context.Context, req api.VerificationRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rcpt, ok := b.receipts[req.InternalReceiptID]
	if !ok || rcpt.orderID != req.GatewayOrderID {
		return api.ErrVerificationFailed
	}
	if !gatewaysig.Verify(req.GatewayOrderID, req.GatewayPaymentID, b.secret, req.Signature) {
		return api.ErrVerificationFailed
	}
	rcpt.verified = true
	b.receipts[req.InternalReceiptID] = rcpt
	return nil
}

func (b *MemoryBackend) RegisterStudent(ctx context.Context, req api.StudentRegistration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[req.Email]; ok {
		return &api.DuplicateError{System: api.SystemIdentity, Detail: "user " + req.Email + " already exists"}
	}
	b.users[req.Email] = struct{}{}
	return nil
}

func (b *MemoryBackend) InviteContact(ctx context.Context, req api.ContactInvite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contacts[req.Email]; ok {
		return &api.DuplicateError{System: api.SystemCRM, Detail: "contact " + req.Email + " already invited"}
	}
	b.contacts[req.Email] = struct{}{}
	return nil
}

func (b *MemoryBackend) CompleteApplication(ctx context.Context, leadID, visaApplicantID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.applicants[visaApplicantID]; !ok && visaApplicantID != "" {
		return fmt.Errorf("unknown visa applicant %q", visaApplicantID)
	}
	b.completed[leadID] = visaApplicantID
	return nil
}

// Completed reports whether the lead's application has been marked
// complete.
func (b *MemoryBackend) Completed(leadID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.completed[leadID]
	return ok
}

// Documents returns the uploads received so far.
func (b *MemoryBackend) Documents() []api.DocumentUploadRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.DocumentUploadRequest, len(b.documents))
	copy(out, b.documents)
	return out
}
