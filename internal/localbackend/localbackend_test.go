package localbackend

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/globalminds/visaflow/internal/gatewaysig"
	"github.com/globalminds/visaflow/pkg/api"
)

const testSecret = "test-secret"

func applicantReq(email string) api.ApplicantRequest {
	return api.ApplicantRequest{
		FirstName: "Jane", LastName: "Doe",
		Email: email, Phone: "9876543210", City: "Pune",
		Country: "Germany", University: "TU Berlin", Course: "CS", Intake: "Fall 2026",
	}
}

func TestMemoryUpsertApplicantIsKeyedByEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBackend(testSecret)

	first, err := b.UpsertApplicant(ctx, applicantReq("jane@x.com"))
	require.NoError(t, err)

	updated := applicantReq("jane@x.com")
	updated.University = "TU Munich"
	second, err := b.UpsertApplicant(ctx, updated)
	require.NoError(t, err)
	require.Equal(t, first, second, "same email must not create a second applicant")

	other, err := b.UpsertApplicant(ctx, applicantReq("john@x.com"))
	require.NoError(t, err)
	require.NotEqual(t, first, other)
}

func TestMemoryVerifyPaymentChecksSignature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBackend(testSecret)

	order, err := b.CreatePaymentOrder(ctx, api.OrderRequest{Amount: decimal.NewFromInt(9000)})
	require.NoError(t, err)

	good := api.VerificationRequest{
		GatewayOrderID:    order.OrderID,
		GatewayPaymentID:  "pay_1",
		Signature:         gatewaysig.Sign(order.OrderID, "pay_1", testSecret),
		InternalReceiptID: order.InternalReceiptID,
	}
	require.NoError(t, b.VerifyPayment(ctx, good))

	bad := good
	bad.Signature = "forged"
	require.ErrorIs(t, b.VerifyPayment(ctx, bad), api.ErrVerificationFailed)

	unknown := good
	unknown.InternalReceiptID = "rcpt_missing"
	require.ErrorIs(t, b.VerifyPayment(ctx, unknown), api.ErrVerificationFailed)
}

func TestMemoryDuplicateRegistrations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBackend(testSecret)

	require.NoError(t, b.RegisterStudent(ctx, api.StudentRegistration{Email: "jane@x.com"}))
	err := b.RegisterStudent(ctx, api.StudentRegistration{Email: "jane@x.com"})
	require.True(t, api.IsDuplicate(err))

	require.NoError(t, b.InviteContact(ctx, api.ContactInvite{Email: "jane@x.com"}))
	err = b.InviteContact(ctx, api.ContactInvite{Email: "jane@x.com"})
	require.True(t, api.IsDuplicate(err))
}

func TestMemoryCompleteApplication(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewMemoryBackend(testSecret)

	leadID, err := b.CreateLead(ctx, api.LeadRequest{Email: "jane@x.com"})
	require.NoError(t, err)
	appID, err := b.UpsertApplicant(ctx, applicantReq("jane@x.com"))
	require.NoError(t, err)

	require.False(t, b.Completed(leadID))
	require.NoError(t, b.CompleteApplication(ctx, leadID, appID))
	require.True(t, b.Completed(leadID))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "visaflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, err := NewSQLiteBackend(openTestDB(t), testSecret)
	require.NoError(t, err)

	leadID, err := b.CreateLead(ctx, api.LeadRequest{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane@x.com", Phone: "9876543210",
		City: "Pune", LeadSource: "visa-application",
	})
	require.NoError(t, err)
	require.NotEmpty(t, leadID)

	req := applicantReq("jane@x.com")
	req.LeadID = leadID
	appID, err := b.UpsertApplicant(ctx, req)
	require.NoError(t, err)

	req.University = "TU Munich"
	again, err := b.UpsertApplicant(ctx, req)
	require.NoError(t, err)
	require.Equal(t, appID, again)

	require.NoError(t, b.UploadAdmissionLetter(ctx, api.DocumentUploadRequest{
		LeadID: leadID, VisaApplicantID: appID,
		Document: api.DocumentRef{FileName: "admission.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
	}))
}

func TestSQLitePaymentAndCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, err := NewSQLiteBackend(openTestDB(t), testSecret)
	require.NoError(t, err)

	appID, err := b.UpsertApplicant(ctx, applicantReq("jane@x.com"))
	require.NoError(t, err)

	order, err := b.CreatePaymentOrder(ctx, api.OrderRequest{Amount: decimal.NewFromInt(10000)})
	require.NoError(t, err)

	err = b.VerifyPayment(ctx, api.VerificationRequest{
		GatewayOrderID:    order.OrderID,
		GatewayPaymentID:  "pay_1",
		Signature:         gatewaysig.Sign(order.OrderID, "pay_1", testSecret),
		InternalReceiptID: order.InternalReceiptID,
	})
	require.NoError(t, err)

	err = b.VerifyPayment(ctx, api.VerificationRequest{
		GatewayOrderID:    order.OrderID,
		GatewayPaymentID:  "pay_1",
		Signature:         "forged",
		InternalReceiptID: order.InternalReceiptID,
	})
	require.ErrorIs(t, err, api.ErrVerificationFailed)

	done, err := b.Completed(ctx, appID)
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, b.CompleteApplication(ctx, "lead-x", appID))

	done, err = b.Completed(ctx, appID)
	require.NoError(t, err)
	require.True(t, done)

	require.Error(t, b.CompleteApplication(ctx, "lead-x", "app_missing"))
}

func TestSQLiteDuplicateDetection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, err := NewSQLiteBackend(openTestDB(t), testSecret)
	require.NoError(t, err)

	require.NoError(t, b.RegisterStudent(ctx, api.StudentRegistration{Email: "jane@x.com"}))
	dup := b.RegisterStudent(ctx, api.StudentRegistration{Email: "jane@x.com"})
	require.True(t, api.IsDuplicate(dup))

	var de *api.DuplicateError
	require.ErrorAs(t, dup, &de)
	require.Equal(t, api.SystemIdentity, de.System)

	require.NoError(t, b.InviteContact(ctx, api.ContactInvite{Email: "jane@x.com"}))
	require.True(t, api.IsDuplicate(b.InviteContact(ctx, api.ContactInvite{Email: "jane@x.com"})))
}
