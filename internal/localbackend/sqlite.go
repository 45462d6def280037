package localbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/globalminds/visaflow/internal/gatewaysig"
	"github.com/globalminds/visaflow/pkg/api"
)

// SQLiteBackend is a Backend backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteBackend struct {
	db     *sql.DB
	secret string
}

var _ api.Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend initializes the required schema in the given
// database and returns a new SQLiteBackend.
func NewSQLiteBackend(db *sql.DB, secret string) (*SQLiteBackend, error) {
	b := &SQLiteBackend{db: db, secret: secret}
	if err := b.initSchema(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			city TEXT NOT NULL,
			lead_source TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS visa_applicants (
			id TEXT PRIMARY KEY,
			lead_id TEXT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			city TEXT NOT NULL,
			country TEXT NOT NULL,
			university TEXT NOT NULL,
			course TEXT NOT NULL,
			intake TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			lead_id TEXT,
			visa_applicant_id TEXT,
			file_name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			content BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS payment_receipts (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS registered_users (
			email TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS crm_contacts (
			email TEXT PRIMARY KEY
		);`,
	)
	return err
}

func (b *SQLiteBackend) CreateLead(ctx context.Context, req api.LeadRequest) (string, error) {
	id := "lead_" + uuid.NewString()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO leads (id, first_name, last_name, email, phone, city, lead_source)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.FirstName, req.LastName, req.Email, req.Phone, req.City, req.LeadSource,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *SQLiteBackend) UpsertApplicant(ctx context.Context, req api.ApplicantRequest) (string, error) {
	var id string
	err := b.db.QueryRowContext(ctx,
		`SELECT id FROM visa_applicants WHERE email = ?`, req.Email,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = "app_" + uuid.NewString()
		_, err = b.db.ExecContext(ctx, `
			INSERT INTO visa_applicants (id, lead_id, first_name, last_name, email, phone, city, country, university, course, intake)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, req.LeadID, req.FirstName, req.LastName, req.Email, req.Phone,
			req.City, req.Country, req.University, req.Course, req.Intake,
		)
		if err != nil {
			return "", err
		}
		return id, nil
	case err != nil:
		return "", err
	}

	_, err = b.db.ExecContext(ctx, `
		UPDATE visa_applicants
		SET lead_id = ?, first_name = ?, last_name = ?, phone = ?, city = ?, country = ?, university = ?, course = ?, intake = ?
		WHERE id = ?`,
		req.LeadID, req.FirstName, req.LastName, req.Phone, req.City,
		req.Country, req.University, req.Course, req.Intake, id,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *SQLiteBackend) UploadAdmissionLetter(ctx context.Context, req api.DocumentUploadRequest) error {
	if len(req.Document.Content) == 0 {
		return fmt.Errorf("empty document %q", req.Document.FileName)
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (id, lead_id, visa_applicant_id, file_name, content_type, content)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"doc_"+uuid.NewString(), req.LeadID, req.VisaApplicantID,
		req.Document.FileName, req.Document.ContentType, req.Document.Content,
	)
	return err
}

func (b *SQLiteBackend) CreatePaymentOrder(ctx context.Context, req api.OrderRequest) (api.PaymentOrder, error) {
	orderID := "order_" + uuid.NewString()
	receiptID := "rcpt_" + uuid.NewString()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO payment_receipts (id, order_id, amount) VALUES (?, ?, ?)`,
		receiptID, orderID, req.Amount.String(),
	)
	if err != nil {
		return api.PaymentOrder{}, err
	}
	return api.PaymentOrder{
		OrderID:           orderID,
		Amount:            req.Amount,
		Currency:          "INR",
		GatewayKey:        "local",
		InternalReceiptID: receiptID,
	}, nil
}

func (b *SQLiteBackend) VerifyPayment(ctx context.Context, req api.VerificationRequest) error {
	var orderID string
	err := b.db.QueryRowContext(ctx,
		`SELECT order_id FROM payment_receipts WHERE id = ?`, req.InternalReceiptID,
	).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return api.ErrVerificationFailed
	}
	if err != nil {
		return err
	}
	if orderID != req.GatewayOrderID ||
		!gatewaysig.Verify(req.GatewayOrderID, req.GatewayPaymentID, b.secret, req.Signature) {
		return api.ErrVerificationFailed
	}
	_, err = b.db.ExecContext(ctx,
		`UPDATE payment_receipts SET verified = 1 WHERE id = ?`, req.InternalReceiptID,
	)
	return err
}

func (b *SQLiteBackend) RegisterStudent(ctx context.Context, req api.StudentRegistration) error {
	var exists int
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM registered_users WHERE email = ?`, req.Email,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return &api.DuplicateError{System: api.SystemIdentity, Detail: "user " + req.Email + " already exists"}
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO registered_users (email) VALUES (?)`, req.Email)
	return err
}

func (b *SQLiteBackend) InviteContact(ctx context.Context, req api.ContactInvite) error {
	var exists int
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM crm_contacts WHERE email = ?`, req.Email,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return &api.DuplicateError{System: api.SystemCRM, Detail: "contact " + req.Email + " already invited"}
	}
	_, err = b.db.ExecContext(ctx, `INSERT INTO crm_contacts (email) VALUES (?)`, req.Email)
	return err
}

func (b *SQLiteBackend) CompleteApplication(ctx context.Context, leadID, visaApplicantID string) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE visa_applicants SET completed = 1 WHERE id = ?`, visaApplicantID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("unknown visa applicant %q", visaApplicantID)
	}
	return nil
}

// Completed reports whether the applicant's row is marked complete.
func (b *SQLiteBackend) Completed(ctx context.Context, visaApplicantID string) (bool, error) {
	var done int
	err := b.db.QueryRowContext(ctx,
		`SELECT completed FROM visa_applicants WHERE id = ?`, visaApplicantID,
	).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return done == 1, nil
}
