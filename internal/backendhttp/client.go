// Package backendhttp adapts the remote REST API to the Backend
// interface. It is the boundary where wire shapes and the remote
// systems' duplicate-condition signals are translated into the typed
// errors the pipeline operates on.
package backendhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalminds/visaflow/pkg/api"
)

// Duplicate-condition markers in the remote error bodies. These are an
// integration detail of each remote system's contract, kept here so the
// rest of the pipeline never matches on message text.
const (
	duplicateUserMarker    = "already exists"
	duplicateContactMarker = "DUPLICATE_DATA"
)

const defaultTimeout = 30 * time.Second

// Config describes how to reach the backend.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com".
	// Application endpoints live under BaseURL + "/v1".
	BaseURL string

	// PaymentBaseURL is the payment API root. Defaults to
	// BaseURL + "/payment".
	PaymentBaseURL string

	// HTTPClient defaults to a client with a 30s timeout. Timeouts are
	// delegated entirely to this client; no retries are performed here.
	HTTPClient *http.Client
}

// Client implements api.Backend against the remote REST API.
type Client struct {
	baseURL    string
	paymentURL string
	httpc      *http.Client
}

var _ api.Backend = (*Client)(nil)

// New creates a Client.
func New(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	payment := strings.TrimRight(cfg.PaymentBaseURL, "/")
	if payment == "" {
		payment = base + "/payment"
	}
	return &Client{
		baseURL:    base,
		paymentURL: payment,
		httpc:      httpc,
	}
}

// apiError is a non-2xx response with whatever message the body held.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("backend returned status %d", e.status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.status, e.message)
}

func (c *Client) CreateLead(ctx context.Context, req api.LeadRequest) (string, error) {
	body := map[string]string{
		"firstName":   req.FirstName,
		"lastName":    req.LastName,
		"email":       req.Email,
		"phoneNumber": req.Phone,
		"city":        req.City,
		"leadSource":  req.LeadSource,
	}
	var out struct {
		Lead struct {
			ID string `json:"id"`
		} `json:"lead"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/v1/leads", body, &out); err != nil {
		return "", err
	}
	return out.Lead.ID, nil
}

func (c *Client) UpsertApplicant(ctx context.Context, req api.ApplicantRequest) (string, error) {
	body := map[string]string{
		"leadId":         req.LeadID,
		"firstName":      req.FirstName,
		"lastName":       req.LastName,
		"email":          req.Email,
		"phoneNumber":    req.Phone,
		"city":           req.City,
		"country":        req.Country,
		"universityName": req.University,
		"courseName":     req.Course,
		"intake":         req.Intake,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/v1/visa-applicants", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UploadAdmissionLetter(ctx context.Context, req api.DocumentUploadRequest) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", req.Document.FileName)
	if err != nil {
		return err
	}
	if _, err := fw.Write(req.Document.Content); err != nil {
		return err
	}

	meta := map[string]string{
		"leadId":          req.LeadID,
		"visaApplicantId": req.VisaApplicantID,
		"firstName":       req.FirstName,
		"lastName":        req.LastName,
		"email":           req.Email,
		"phoneNumber":     req.Phone,
		"city":            req.City,
		"country":         req.Country,
		"universityName":  req.University,
		"courseName":      req.Course,
		"intake":          req.Intake,
	}
	for k, v := range meta {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	url := c.baseURL + "/v1/document-uploads/upload-admission-letter"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	return nil
}

func (c *Client) CreatePaymentOrder(ctx context.Context, req api.OrderRequest) (api.PaymentOrder, error) {
	body := map[string]any{
		"name":        req.Name,
		"email":       req.Email,
		"phone":       req.Phone,
		"amount":      req.Amount,
		"description": req.Description,
	}
	var out struct {
		Key               string          `json:"key"`
		Amount            decimal.Decimal `json:"amount"`
		ID                string          `json:"id"`
		Currency          string          `json:"currency"`
		InternalReceiptID string          `json:"internal_receipt_id"`
	}
	if err := c.postJSON(ctx, c.paymentURL+"/create_order", body, &out); err != nil {
		return api.PaymentOrder{}, err
	}
	currency := out.Currency
	if currency == "" {
		currency = "INR"
	}
	return api.PaymentOrder{
		OrderID:           out.ID,
		Amount:            out.Amount,
		Currency:          currency,
		GatewayKey:        out.Key,
		InternalReceiptID: out.InternalReceiptID,
	}, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req api.VerificationRequest) error {
	body := map[string]string{
		"razorpay_order_id":   req.GatewayOrderID,
		"razorpay_payment_id": req.GatewayPaymentID,
		"razorpay_signature":  req.Signature,
		"internal_receipt_id": req.InternalReceiptID,
	}
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.postJSON(ctx, c.paymentURL+"/verify", body, &out); err != nil {
		return err
	}
	if !out.Success {
		return api.ErrVerificationFailed
	}
	return nil
}

func (c *Client) RegisterStudent(ctx context.Context, req api.StudentRegistration) error {
	body := map[string]string{
		"firstName":   req.FirstName,
		"lastName":    req.LastName,
		"email":       req.Email,
		"phoneNumber": req.Phone,
		"domainUrl":   req.DomainURL,
	}
	err := c.postJSON(ctx, c.baseURL+"/v1/users/student/register", body, nil)
	if err != nil && containsMarker(err, duplicateUserMarker) {
		return &api.DuplicateError{System: api.SystemIdentity, Detail: errMessage(err)}
	}
	return err
}

func (c *Client) InviteContact(ctx context.Context, req api.ContactInvite) error {
	body := map[string]any{
		"contact": map[string]string{
			"Last_Name":  req.LastName,
			"First_Name": req.FirstName,
			"Email":      req.Email,
			"Phone":      req.Phone,
		},
		"userTypeId": req.UserTypeID,
	}
	err := c.postJSON(ctx, c.baseURL+"/v1/zoho/contacts/invite", body, nil)
	if err != nil && containsMarker(err, duplicateContactMarker) {
		return &api.DuplicateError{System: api.SystemCRM, Detail: errMessage(err)}
	}
	return err
}

func (c *Client) CompleteApplication(ctx context.Context, leadID, visaApplicantID string) error {
	body := map[string]string{
		"leadId":          leadID,
		"visaApplicantId": visaApplicantID,
	}
	return c.postJSON(ctx, c.baseURL+"/v1/visa-applicants/complete-payment", body, nil)
}

// postJSON posts body as JSON and decodes a 2xx response into out, when
// out is non-nil. Non-2xx responses become an apiError carrying the
// body's message or code.
func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readError extracts "message" and "code" fields from an error body,
// falling back to the raw body text.
func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var decoded struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &decoded); err == nil {
		parts := make([]string, 0, 3)
		for _, p := range []string{decoded.Code, decoded.Message, decoded.Error} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		msg = strings.Join(parts, ": ")
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &apiError{status: resp.StatusCode, message: msg}
}

func containsMarker(err error, marker string) bool {
	var ae *apiError
	if !asAPIError(err, &ae) {
		return false
	}
	return strings.Contains(strings.ToLower(ae.message), strings.ToLower(marker))
}

func errMessage(err error) string {
	var ae *apiError
	if asAPIError(err, &ae) {
		return ae.message
	}
	return err.Error()
}

func asAPIError(err error, target **apiError) bool {
	ae, ok := err.(*apiError)
	if ok {
		*target = ae
	}
	return ok
}
