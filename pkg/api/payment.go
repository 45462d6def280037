package api

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentOrder is the short-lived order returned by the backend before
// checkout opens. It is consumed exactly once per submission attempt and
// never persisted beyond it.
type PaymentOrder struct {
	OrderID           string
	Amount            decimal.Decimal
	Currency          string
	GatewayKey        string
	InternalReceiptID string
}

// PaymentResultKind tags the mutually exclusive outcomes of one
// checkout attempt.
type PaymentResultKind string

const (
	PaymentSucceeded PaymentResultKind = "SUCCEEDED"
	PaymentCancelled PaymentResultKind = "CANCELLED"
	PaymentFailed    PaymentResultKind = "FAILED"
)

// PaymentResult is the outcome delivered by the external checkout.
//
// The gateway fields are only set for PaymentSucceeded; FailureReason is
// only set for PaymentFailed.
type PaymentResult struct {
	Kind PaymentResultKind

	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string

	FailureReason string
}

// CheckoutOptions pre-fills the external checkout with the order and
// applicant details.
type CheckoutOptions struct {
	Key      string
	Amount   decimal.Decimal
	Currency string
	OrderID  string

	Name  string
	Email string
	Phone string

	Description string
}

// CheckoutCallbacks are the three completion paths of the external
// checkout. Exactly one of them fires per opened checkout; the payment
// orchestrator folds them into a single result resolved exactly once.
type CheckoutCallbacks struct {
	// OnSuccess delivers the gateway order/payment/signature triple.
	OnSuccess func(gatewayOrderID, gatewayPaymentID, signature string)

	// OnDismiss signals that the user closed the checkout.
	OnDismiss func()

	// OnFailure signals that the gateway reported a failed payment.
	OnFailure func(reason string)
}

// Gateway abstracts the external payment SDK.
//
// Load is idempotent: calling it when the SDK is already loaded must
// succeed without side effects. Open presents the checkout and arranges
// for exactly one callback to fire; it returns once the checkout has
// been presented, not once it completes.
type Gateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, opts CheckoutOptions, cb CheckoutCallbacks) error
}
