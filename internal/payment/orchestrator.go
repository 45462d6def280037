// Package payment drives a single checkout attempt to completion: it
// is the one place in the pipeline where user-visible blocking is
// correct and required.
package payment

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/globalminds/visaflow/internal/pricing"
	"github.com/globalminds/visaflow/pkg/api"
)

// Config describes how to construct an Orchestrator.
type Config struct {
	Backend     api.Backend
	Gateway     api.Gateway
	Pricing     *pricing.Engine
	Observer    api.Observer
	Description string
}

// Orchestrator runs the blocking payment sequence: compute the total,
// create an order, load the gateway, open checkout, and verify the
// result server-side. At most one attempt is in flight at a time.
type Orchestrator struct {
	backend     api.Backend
	gateway     api.Gateway
	pricing     *pricing.Engine
	obs         api.Observer
	description string

	inFlight atomic.Bool
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Orchestrator{
		backend:     cfg.Backend,
		gateway:     cfg.Gateway,
		pricing:     cfg.Pricing,
		obs:         obs,
		description: cfg.Description,
	}
}

// Collect runs one payment attempt for the given draft.
//
// The returned PaymentResult reports what the checkout delivered; err
// is non-nil for every outcome that is terminal for this attempt:
// order-creation failure, gateway load failure, cancellation
// (ErrPaymentCancelled), gateway failure, and verification failure
// (ErrVerificationFailed). Only a nil error means the payment was
// verified and the fan-out may run.
//
// The quote is frozen for the whole attempt, so the amount sent to
// order creation is the amount the applicant was shown, and no coupon
// mutation is possible while the checkout is open.
func (o *Orchestrator) Collect(ctx context.Context, draft api.ApplicationDraft) (api.PaymentResult, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return api.PaymentResult{}, api.ErrPaymentInFlight
	}
	defer o.inFlight.Store(false)

	o.pricing.Freeze()
	defer o.pricing.Unfreeze()

	quote := o.pricing.Quote()
	o.obs.OnPaymentStarted(ctx, quote)

	order, err := o.backend.CreatePaymentOrder(ctx, api.OrderRequest{
		Name:        draft.FirstName + " " + draft.LastName,
		Email:       draft.Email,
		Phone:       draft.Phone,
		Amount:      quote.Total,
		Description: o.description,
	})
	if err != nil {
		o.obs.OnPaymentSettled(ctx, api.PaymentResult{Kind: api.PaymentFailed}, err)
		return api.PaymentResult{Kind: api.PaymentFailed}, err
	}

	if err := o.gateway.Load(ctx); err != nil {
		o.obs.OnPaymentSettled(ctx, api.PaymentResult{Kind: api.PaymentFailed}, err)
		return api.PaymentResult{Kind: api.PaymentFailed}, err
	}

	res, err := o.openCheckout(ctx, draft, order)
	if err != nil {
		o.obs.OnPaymentSettled(ctx, res, err)
		return res, err
	}

	switch res.Kind {
	case api.PaymentCancelled:
		// The applicant closed the dialog; no server-side calls follow.
		o.obs.OnPaymentSettled(ctx, res, api.ErrPaymentCancelled)
		return res, api.ErrPaymentCancelled

	case api.PaymentFailed:
		err := &GatewayError{Reason: res.FailureReason}
		o.obs.OnPaymentSettled(ctx, res, err)
		return res, err
	}

	if err := o.backend.VerifyPayment(ctx, api.VerificationRequest{
		GatewayOrderID:    res.GatewayOrderID,
		GatewayPaymentID:  res.GatewayPaymentID,
		Signature:         res.Signature,
		InternalReceiptID: order.InternalReceiptID,
	}); err != nil {
		o.obs.OnPaymentSettled(ctx, res, err)
		return res, err
	}

	o.obs.OnPaymentSettled(ctx, res, nil)
	return res, nil
}

// openCheckout presents the checkout and waits for whichever callback
// fires first, folded into a result resolved exactly once.
func (o *Orchestrator) openCheckout(ctx context.Context, draft api.ApplicationDraft, order api.PaymentOrder) (api.PaymentResult, error) {
	done := newOneShot()

	opts := api.CheckoutOptions{
		Key:         order.GatewayKey,
		Amount:      order.Amount,
		Currency:    order.Currency,
		OrderID:     order.OrderID,
		Name:        draft.FirstName + " " + draft.LastName,
		Email:       draft.Email,
		Phone:       draft.Phone,
		Description: o.description,
	}

	cb := api.CheckoutCallbacks{
		OnSuccess: func(gatewayOrderID, gatewayPaymentID, signature string) {
			done.resolve(api.PaymentResult{
				Kind:             api.PaymentSucceeded,
				GatewayOrderID:   gatewayOrderID,
				GatewayPaymentID: gatewayPaymentID,
				Signature:        signature,
			})
		},
		OnDismiss: func() {
			done.resolve(api.PaymentResult{Kind: api.PaymentCancelled})
		},
		OnFailure: func(reason string) {
			done.resolve(api.PaymentResult{Kind: api.PaymentFailed, FailureReason: reason})
		},
	}

	if err := o.gateway.Open(ctx, opts, cb); err != nil {
		return api.PaymentResult{Kind: api.PaymentFailed}, err
	}

	return done.await(ctx)
}

// GatewayError reports that the gateway itself declined or failed the
// payment. Terminal for the attempt; retrying the whole step is the
// only recovery.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	if e.Reason == "" {
		return "payment failed at the gateway"
	}
	return "payment failed at the gateway: " + e.Reason
}

// oneShot is a single-shot result: resolved exactly once by whichever
// checkout callback fires first, no matter how many fire.
type oneShot struct {
	once sync.Once
	ch   chan api.PaymentResult
}

func newOneShot() *oneShot {
	return &oneShot{ch: make(chan api.PaymentResult, 1)}
}

func (s *oneShot) resolve(res api.PaymentResult) {
	s.once.Do(func() { s.ch <- res })
}

func (s *oneShot) await(ctx context.Context) (api.PaymentResult, error) {
	select {
	case res := <-s.ch:
		return res, nil
	case <-ctx.Done():
		return api.PaymentResult{Kind: api.PaymentCancelled}, ctx.Err()
	}
}
