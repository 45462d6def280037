// Package gatewaysim provides a scripted checkout gateway for demos
// and end-to-end tests. It stands in for the real hosted checkout,
// resolving each presentation according to a preconfigured outcome.
package gatewaysim

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/globalminds/visaflow/internal/gatewaysig"
	"github.com/globalminds/visaflow/pkg/api"
)

// Outcome scripts how a presented checkout resolves.
type Outcome int

const (
	// Succeed completes the payment with a valid signature.
	Succeed Outcome = iota
	// Dismiss closes the dialog without paying.
	Dismiss
	// Fail reports a gateway-side payment failure.
	Fail
)

// Config scripts the gateway's behavior.
type Config struct {
	// Secret signs successful payments; verification against the same
	// secret will pass.
	Secret string

	// Outcome applied to every Open. Defaults to Succeed.
	Outcome Outcome

	// FailureReason is reported when Outcome is Fail.
	FailureReason string

	// LoadErr, when set, makes Load fail.
	LoadErr error
}

// Gateway is a scripted api.Gateway.
type Gateway struct {
	cfg Config

	loadOnce sync.Once
	opens    atomic.Int64
}

var _ api.Gateway = (*Gateway)(nil)

// New creates a scripted Gateway.
func New(cfg Config) *Gateway {
	return &Gateway{cfg: cfg}
}

// Load simulates fetching the checkout script. Idempotent: repeated
// calls after a successful load do no further work.
func (g *Gateway) Load(ctx context.Context) error {
	if g.cfg.LoadErr != nil {
		return g.cfg.LoadErr
	}
	g.loadOnce.Do(func() {})
	return nil
}

// Open presents the checkout and resolves it asynchronously according
// to the scripted outcome, as the hosted dialog would.
func (g *Gateway) Open(ctx context.Context, opts api.CheckoutOptions, cb api.CheckoutCallbacks) error {
	g.opens.Add(1)
	go func() {
		switch g.cfg.Outcome {
		case Dismiss:
			cb.OnDismiss()
		case Fail:
			cb.OnFailure(g.cfg.FailureReason)
		default:
			paymentID := "pay_" + uuid.NewString()
			cb.OnSuccess(opts.OrderID, paymentID, gatewaysig.Sign(opts.OrderID, paymentID, g.cfg.Secret))
		}
	}()
	return nil
}

// Opens reports how many times a checkout was presented.
func (g *Gateway) Opens() int64 {
	return g.opens.Load()
}
