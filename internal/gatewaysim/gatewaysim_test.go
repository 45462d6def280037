package gatewaysim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/globalminds/visaflow/internal/gatewaysig"
	"github.com/globalminds/visaflow/pkg/api"
)

func await(t *testing.T, ch <-chan api.PaymentResult) api.PaymentResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(time.Second):
		t.Fatal("checkout never resolved")
		return api.PaymentResult{}
	}
}

func open(t *testing.T, g *Gateway, opts api.CheckoutOptions) <-chan api.PaymentResult {
	t.Helper()
	ch := make(chan api.PaymentResult, 1)
	err := g.Open(context.Background(), opts, api.CheckoutCallbacks{
		OnSuccess: func(orderID, paymentID, sig string) {
			ch <- api.PaymentResult{
				Kind:             api.PaymentSucceeded,
				GatewayOrderID:   orderID,
				GatewayPaymentID: paymentID,
				Signature:        sig,
			}
		},
		OnDismiss: func() { ch <- api.PaymentResult{Kind: api.PaymentCancelled} },
		OnFailure: func(reason string) {
			ch <- api.PaymentResult{Kind: api.PaymentFailed, FailureReason: reason}
		},
	})
	require.NoError(t, err)
	return ch
}

func TestSuccessCarriesValidSignature(t *testing.T) {
	t.Parallel()

	g := New(Config{Secret: "s3cr3t"})
	require.NoError(t, g.Load(context.Background()))

	res := await(t, open(t, g, api.CheckoutOptions{OrderID: "order_1"}))

	require.Equal(t, api.PaymentSucceeded, res.Kind)
	require.Equal(t, "order_1", res.GatewayOrderID)
	require.NotEmpty(t, res.GatewayPaymentID)
	require.True(t, gatewaysig.Verify(res.GatewayOrderID, res.GatewayPaymentID, "s3cr3t", res.Signature))
}

func TestScriptedDismissAndFailure(t *testing.T) {
	t.Parallel()

	dismissed := await(t, open(t, New(Config{Outcome: Dismiss}), api.CheckoutOptions{}))
	require.Equal(t, api.PaymentCancelled, dismissed.Kind)

	failed := await(t, open(t, New(Config{Outcome: Fail, FailureReason: "card declined"}), api.CheckoutOptions{}))
	require.Equal(t, api.PaymentFailed, failed.Kind)
	require.Equal(t, "card declined", failed.FailureReason)
}

func TestLoadFailure(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("script blocked")
	g := New(Config{LoadErr: loadErr})
	require.ErrorIs(t, g.Load(context.Background()), loadErr)
}

func TestLoadIsIdempotent(t *testing.T) {
	t.Parallel()

	g := New(Config{})
	for range 3 {
		require.NoError(t, g.Load(context.Background()))
	}
}
