package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var m BasicMetrics
	m.OnStepAdvanced(ctx, StepIdentity, StepAcademic)
	m.OnStepAdvanced(ctx, StepAcademic, StepDocument)
	m.OnStepRejected(ctx, StepIdentity, FieldErrors{"email": "bad"})

	m.OnPersistDispatched(ctx, "create-lead")
	m.OnPersistSettled(ctx, "create-lead", errors.New("boom"), time.Millisecond)
	m.OnPersistSettled(ctx, "upsert-applicant", nil, time.Millisecond)

	m.OnPaymentStarted(ctx, PricingQuote{})
	m.OnPaymentSettled(ctx, PaymentResult{Kind: PaymentSucceeded}, nil)
	m.OnPaymentSettled(ctx, PaymentResult{Kind: PaymentCancelled}, ErrPaymentCancelled)
	m.OnPaymentSettled(ctx, PaymentResult{Kind: PaymentSucceeded}, ErrVerificationFailed)

	m.OnFanOutSettled(ctx, FanOutOutcome{System: SystemIdentity, Status: FanOutAlreadyExists})
	m.OnSubmitted(ctx, "lead-1", "app-1")
	m.OnSubmissionFailed(ctx, errors.New("later"))

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap.StepsAdvanced)
	require.Equal(t, int64(1), snap.StepsRejected)
	require.Equal(t, int64(1), snap.PersistDispatched)
	require.Equal(t, int64(1), snap.PersistFailed)
	require.Equal(t, int64(1), snap.PaymentsStarted)
	require.Equal(t, int64(1), snap.PaymentsSucceeded)
	require.Equal(t, int64(1), snap.PaymentsCancelled)
	require.Equal(t, int64(1), snap.PaymentsFailed, "gateway success with failed verification counts as a failed payment")
	require.Equal(t, int64(1), snap.FanOutDuplicates)
	require.Equal(t, int64(1), snap.Submissions)
	require.Equal(t, int64(1), snap.SubmissionsFailed)
}

func TestCompositeObserverFansOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var a, b BasicMetrics
	obs := NewCompositeObserver(&a, nil, &b)

	obs.OnStepAdvanced(ctx, StepIdentity, StepAcademic)
	obs.OnSubmitted(ctx, "lead-1", "app-1")

	require.Equal(t, int64(1), a.Snapshot().StepsAdvanced)
	require.Equal(t, int64(1), b.Snapshot().StepsAdvanced)
	require.Equal(t, int64(1), a.Snapshot().Submissions)
	require.Equal(t, int64(1), b.Snapshot().Submissions)
}

func TestCompositeObserverCollapsesTrivialCases(t *testing.T) {
	t.Parallel()

	require.IsType(t, NoopObserver{}, NewCompositeObserver())
	require.IsType(t, NoopObserver{}, NewCompositeObserver(nil, nil))

	var m BasicMetrics
	require.Same(t, &m, NewCompositeObserver(&m))
}

func TestStepString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "identity", StepIdentity.String())
	require.Equal(t, "payment", StepPayment.String())
	require.Equal(t, "unknown", Step(99).String())
}

func TestDraftEmpty(t *testing.T) {
	t.Parallel()

	require.True(t, ApplicationDraft{}.Empty())
	require.False(t, ApplicationDraft{FirstName: "J"}.Empty())
	require.False(t, ApplicationDraft{Document: &DocumentRef{FileName: "a.pdf"}}.Empty())
}
