package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the submission pipeline for logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay the wizard.
type Observer interface {
	// OnStepAdvanced is called after a successful forward transition.
	OnStepAdvanced(ctx context.Context, from, to Step)

	// OnStepRejected is called when Advance is blocked by validation.
	OnStepRejected(ctx context.Context, step Step, fields FieldErrors)

	// OnPersistDispatched is called when a background persistence call
	// is fired, before it completes.
	OnPersistDispatched(ctx context.Context, call string)

	// OnPersistSettled is called when a background persistence call
	// resolves, for both successes and failures (err != nil). Failures
	// have no other surface; they never block the wizard.
	OnPersistSettled(ctx context.Context, call string, err error, duration time.Duration)

	// OnPaymentStarted is called once per submission attempt with the
	// frozen quote the applicant was shown.
	OnPaymentStarted(ctx context.Context, quote PricingQuote)

	// OnPaymentSettled is called when the payment attempt resolves.
	OnPaymentSettled(ctx context.Context, result PaymentResult, err error)

	// OnFanOutSettled is called once per downstream system after
	// verified payment.
	OnFanOutSettled(ctx context.Context, outcome FanOutOutcome)

	// OnSubmitted is called exactly once when the canonical completion
	// call succeeds.
	OnSubmitted(ctx context.Context, leadID, visaApplicantID string)

	// OnSubmissionFailed is called when a submission attempt ends in a
	// user-facing error.
	OnSubmissionFailed(ctx context.Context, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnStepAdvanced(ctx context.Context, from, to Step)                 {}
func (NoopObserver) OnStepRejected(ctx context.Context, step Step, fields FieldErrors) {}
func (NoopObserver) OnPersistDispatched(ctx context.Context, call string)              {}
func (NoopObserver) OnPersistSettled(ctx context.Context, call string, err error, d time.Duration) {
}
func (NoopObserver) OnPaymentStarted(ctx context.Context, quote PricingQuote)              {}
func (NoopObserver) OnPaymentSettled(ctx context.Context, result PaymentResult, err error) {}
func (NoopObserver) OnFanOutSettled(ctx context.Context, outcome FanOutOutcome)            {}
func (NoopObserver) OnSubmitted(ctx context.Context, leadID, visaApplicantID string)       {}
func (NoopObserver) OnSubmissionFailed(ctx context.Context, err error)                     {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnStepAdvanced(ctx context.Context, from, to Step) {
	for _, o := range c.observers {
		o.OnStepAdvanced(ctx, from, to)
	}
}

func (c *CompositeObserver) OnStepRejected(ctx context.Context, step Step, fields FieldErrors) {
	for _, o := range c.observers {
		o.OnStepRejected(ctx, step, fields)
	}
}

func (c *CompositeObserver) OnPersistDispatched(ctx context.Context, call string) {
	for _, o := range c.observers {
		o.OnPersistDispatched(ctx, call)
	}
}

func (c *CompositeObserver) OnPersistSettled(ctx context.Context, call string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnPersistSettled(ctx, call, err, d)
	}
}

func (c *CompositeObserver) OnPaymentStarted(ctx context.Context, quote PricingQuote) {
	for _, o := range c.observers {
		o.OnPaymentStarted(ctx, quote)
	}
}

func (c *CompositeObserver) OnPaymentSettled(ctx context.Context, result PaymentResult, err error) {
	for _, o := range c.observers {
		o.OnPaymentSettled(ctx, result, err)
	}
}

func (c *CompositeObserver) OnFanOutSettled(ctx context.Context, outcome FanOutOutcome) {
	for _, o := range c.observers {
		o.OnFanOutSettled(ctx, outcome)
	}
}

func (c *CompositeObserver) OnSubmitted(ctx context.Context, leadID, visaApplicantID string) {
	for _, o := range c.observers {
		o.OnSubmitted(ctx, leadID, visaApplicantID)
	}
}

func (c *CompositeObserver) OnSubmissionFailed(ctx context.Context, err error) {
	for _, o := range c.observers {
		o.OnSubmissionFailed(ctx, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs pipeline lifecycle
// events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnStepAdvanced(ctx context.Context, from, to Step) {
	o.Logger.InfoContext(ctx, "step_advanced",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func (o *LoggingObserver) OnStepRejected(ctx context.Context, step Step, fields FieldErrors) {
	o.Logger.InfoContext(ctx, "step_rejected",
		slog.String("step", step.String()),
		slog.Int("field_errors", len(fields)),
	)
}

func (o *LoggingObserver) OnPersistDispatched(ctx context.Context, call string) {
	o.Logger.DebugContext(ctx, "persist_dispatched",
		slog.String("call", call),
	)
}

func (o *LoggingObserver) OnPersistSettled(ctx context.Context, call string, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "persist_settled",
		slog.String("call", call),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPaymentStarted(ctx context.Context, quote PricingQuote) {
	o.Logger.InfoContext(ctx, "payment_started",
		slog.String("total", quote.Total.String()),
		slog.String("coupon", quote.AppliedCoupon),
	)
}

func (o *LoggingObserver) OnPaymentSettled(ctx context.Context, result PaymentResult, err error) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "payment_settled",
		slog.String("kind", string(result.Kind)),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnFanOutSettled(ctx context.Context, outcome FanOutOutcome) {
	level := slog.LevelInfo
	if outcome.Status == FanOutFailed {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "fanout_settled",
		slog.String("system", string(outcome.System)),
		slog.String("status", string(outcome.Status)),
		slog.Any("error", outcome.Err),
	)
}

func (o *LoggingObserver) OnSubmitted(ctx context.Context, leadID, visaApplicantID string) {
	o.Logger.InfoContext(ctx, "application_submitted",
		slog.String("lead_id", leadID),
		slog.String("visa_applicant_id", visaApplicantID),
	)
}

func (o *LoggingObserver) OnSubmissionFailed(ctx context.Context, err error) {
	o.Logger.ErrorContext(ctx, "submission_failed",
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters for the pipeline.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	stepsAdvanced     atomic.Int64
	stepsRejected     atomic.Int64
	persistDispatched atomic.Int64
	persistFailed     atomic.Int64
	paymentsStarted   atomic.Int64
	paymentsSucceeded atomic.Int64
	paymentsCancelled atomic.Int64
	paymentsFailed    atomic.Int64
	fanOutDuplicates  atomic.Int64
	submissions       atomic.Int64
	submissionsFailed atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	StepsAdvanced     int64
	StepsRejected     int64
	PersistDispatched int64
	PersistFailed     int64
	PaymentsStarted   int64
	PaymentsSucceeded int64
	PaymentsCancelled int64
	PaymentsFailed    int64
	FanOutDuplicates  int64
	Submissions       int64
	SubmissionsFailed int64
}

func (m *BasicMetrics) OnStepAdvanced(ctx context.Context, from, to Step) {
	m.stepsAdvanced.Add(1)
}

func (m *BasicMetrics) OnStepRejected(ctx context.Context, step Step, fields FieldErrors) {
	m.stepsRejected.Add(1)
}

func (m *BasicMetrics) OnPersistDispatched(ctx context.Context, call string) {
	m.persistDispatched.Add(1)
}

func (m *BasicMetrics) OnPersistSettled(ctx context.Context, call string, err error, d time.Duration) {
	if err != nil {
		m.persistFailed.Add(1)
	}
}

func (m *BasicMetrics) OnPaymentStarted(ctx context.Context, quote PricingQuote) {
	m.paymentsStarted.Add(1)
}

func (m *BasicMetrics) OnPaymentSettled(ctx context.Context, result PaymentResult, err error) {
	switch result.Kind {
	case PaymentSucceeded:
		if err == nil {
			m.paymentsSucceeded.Add(1)
		} else {
			// Gateway success but server-side verification rejected it.
			m.paymentsFailed.Add(1)
		}
	case PaymentCancelled:
		m.paymentsCancelled.Add(1)
	default:
		m.paymentsFailed.Add(1)
	}
}

func (m *BasicMetrics) OnFanOutSettled(ctx context.Context, outcome FanOutOutcome) {
	if outcome.Status == FanOutAlreadyExists {
		m.fanOutDuplicates.Add(1)
	}
}

func (m *BasicMetrics) OnSubmitted(ctx context.Context, leadID, visaApplicantID string) {
	m.submissions.Add(1)
}

func (m *BasicMetrics) OnSubmissionFailed(ctx context.Context, err error) {
	m.submissionsFailed.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	return BasicMetricsSnapshot{
		StepsAdvanced:     m.stepsAdvanced.Load(),
		StepsRejected:     m.stepsRejected.Load(),
		PersistDispatched: m.persistDispatched.Load(),
		PersistFailed:     m.persistFailed.Load(),
		PaymentsStarted:   m.paymentsStarted.Load(),
		PaymentsSucceeded: m.paymentsSucceeded.Load(),
		PaymentsCancelled: m.paymentsCancelled.Load(),
		PaymentsFailed:    m.paymentsFailed.Load(),
		FanOutDuplicates:  m.fanOutDuplicates.Load(),
		Submissions:       m.submissions.Load(),
		SubmissionsFailed: m.submissionsFailed.Load(),
	}
}
