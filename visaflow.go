package visaflow

import (
	"database/sql"
	"log/slog"

	"github.com/globalminds/visaflow/internal/backendhttp"
	"github.com/globalminds/visaflow/internal/gatewaysim"
	"github.com/globalminds/visaflow/internal/localbackend"
	"github.com/globalminds/visaflow/internal/pricing"
	"github.com/globalminds/visaflow/pkg/api"
)

// Re-exported core types so that most applications only need to import
// the root package.
type (
	Step             = api.Step
	Status           = api.Status
	ApplicationDraft = api.ApplicationDraft
	DocumentRef      = api.DocumentRef
	FieldErrors      = api.FieldErrors

	Coupon       = api.Coupon
	CouponTable  = api.CouponTable
	CouponType   = api.CouponType
	FeeComponent = api.FeeComponent
	FeeSchedule  = api.FeeSchedule
	PricingQuote = api.PricingQuote

	PaymentOrder      = api.PaymentOrder
	PaymentResult     = api.PaymentResult
	PaymentResultKind = api.PaymentResultKind
	CheckoutOptions   = api.CheckoutOptions
	CheckoutCallbacks = api.CheckoutCallbacks
	Gateway           = api.Gateway

	Backend       = api.Backend
	FanOutSystem  = api.FanOutSystem
	FanOutStatus  = api.FanOutStatus
	FanOutOutcome = api.FanOutOutcome

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	StepRejectedError = api.StepRejectedError
	DuplicateError    = api.DuplicateError
	CompletionError   = api.CompletionError
	ValidationError   = api.ValidationError
)

// Wizard steps and session statuses.
const (
	StepIdentity = api.StepIdentity
	StepAcademic = api.StepAcademic
	StepDocument = api.StepDocument
	StepPayment  = api.StepPayment

	StatusInProgress = api.StatusInProgress
	StatusSubmitted  = api.StatusSubmitted
	StatusAbandoned  = api.StatusAbandoned
)

// Coupon types, payment results, and fan-out statuses.
const (
	CouponFlat    = api.CouponFlat
	CouponPercent = api.CouponPercent

	PaymentSucceeded = api.PaymentSucceeded
	PaymentCancelled = api.PaymentCancelled
	PaymentFailed    = api.PaymentFailed

	FanOutCreated       = api.FanOutCreated
	FanOutAlreadyExists = api.FanOutAlreadyExists
	FanOutFailed        = api.FanOutFailed

	SystemIdentity   = api.SystemIdentity
	SystemCRM        = api.SystemCRM
	SystemCompletion = api.SystemCompletion
)

// Re-exported sentinel errors.
var (
	ErrInvalidCoupon      = api.ErrInvalidCoupon
	ErrQuoteFrozen        = api.ErrQuoteFrozen
	ErrPaymentInFlight    = api.ErrPaymentInFlight
	ErrPaymentCancelled   = api.ErrPaymentCancelled
	ErrVerificationFailed = api.ErrVerificationFailed
	ErrConfirmAbandon     = api.ErrConfirmAbandon
	ErrAlreadySubmitted   = api.ErrAlreadySubmitted
)

// IsDuplicate reports whether err signals an already-existing record in
// a downstream system.
func IsDuplicate(err error) bool { return api.IsDuplicate(err) }

// IsCompletionFailure reports whether err is the fatal post-payment
// completion failure, as opposed to a payment failure.
func IsCompletionFailure(err error) bool { return api.IsCompletionFailure(err) }

// DefaultFeeSchedule returns the production fee schedule.
func DefaultFeeSchedule() FeeSchedule { return pricing.DefaultSchedule() }

// DefaultCouponTable returns the production coupon table.
func DefaultCouponTable() CouponTable { return pricing.DefaultCoupons() }

// NewLoggingObserver creates an Observer that logs pipeline events with
// log/slog. A nil logger falls back to slog.Default().
func NewLoggingObserver(logger *slog.Logger) Observer { return api.NewLoggingObserver(logger) }

// NewCompositeObserver combines several observers into one.
func NewCompositeObserver(obs ...Observer) Observer { return api.NewCompositeObserver(obs...) }

// HTTPBackendConfig configures NewHTTPBackend.
type HTTPBackendConfig = backendhttp.Config

// NewHTTPBackend creates a Backend that talks to the remote REST API.
func NewHTTPBackend(cfg HTTPBackendConfig) Backend { return backendhttp.New(cfg) }

// NewMemoryBackend creates an in-memory Backend, non-durable and best
// suited for tests and demos. Payment signatures are verified against
// the given gateway secret.
func NewMemoryBackend(secret string) Backend { return localbackend.NewMemoryBackend(secret) }

// NewSQLiteBackend creates a SQLite-backed Backend, initializing the
// schema in db. The caller is responsible for importing a SQLite
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
func NewSQLiteBackend(db *sql.DB, secret string) (Backend, error) {
	return localbackend.NewSQLiteBackend(db, secret)
}

// ScriptedGatewayConfig configures NewScriptedGateway.
type ScriptedGatewayConfig = gatewaysim.Config

// Scripted checkout outcomes.
const (
	GatewaySucceed = gatewaysim.Succeed
	GatewayDismiss = gatewaysim.Dismiss
	GatewayFail    = gatewaysim.Fail
)

// NewScriptedGateway creates a Gateway that resolves every checkout
// according to a preconfigured outcome. Useful for demos and
// end-to-end tests.
func NewScriptedGateway(cfg ScriptedGatewayConfig) Gateway { return gatewaysim.New(cfg) }
