// Package visaflow implements the student visa application submission
// pipeline: a four-step wizard that collects an application draft,
// persists progress in the background, collects a verified payment,
// and fans the completed application out to the downstream systems.
//
// # Core Concepts
//
// The visaflow programming model is intentionally small:
//
//  1. Session
//  2. Backend
//  3. Gateway
//  4. Observer
//
// # Session
//
// A Session is one applicant's run through the wizard. It owns the
// ApplicationDraft, validates each step's fields before a forward
// transition, prices the application, and drives the blocking
// payment-and-fan-out tail on Submit.
//
// The wizard has four steps: identity, academic, document, and
// payment. Advance validates the active step and moves forward;
// Retreat always moves back without validation. Leaving a step fires
// its persistence call in the background, so the applicant never waits
// for the server between screens.
//
// Example:
//
//	session, err := visaflow.NewSession(visaflow.SessionConfig{
//	    Backend: backend,
//	    Gateway: gateway,
//	})
//	if err != nil { ... }
//
//	session.SetIdentity("Jane", "Doe", "jane@example.com", "98765 43210", "Pune")
//	if err := session.Advance(ctx); err != nil { ... }
//	...
//	result, err := session.Submit(ctx)
//
// # Backend
//
// Backend is the server-side surface of the pipeline: lead creation,
// applicant upserts, document upload, payment orders and verification,
// and the post-payment fan-out calls. Three implementations ship with
// the package:
//
//   - NewHTTPBackend: the remote REST API (production)
//   - NewSQLiteBackend: embedded local storage
//   - NewMemoryBackend: in-memory, non-durable (tests, demos)
//
// # Gateway
//
// Gateway presents the hosted payment checkout. The real gateway is
// driven by its SDK; NewScriptedGateway provides a stand-in whose
// outcome is preconfigured, useful for development and end-to-end
// tests.
//
// Payment is the one blocking stage. While a checkout is open the
// price quote is frozen, so the amount charged is always the amount
// the applicant was shown. Verification happens server-side; the
// fan-out only runs after it succeeds.
//
// # Observer
//
// An Observer receives lifecycle callbacks: step transitions,
// background persistence settlements, payment progress, fan-out
// outcomes, and the final submission. NewLoggingObserver logs them
// with log/slog, BasicMetrics counts them, and NewCompositeObserver
// combines several observers.
//
// # Failure model
//
// Background persistence is best-effort: failures are observed and
// logged, never surfaced to the applicant. Payment failures are
// terminal for the attempt and retryable. After verified payment, the
// identity and CRM calls tolerate duplicates, while a failed
// completion call is fatal and reported as a CompletionError so it is
// never answered by charging the applicant again.
package visaflow
