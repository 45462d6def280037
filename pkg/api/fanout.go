package api

// FanOutSystem names one downstream system of the post-payment fan-out.
type FanOutSystem string

const (
	SystemIdentity   FanOutSystem = "identity-provisioning"
	SystemCRM        FanOutSystem = "crm-invite"
	SystemCompletion FanOutSystem = "completion"
)

// FanOutStatus is the per-system result of the fan-out.
type FanOutStatus string

const (
	// FanOutCreated means the system accepted a new record.
	FanOutCreated FanOutStatus = "CREATED"

	// FanOutAlreadyExists means the system already knew this applicant.
	// For identity provisioning and CRM invites this counts as success.
	FanOutAlreadyExists FanOutStatus = "ALREADY_EXISTS"

	// FanOutFailed means the call failed. Fatal only for the
	// completion system.
	FanOutFailed FanOutStatus = "FAILED"
)

// FanOutOutcome records what happened for one downstream system.
// Err is set only when Status is FanOutFailed.
type FanOutOutcome struct {
	System FanOutSystem
	Status FanOutStatus
	Err    error
}
