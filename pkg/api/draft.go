package api

// Step identifies one screen of the application wizard.
type Step int

const (
	StepIdentity Step = iota + 1
	StepAcademic
	StepDocument
	StepPayment
)

// FirstStep and LastStep bound the forward/backward transitions.
const (
	FirstStep = StepIdentity
	LastStep  = StepPayment
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepAcademic:
		return "academic"
	case StepDocument:
		return "document"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// Status represents the lifecycle state of a wizard session.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSubmitted  Status = "SUBMITTED"
	StatusAbandoned  Status = "ABANDONED"
)

// DocumentRef is the single uploaded document attached to a draft,
// held in memory for the lifetime of the session.
type DocumentRef struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ApplicationDraft is the accumulated form data of one wizard session.
// It is created on wizard entry and discarded on abandonment or
// successful submission; it never outlives the session.
//
// LeadID and VisaApplicantID are assigned asynchronously by the backend.
// VisaApplicantID is only ever exposed once LeadID exists.
type ApplicationDraft struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string

	Country    string
	University string
	Course     string
	Intake     string

	Document *DocumentRef

	LeadID          string
	VisaApplicantID string
}

// Empty reports whether the draft holds no user-entered data at all.
// An empty draft may be discarded without confirmation.
func (d ApplicationDraft) Empty() bool {
	return d.FirstName == "" &&
		d.LastName == "" &&
		d.Email == "" &&
		d.Phone == "" &&
		d.City == "" &&
		d.Country == "" &&
		d.University == "" &&
		d.Course == "" &&
		d.Intake == "" &&
		d.Document == nil
}

// FieldErrors maps a field name to a human-readable error message.
// It is recomputed on every input change; a step may only advance
// when the map for that step is empty.
type FieldErrors map[string]string
