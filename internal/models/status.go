package models

// ProblemStatus is the lifecycle state of a reported problem.
// The backend stores the Dutch choice values verbatim.
type ProblemStatus string

const (
	StatusReported   ProblemStatus = "Aangemeld"
	StatusInProgress ProblemStatus = "In behandeling"
	StatusEscalated  ProblemStatus = "Uitgezet bij OI"
	StatusResolved   ProblemStatus = "Opgelost"
)

// ProblemStatuses lists the problem states in lifecycle order.
var ProblemStatuses = []ProblemStatus{
	StatusReported,
	StatusInProgress,
	StatusEscalated,
	StatusResolved,
}

// problemTransitions is the set of allowed status changes for a problem.
// Opgelost may only be reopened back to In behandeling.
var problemTransitions = map[ProblemStatus][]ProblemStatus{
	StatusReported:   {StatusInProgress, StatusEscalated},
	StatusInProgress: {StatusEscalated, StatusResolved, StatusReported},
	StatusEscalated:  {StatusInProgress, StatusResolved},
	StatusResolved:   {StatusInProgress},
}

var statusColors = map[ProblemStatus]string{
	StatusReported:   "#ffc107",
	StatusInProgress: "#007bff",
	StatusEscalated:  "#28a745",
	StatusResolved:   "#6c757d",
}

const unknownStatusColor = "#868e96"

// Valid reports whether s is one of the known problem states.
func (s ProblemStatus) Valid() bool {
	_, ok := problemTransitions[s]
	return ok
}

// IsResolved reports whether the problem is closed.
func (s ProblemStatus) IsResolved() bool {
	return s == StatusResolved
}

// Color returns the display color used by the dashboard for the status.
func (s ProblemStatus) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return unknownStatusColor
}

// CanTransitionTo reports whether a problem in state s may move to next.
// Keeping the same status is always allowed.
func (s ProblemStatus) CanTransitionTo(next ProblemStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range problemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Location approval states ("Status B&S").
const (
	LocationStatusRequested  = "Aangevraagd"
	LocationStatusInProgress = "In behandeling"
	LocationStatusApproved   = "Instemming verleend"
)

// Offence categories ("Feitcodegroep").
const (
	CategoryTrafficSigns = "Verkeersborden"
	CategoryParking      = "Parkeren"
	CategoryDriving      = "Rijgedrag"
)

// Warning period flags.
const (
	WarningActiveYes = "Ja"
	WarningActiveNo  = "Nee"
)

// Reviewer actions ("Actie Beoordelaars").
const (
	ReviewerActionNone    = "Geen actie nodig"
	ReviewerActionRequest = "Verzuim opvragen"
	ReviewerActionHold    = "Vasthouden"
	ReviewerActionDestroy = "Vernietigen"
	ReviewerActionChange  = "Wijzigen"
	ReviewerActionConfirm = "Bekrachtigen"
)

// UnknownValue is used in breakdowns for problems without a status or category.
const UnknownValue = "Onbekend"
