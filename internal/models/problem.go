package models

import "time"

// Principal is a user reference resolved from the backend user directory.
type Principal struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	LoginName   string `json:"loginName,omitempty"`
	ID          int    `json:"id"`
}

// Problem is one reported issue ("Problemen pleeglocaties" list item).
// Title is expected, but not enforced, to equal the owning location's name.
type Problem struct {
	CreatedAt      time.Time     `json:"createdAt"`
	Reporter       *Principal    `json:"reporter,omitempty"`
	Owner          *Principal    `json:"owner,omitempty"`
	Reviewer       *Principal    `json:"reviewer,omitempty"`
	Title          string        `json:"title"`
	Municipality   string        `json:"municipality"`
	Description    string        `json:"description"`
	Category       string        `json:"category"`
	Status         ProblemStatus `json:"status"`
	ReviewerAction string        `json:"reviewerAction"`
	// BackendKey is the list's own calculated "ProbleemID" value. It is
	// carried for diagnostics only; joining always recomputes the key.
	BackendKey string `json:"backendKey,omitempty"`
	ID         int    `json:"id"`
}

// ProblemInput is the payload of the "report problem" action. When
// LocationID is set, municipality, title and category default to the
// values of that location.
type ProblemInput struct {
	CreatedAt      *time.Time     `json:"createdAt"`
	LocationID     *int           `json:"locationId" binding:"omitempty,gt=0"`
	OwnerID        *int           `json:"ownerId" binding:"omitempty,gt=0"`
	ReporterID     *int           `json:"reporterId" binding:"omitempty,gt=0"`
	ReviewerID     *int           `json:"reviewerId" binding:"omitempty,gt=0"`
	Municipality   string         `json:"municipality" binding:"required_without=LocationID,omitempty,min=2,max=50"`
	Title          string         `json:"title" binding:"required_without=LocationID,omitempty,max=255"`
	Description    string         `json:"description" binding:"required,min=10,max=2000"`
	Category       string         `json:"category" binding:"omitempty,oneof=Verkeersborden Parkeren Rijgedrag"`
	Status         ProblemStatus  `json:"status" binding:"omitempty,oneof=Aangemeld 'In behandeling' 'Uitgezet bij OI' Opgelost"`
	ReviewerAction string         `json:"reviewerAction" binding:"omitempty,oneof='Geen actie nodig' 'Verzuim opvragen' Vasthouden Vernietigen Wijzigen Bekrachtigen"`
}

// ProblemPatch is a partial update of a problem. Only non-nil fields are
// sent to the backend.
type ProblemPatch struct {
	Title          *string        `json:"title" binding:"omitempty,min=1,max=255"`
	Municipality   *string        `json:"municipality" binding:"omitempty,min=2,max=50"`
	Description    *string        `json:"description" binding:"omitempty,min=10,max=2000"`
	Category       *string        `json:"category" binding:"omitempty,oneof=Verkeersborden Parkeren Rijgedrag"`
	Status         *ProblemStatus `json:"status" binding:"omitempty,oneof=Aangemeld 'In behandeling' 'Uitgezet bij OI' Opgelost"`
	ReviewerAction *string        `json:"reviewerAction" binding:"omitempty,oneof='Geen actie nodig' 'Verzuim opvragen' Vasthouden Vernietigen Wijzigen Bekrachtigen"`
	OwnerID        *int           `json:"ownerId" binding:"omitempty,gt=0"`
	ReporterID     *int           `json:"reporterId" binding:"omitempty,gt=0"`
	ReviewerID     *int           `json:"reviewerId" binding:"omitempty,gt=0"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProblemPatch) IsEmpty() bool {
	return p.Title == nil && p.Municipality == nil && p.Description == nil &&
		p.Category == nil && p.Status == nil && p.ReviewerAction == nil &&
		p.OwnerID == nil && p.ReporterID == nil && p.ReviewerID == nil
}
