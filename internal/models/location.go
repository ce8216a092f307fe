package models

import "time"

// DocumentLink is a described hyperlink stored in a URL-typed list field.
type DocumentLink struct {
	Description string `json:"description"`
	URL         string `json:"url" binding:"required,url"`
}

// Location is one enforcement site ("Digitale handhaving" list item).
// Problems and ProblemCount are attached by the joiner at view time and
// are never written back to the backend.
type Location struct {
	WarningStart      *time.Time    `json:"warningStart,omitempty"`
	WarningEnd        *time.Time    `json:"warningEnd,omitempty"`
	LastInspection    *time.Time    `json:"lastInspection,omitempty"`
	ContactEmail      *string       `json:"contactEmail"`
	GeneralReport     *DocumentLink `json:"generalReport"`
	InspectionReports *DocumentLink `json:"inspectionReports"`
	ConsentDecision   *DocumentLink `json:"consentDecision"`
	Municipality      string        `json:"municipality"`
	Name              string        `json:"name"`
	Status            string        `json:"status"`
	Category          string        `json:"category"`
	WarningActive     string        `json:"warningActive"`
	MatchingKey       string        `json:"matchingKey,omitempty"`
	Problems          []Problem     `json:"problems"`
	ProblemCount      int           `json:"problemCount"`
	ID                int           `json:"id"`
}

// LocationInput is the payload of the "create location" action.
type LocationInput struct {
	WarningStart      *time.Time    `json:"warningStart"`
	WarningEnd        *time.Time    `json:"warningEnd"`
	LastInspection    *time.Time    `json:"lastInspection"`
	ContactEmail      *string       `json:"contactEmail" binding:"omitempty,email"`
	GeneralReport     *DocumentLink `json:"generalReport" binding:"omitempty"`
	InspectionReports *DocumentLink `json:"inspectionReports" binding:"omitempty"`
	ConsentDecision   *DocumentLink `json:"consentDecision" binding:"omitempty"`
	Municipality      string        `json:"municipality" binding:"required,min=2,max=50"`
	Name              string        `json:"name" binding:"required,max=255"`
	Status            string        `json:"status" binding:"omitempty,oneof='Aangevraagd' 'In behandeling' 'Instemming verleend'"`
	Category          string        `json:"category" binding:"omitempty,oneof=Verkeersborden Parkeren Rijgedrag"`
	WarningActive     string        `json:"warningActive" binding:"omitempty,oneof=Ja Nee"`
}

// LocationPatch is a partial update of a location. Only non-nil fields
// are sent to the backend; everything else keeps its stored value.
type LocationPatch struct {
	Municipality      *string       `json:"municipality" binding:"omitempty,min=2,max=50"`
	Name              *string       `json:"name" binding:"omitempty,min=1,max=255"`
	Status            *string       `json:"status" binding:"omitempty,oneof='Aangevraagd' 'In behandeling' 'Instemming verleend'"`
	Category          *string       `json:"category" binding:"omitempty,oneof=Verkeersborden Parkeren Rijgedrag"`
	WarningActive     *string       `json:"warningActive" binding:"omitempty,oneof=Ja Nee"`
	ContactEmail      *string       `json:"contactEmail" binding:"omitempty,email"`
	GeneralReport     *DocumentLink `json:"generalReport" binding:"omitempty"`
	InspectionReports *DocumentLink `json:"inspectionReports" binding:"omitempty"`
	ConsentDecision   *DocumentLink `json:"consentDecision" binding:"omitempty"`
	WarningStart      *time.Time    `json:"warningStart"`
	WarningEnd        *time.Time    `json:"warningEnd"`
	LastInspection    *time.Time    `json:"lastInspection"`
}

// IsEmpty reports whether the patch changes nothing.
func (p LocationPatch) IsEmpty() bool {
	return p.Municipality == nil && p.Name == nil && p.Status == nil &&
		p.Category == nil && p.WarningActive == nil && p.ContactEmail == nil &&
		p.GeneralReport == nil && p.InspectionReports == nil && p.ConsentDecision == nil &&
		p.WarningStart == nil && p.WarningEnd == nil && p.LastInspection == nil
}
