package services

import (
	"math"
	"strings"
	"time"

	"github.com/BusselW/DDH3/internal/models"
)

// Priority ranks how urgently a problem (or location) needs attention.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityResolved Priority = "resolved"
)

// priorityRank orders priorities for sorting, most urgent first.
var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
	PriorityResolved: 4,
}

// StatusIndicator is the coarse location badge shown on the dashboard.
type StatusIndicator string

const (
	IndicatorUrgent StatusIndicator = "urgent"
	IndicatorBusy   StatusIndicator = "busy"
	IndicatorActive StatusIndicator = "active"
	IndicatorNormal StatusIndicator = "normal"
)

// Age thresholds in whole days.
const (
	reportedHighAfter     = 7
	reportedUrgentAfter   = 10
	reportedCriticalAfter = 14
	inProgressLateAfter   = 21
	overdueAfter          = 30
)

// EnrichedProblem is a problem with the attributes derived at view time.
type EnrichedProblem struct {
	models.Problem
	AgeDays              int      `json:"ageDays"`
	Priority             Priority `json:"priority"`
	IsUrgent             bool     `json:"isUrgent"`
	IsOverdue            bool     `json:"isOverdue"`
	StatusColor          string   `json:"statusColor"`
	LocationID           int      `json:"locationId"`
	LocationName         string   `json:"locationName"`
	LocationMunicipality string   `json:"locationMunicipality"`
	SearchText           string   `json:"-"`
}

// LocationStats aggregates the problems attached to one location.
type LocationStats struct {
	StatusBreakdown   map[string]int `json:"statusBreakdown"`
	CategoryBreakdown map[string]int `json:"categoryBreakdown"`
	TotalProblems     int            `json:"totalProblems"`
	ActiveProblems    int            `json:"activeProblems"`
	ResolvedProblems  int            `json:"resolvedProblems"`
	UrgentProblems    int            `json:"urgentProblems"`
	OverdueProblems   int            `json:"overdueProblems"`
	AverageAgeDays    int            `json:"averageAgeDays"`
}

// EnrichedLocation is a joined location with statistics and badges.
type EnrichedLocation struct {
	models.Location
	LocationStats
	Problems          []EnrichedProblem `json:"problems"`
	StatusIndicator   StatusIndicator   `json:"statusIndicator"`
	PriorityLevel     Priority          `json:"priorityLevel"`
	HasActiveProblems bool              `json:"hasActiveProblems"`
	HasUrgentProblems bool              `json:"hasUrgentProblems"`
	SearchText        string            `json:"-"`
}

// AgeDays is the number of whole days between createdAt and now. A
// problem without a creation date counts as created now.
func AgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	return int(math.Floor(now.Sub(createdAt).Hours() / 24))
}

// ProblemPriority derives the priority of a problem of the given age.
func ProblemPriority(status models.ProblemStatus, age int) Priority {
	switch {
	case status == models.StatusResolved:
		return PriorityResolved
	case status == models.StatusReported && age > reportedCriticalAfter:
		return PriorityCritical
	case status == models.StatusReported && age > reportedHighAfter:
		return PriorityHigh
	case status == models.StatusInProgress && age > inProgressLateAfter:
		return PriorityHigh
	case status == models.StatusInProgress:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsUrgent reports whether a problem has waited too long in its state.
func IsUrgent(status models.ProblemStatus, age int) bool {
	return (status == models.StatusReported && age > reportedUrgentAfter) ||
		(status == models.StatusInProgress && age > inProgressLateAfter)
}

// IsOverdue reports whether a problem is older than a month, whatever its
// status.
func IsOverdue(age int) bool {
	return age > overdueAfter
}

// LocationPriority derives the location priority from its statistics.
func LocationPriority(stats LocationStats) Priority {
	switch {
	case stats.UrgentProblems > 2:
		return PriorityCritical
	case stats.UrgentProblems > 0 || stats.ActiveProblems > 5:
		return PriorityHigh
	case stats.ActiveProblems > 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// LocationIndicator derives the location badge from its statistics.
func LocationIndicator(stats LocationStats) StatusIndicator {
	switch {
	case stats.UrgentProblems > 0:
		return IndicatorUrgent
	case stats.ActiveProblems > 3:
		return IndicatorBusy
	case stats.ActiveProblems > 0:
		return IndicatorActive
	default:
		return IndicatorNormal
	}
}

// EnrichProblem computes the derived attributes of p in the context of
// the location it is attached to.
func EnrichProblem(p models.Problem, loc models.Location, now time.Time) EnrichedProblem {
	age := AgeDays(p.CreatedAt, now)
	return EnrichedProblem{
		Problem:              p,
		AgeDays:              age,
		Priority:             ProblemPriority(p.Status, age),
		IsUrgent:             IsUrgent(p.Status, age),
		IsOverdue:            IsOverdue(age),
		StatusColor:          p.Status.Color(),
		LocationID:           loc.ID,
		LocationName:         loc.Name,
		LocationMunicipality: loc.Municipality,
		SearchText: strings.ToLower(strings.Join([]string{
			p.Description, p.Category, loc.Name, loc.Municipality,
		}, " ")),
	}
}

// ComputeStats aggregates enriched problems. Missing status or category
// values are counted under models.UnknownValue.
func ComputeStats(problems []EnrichedProblem) LocationStats {
	stats := LocationStats{
		StatusBreakdown:   map[string]int{},
		CategoryBreakdown: map[string]int{},
		TotalProblems:     len(problems),
	}
	if len(problems) == 0 {
		return stats
	}

	totalAge := 0
	for _, p := range problems {
		totalAge += p.AgeDays
		if p.Status.IsResolved() {
			stats.ResolvedProblems++
		} else {
			stats.ActiveProblems++
		}
		if p.IsUrgent {
			stats.UrgentProblems++
		}
		if p.IsOverdue {
			stats.OverdueProblems++
		}
		stats.StatusBreakdown[orUnknown(string(p.Status))]++
		stats.CategoryBreakdown[orUnknown(p.Category)]++
	}
	stats.AverageAgeDays = roundHalfUp(float64(totalAge) / float64(len(problems)))
	return stats
}

// EnrichLocation enriches every attached problem and derives the location
// statistics and badges. The input is not modified.
func EnrichLocation(loc models.Location, now time.Time) EnrichedLocation {
	problems := make([]EnrichedProblem, 0, len(loc.Problems))
	for _, p := range loc.Problems {
		problems = append(problems, EnrichProblem(p, loc, now))
	}
	stats := ComputeStats(problems)

	return EnrichedLocation{
		Location:          loc,
		LocationStats:     stats,
		Problems:          problems,
		StatusIndicator:   LocationIndicator(stats),
		PriorityLevel:     LocationPriority(stats),
		HasActiveProblems: stats.ActiveProblems > 0,
		HasUrgentProblems: stats.UrgentProblems > 0,
		SearchText:        strings.ToLower(loc.Name + " " + loc.Municipality + " " + loc.Category),
	}
}

// EnrichLocations enriches each location, keeping order.
func EnrichLocations(locations []models.Location, now time.Time) []EnrichedLocation {
	out := make([]EnrichedLocation, 0, len(locations))
	for _, loc := range locations {
		out = append(out, EnrichLocation(loc, now))
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return models.UnknownValue
	}
	return s
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
