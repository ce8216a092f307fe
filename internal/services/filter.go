package services

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort orders accepted by FilterOptions.SortBy.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortPriority = "priority"
	SortLocation = "location"
)

// Time ranges accepted by FilterOptions.TimeRange.
const (
	RangeRecent = "recent"
	RangeWeek   = "week"
	RangeMonth  = "month"
)

// FilterOptions selects, orders and truncates the flattened problem list.
// Empty fields do not filter. Bound from query parameters by the handlers.
type FilterOptions struct {
	Municipality string   `form:"municipality" json:"municipality,omitempty"`
	Status       string   `form:"status" json:"status,omitempty"`
	Category     string   `form:"category" json:"category,omitempty"`
	Priority     Priority `form:"priority" json:"priority,omitempty" binding:"omitempty,oneof=critical high medium low resolved"`
	TimeRange    string   `form:"timeRange" json:"timeRange,omitempty" binding:"omitempty,oneof=recent week month"`
	SearchTerm   string   `form:"q" json:"searchTerm,omitempty"`
	SortBy       string   `form:"sortBy" json:"sortBy,omitempty" binding:"omitempty,oneof=newest oldest priority location"`
	Limit        int      `form:"limit" json:"limit,omitempty" binding:"omitempty,min=0"`
}

// FilterMetadata summarizes the problems of a filter result.
type FilterMetadata struct {
	StatusCounts       map[string]int   `json:"statusCounts"`
	CategoryCounts     map[string]int   `json:"categoryCounts"`
	PriorityCounts     map[string]int   `json:"priorityCounts"`
	MunicipalityCounts map[string]int   `json:"municipalityCounts"`
	AverageAgeDays     int              `json:"averageAgeDays"`
	OldestProblem      *EnrichedProblem `json:"oldestProblem"`
	NewestProblem      *EnrichedProblem `json:"newestProblem"`
}

// FilterResult is the answer to a problem query. TotalCount counts every
// attached problem before filtering; FilteredCount counts the returned ones.
type FilterResult struct {
	Problems      []EnrichedProblem `json:"problems"`
	TotalCount    int               `json:"totalCount"`
	FilteredCount int               `json:"filteredCount"`
	Filters       FilterOptions     `json:"filters"`
	Metadata      FilterMetadata    `json:"metadata"`
}

// FlattenProblems lists the problems of every location in location order.
func FlattenProblems(locations []EnrichedLocation) []EnrichedProblem {
	n := 0
	for _, loc := range locations {
		n += len(loc.Problems)
	}
	out := make([]EnrichedProblem, 0, n)
	for _, loc := range locations {
		out = append(out, loc.Problems...)
	}
	return out
}

// FilterProblems flattens the locations, applies every set predicate,
// sorts stably and truncates. Metadata describes the returned problems.
func FilterProblems(locations []EnrichedLocation, opts FilterOptions) FilterResult {
	all := FlattenProblems(locations)
	term := strings.ToLower(strings.TrimSpace(opts.SearchTerm))

	filtered := make([]EnrichedProblem, 0, len(all))
	for _, p := range all {
		if matches(p, opts, term) {
			filtered = append(filtered, p)
		}
	}

	sortProblems(filtered, opts.SortBy)

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	return FilterResult{
		Problems:      filtered,
		TotalCount:    len(all),
		FilteredCount: len(filtered),
		Filters:       opts,
		Metadata:      BuildMetadata(filtered),
	}
}

func matches(p EnrichedProblem, opts FilterOptions, term string) bool {
	if opts.Municipality != "" && p.LocationMunicipality != opts.Municipality {
		return false
	}
	if opts.Status != "" && string(p.Status) != opts.Status {
		return false
	}
	if opts.Category != "" && p.Category != opts.Category {
		return false
	}
	if opts.Priority != "" && p.Priority != opts.Priority {
		return false
	}
	if !inTimeRange(p.AgeDays, opts.TimeRange) {
		return false
	}
	if term != "" && !strings.Contains(p.SearchText, term) {
		return false
	}
	return true
}

// inTimeRange keeps recent problems up to a week old, problems between one
// and two weeks old for week, and problems of at least 30 days for month.
// An unknown range does not filter.
func inTimeRange(age int, r string) bool {
	switch r {
	case RangeRecent:
		return age <= 7
	case RangeWeek:
		return age >= 7 && age <= 14
	case RangeMonth:
		return age >= 30
	default:
		return true
	}
}

func sortProblems(problems []EnrichedProblem, sortBy string) {
	switch sortBy {
	case SortOldest:
		slices.SortStableFunc(problems, func(a, b EnrichedProblem) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortPriority:
		slices.SortStableFunc(problems, func(a, b EnrichedProblem) int {
			return priorityRank[a.Priority] - priorityRank[b.Priority]
		})
	case SortLocation:
		// Collators keep internal buffers, so one per call.
		col := collate.New(language.Dutch)
		slices.SortStableFunc(problems, func(a, b EnrichedProblem) int {
			return col.CompareString(a.LocationName, b.LocationName)
		})
	default:
		slices.SortStableFunc(problems, func(a, b EnrichedProblem) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

// BuildMetadata counts problems per status, category, priority and
// municipality. On ties the first problem is kept as oldest or newest.
func BuildMetadata(problems []EnrichedProblem) FilterMetadata {
	md := FilterMetadata{
		StatusCounts:       map[string]int{},
		CategoryCounts:     map[string]int{},
		PriorityCounts:     map[string]int{},
		MunicipalityCounts: map[string]int{},
	}
	if len(problems) == 0 {
		return md
	}

	totalAge := 0
	oldest, newest := 0, 0
	for i, p := range problems {
		md.StatusCounts[orUnknown(string(p.Status))]++
		md.CategoryCounts[orUnknown(p.Category)]++
		md.PriorityCounts[string(p.Priority)]++
		md.MunicipalityCounts[orUnknown(p.LocationMunicipality)]++
		totalAge += p.AgeDays

		if p.CreatedAt.Before(problems[oldest].CreatedAt) {
			oldest = i
		}
		if p.CreatedAt.After(problems[newest].CreatedAt) {
			newest = i
		}
	}

	md.AverageAgeDays = roundHalfUp(float64(totalAge) / float64(len(problems)))
	o, n := problems[oldest], problems[newest]
	md.OldestProblem = &o
	md.NewestProblem = &n
	return md
}
