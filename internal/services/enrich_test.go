package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BusselW/DDH3/internal/models"
)

var refNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return refNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func TestAgeDays(t *testing.T) {
	tests := []struct {
		name      string
		createdAt time.Time
		want      int
	}{
		{"just now", refNow, 0},
		{"almost a day", refNow.Add(-23 * time.Hour), 0},
		{"exactly a day", refNow.Add(-24 * time.Hour), 1},
		{"ten and a half days", refNow.Add(-252 * time.Hour), 10},
		{"missing date", time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeDays(tt.createdAt, refNow))
		})
	}
}

func TestProblemPriority(t *testing.T) {
	tests := []struct {
		status models.ProblemStatus
		age    int
		want   Priority
	}{
		{models.StatusResolved, 100, PriorityResolved},
		{models.StatusReported, 15, PriorityCritical},
		{models.StatusReported, 14, PriorityHigh},
		{models.StatusReported, 8, PriorityHigh},
		{models.StatusReported, 7, PriorityLow},
		{models.StatusInProgress, 22, PriorityHigh},
		{models.StatusInProgress, 21, PriorityMedium},
		{models.StatusInProgress, 0, PriorityMedium},
		{models.StatusEscalated, 60, PriorityLow},
		{"", 60, PriorityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, ProblemPriority(tt.status, tt.age))
		})
	}
}

func TestIsUrgentAndOverdue(t *testing.T) {
	assert.True(t, IsUrgent(models.StatusReported, 11))
	assert.False(t, IsUrgent(models.StatusReported, 10))
	assert.True(t, IsUrgent(models.StatusInProgress, 22))
	assert.False(t, IsUrgent(models.StatusInProgress, 21))
	assert.False(t, IsUrgent(models.StatusEscalated, 100))
	assert.False(t, IsUrgent(models.StatusResolved, 100))

	assert.True(t, IsOverdue(31))
	assert.False(t, IsOverdue(30))
}

func TestLocationPriorityAndIndicator(t *testing.T) {
	tests := []struct {
		name      string
		stats     LocationStats
		priority  Priority
		indicator StatusIndicator
	}{
		{"quiet", LocationStats{}, PriorityLow, IndicatorNormal},
		{"one active", LocationStats{ActiveProblems: 1}, PriorityLow, IndicatorActive},
		{"three active", LocationStats{ActiveProblems: 3}, PriorityMedium, IndicatorActive},
		{"four active", LocationStats{ActiveProblems: 4}, PriorityMedium, IndicatorBusy},
		{"six active", LocationStats{ActiveProblems: 6}, PriorityHigh, IndicatorBusy},
		{"one urgent", LocationStats{ActiveProblems: 1, UrgentProblems: 1}, PriorityHigh, IndicatorUrgent},
		{"three urgent", LocationStats{ActiveProblems: 3, UrgentProblems: 3}, PriorityCritical, IndicatorUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.priority, LocationPriority(tt.stats))
			assert.Equal(t, tt.indicator, LocationIndicator(tt.stats))
		})
	}
}

func TestEnrichLocation(t *testing.T) {
	loc := models.Location{
		ID:           4,
		Municipality: "Utrecht",
		Name:         "Neude",
		Category:     models.CategoryParking,
		Problems: []models.Problem{
			{ID: 1, Status: models.StatusReported, Category: models.CategoryParking, CreatedAt: daysAgo(12), Description: "Bord Weg"},
			{ID: 2, Status: models.StatusInProgress, Category: models.CategoryParking, CreatedAt: daysAgo(3)},
			{ID: 3, Status: models.StatusResolved, CreatedAt: daysAgo(40)},
			{ID: 4, CreatedAt: daysAgo(0)},
		},
	}

	got := EnrichLocation(loc, refNow)

	require.Len(t, got.Problems, 4)
	first := got.Problems[0]
	assert.Equal(t, 12, first.AgeDays)
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.True(t, first.IsUrgent)
	assert.False(t, first.IsOverdue)
	assert.Equal(t, "#ffc107", first.StatusColor)
	assert.Equal(t, 4, first.LocationID)
	assert.Equal(t, "Neude", first.LocationName)
	assert.Equal(t, "Utrecht", first.LocationMunicipality)
	assert.Equal(t, "bord weg parkeren neude utrecht", first.SearchText)

	assert.True(t, got.Problems[2].IsOverdue)
	assert.Equal(t, PriorityResolved, got.Problems[2].Priority)

	assert.Equal(t, 4, got.TotalProblems)
	assert.Equal(t, 3, got.ActiveProblems)
	assert.Equal(t, 1, got.ResolvedProblems)
	assert.Equal(t, 1, got.UrgentProblems)
	assert.Equal(t, 1, got.OverdueProblems)
	// (12+3+40+0)/4 = 13.75
	assert.Equal(t, 14, got.AverageAgeDays)
	assert.Equal(t, map[string]int{
		"Aangemeld":      1,
		"In behandeling": 1,
		"Opgelost":       1,
		"Onbekend":       1,
	}, got.StatusBreakdown)
	assert.Equal(t, map[string]int{"Parkeren": 2, "Onbekend": 2}, got.CategoryBreakdown)
	assert.True(t, got.HasActiveProblems)
	assert.True(t, got.HasUrgentProblems)
	assert.Equal(t, IndicatorUrgent, got.StatusIndicator)
	assert.Equal(t, PriorityHigh, got.PriorityLevel)

	// The input location is left untouched.
	assert.Len(t, loc.Problems, 4)
}

func TestEnrichLocation_NoProblems(t *testing.T) {
	got := EnrichLocation(models.Location{ID: 1, Name: "Leeg", Problems: []models.Problem{}}, refNow)

	assert.NotNil(t, got.Problems)
	assert.Empty(t, got.Problems)
	assert.Zero(t, got.AverageAgeDays)
	assert.Empty(t, got.StatusBreakdown)
	assert.False(t, got.HasActiveProblems)
	assert.Equal(t, IndicatorNormal, got.StatusIndicator)
	assert.Equal(t, PriorityLow, got.PriorityLevel)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, 2, roundHalfUp(2.49))
	assert.Equal(t, 0, roundHalfUp(0))
}
