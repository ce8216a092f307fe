package services

import (
	"context"
	"fmt"
	"time"

	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

// DashboardService defines the read side of the dashboard. Every method
// goes through the dashboard cache and enriches at call time, so ages are
// always computed against the current clock.
type DashboardService interface {
	// Locations returns every enriched location. forceRefresh bypasses a
	// fresh cache entry.
	Locations(ctx context.Context, forceRefresh bool) ([]EnrichedLocation, error)

	// Location returns one enriched location.
	// Returns models.ErrNotFound if no location has the id.
	Location(ctx context.Context, id int) (*EnrichedLocation, error)

	// Problems answers a filter query over all attached problems.
	Problems(ctx context.Context, opts FilterOptions) (*FilterResult, error)

	// Summary returns dashboard-wide totals.
	Summary(ctx context.Context) (*Summary, error)

	// CacheStatus returns a snapshot of the cache.
	CacheStatus() CacheStatus

	// Refresh forces a reload and returns the resulting cache status.
	Refresh(ctx context.Context) (CacheStatus, error)

	// InvalidateCache drops the cached view.
	InvalidateCache()
}

// dashboardService is the concrete implementation of DashboardService.
type dashboardService struct {
	cache *DashboardCache
	now   func() time.Time
	log   *logger.Logger
}

// NewDashboardService creates a DashboardService over cache. A nil now
// uses time.Now.
func NewDashboardService(cache *DashboardCache, now func() time.Time, log *logger.Logger) DashboardService {
	if now == nil {
		now = time.Now
	}
	return &dashboardService{
		cache: cache,
		now:   now,
		log:   log.Component("dashboard"),
	}
}

func (s *dashboardService) Locations(ctx context.Context, forceRefresh bool) ([]EnrichedLocation, error) {
	data, err := s.cache.Fetch(ctx, forceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return EnrichLocations(data, s.now()), nil
}

func (s *dashboardService) Location(ctx context.Context, id int) (*EnrichedLocation, error) {
	data, err := s.cache.Fetch(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	for _, loc := range data {
		if loc.ID == id {
			enriched := EnrichLocation(loc, s.now())
			return &enriched, nil
		}
	}
	return nil, fmt.Errorf("%w: location %d", models.ErrNotFound, id)
}

func (s *dashboardService) Problems(ctx context.Context, opts FilterOptions) (*FilterResult, error) {
	locations, err := s.Locations(ctx, false)
	if err != nil {
		return nil, err
	}
	result := FilterProblems(locations, opts)
	s.log.Debug("Filtered problems", map[string]interface{}{
		"total":    result.TotalCount,
		"filtered": result.FilteredCount,
	})
	return &result, nil
}

func (s *dashboardService) Summary(ctx context.Context) (*Summary, error) {
	locations, err := s.Locations(ctx, false)
	if err != nil {
		return nil, err
	}
	summary := Summarize(locations)
	return &summary, nil
}

func (s *dashboardService) CacheStatus() CacheStatus {
	return s.cache.Status()
}

func (s *dashboardService) Refresh(ctx context.Context) (CacheStatus, error) {
	if _, err := s.cache.Fetch(ctx, true); err != nil {
		return s.cache.Status(), fmt.Errorf("failed to refresh dashboard: %w", err)
	}
	s.log.Info("Dashboard refreshed", nil)
	return s.cache.Status(), nil
}

func (s *dashboardService) InvalidateCache() {
	s.cache.Invalidate()
	s.log.Info("Dashboard cache invalidated", nil)
}
