package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/BusselW/DDH3/internal/keys"
	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
	"github.com/BusselW/DDH3/internal/repository"
)

// Joiner produces the joined dashboard view: every location with the
// problems reported against it attached.
type Joiner interface {
	Join(ctx context.Context) ([]models.Location, error)
}

// JoinResult is the outcome of a join. Unmatched holds the problems whose
// key matched no location (or could not be derived at all).
type JoinResult struct {
	Locations []models.Location
	Unmatched []models.Problem
}

// listJoiner fetches both lists concurrently and joins them in memory.
type listJoiner struct {
	locations repository.LocationRepository
	problems  repository.ProblemRepository
	log       *logger.Logger
}

// NewJoiner creates a Joiner over the two repositories.
func NewJoiner(locations repository.LocationRepository, problems repository.ProblemRepository, log *logger.Logger) Joiner {
	return &listJoiner{
		locations: locations,
		problems:  problems,
		log:       log.Component("joiner"),
	}
}

// Join fetches locations and problems in parallel. A failure of either
// fetch fails the whole join.
func (j *listJoiner) Join(ctx context.Context) ([]models.Location, error) {
	var (
		locations []models.Location
		problems  []models.Problem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = j.locations.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("fetch locations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		problems, err = j.problems.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("fetch problems: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := JoinLocations(locations, problems)
	if len(result.Unmatched) > 0 {
		ids := make([]int, 0, len(result.Unmatched))
		for _, p := range result.Unmatched {
			ids = append(ids, p.ID)
		}
		j.log.Warn("Problems without a matching location", map[string]interface{}{
			"count":       len(result.Unmatched),
			"problem_ids": ids,
		})
	}
	j.log.Debug("Join completed", map[string]interface{}{
		"locations": len(result.Locations),
		"problems":  len(problems),
		"unmatched": len(result.Unmatched),
	})

	return result.Locations, nil
}

// JoinLocations attaches to each location the problems whose derived key
// equals the location's derived key. Locations keep their input order and
// problems keep first-seen order within a group. When two locations share
// a key, both receive the same group.
func JoinLocations(locations []models.Location, problems []models.Problem) JoinResult {
	groups := make(map[string][]models.Problem)
	problemKeys := make([]string, len(problems))

	for i, p := range problems {
		key, err := keys.DeriveKey(p.Municipality, p.Title)
		if err != nil {
			continue
		}
		problemKeys[i] = key
		groups[key] = append(groups[key], p)
	}

	used := make(map[string]bool, len(groups))
	joined := make([]models.Location, len(locations))
	for i, loc := range locations {
		loc.Problems = []models.Problem{}
		loc.MatchingKey = ""

		if key, err := keys.DeriveKey(loc.Municipality, loc.Name); err == nil {
			loc.MatchingKey = key
			if group, ok := groups[key]; ok {
				loc.Problems = append([]models.Problem(nil), group...)
				used[key] = true
			}
		}
		loc.ProblemCount = len(loc.Problems)
		joined[i] = loc
	}

	unmatched := []models.Problem{}
	for i, p := range problems {
		if problemKeys[i] == "" || !used[problemKeys[i]] {
			unmatched = append(unmatched, p)
		}
	}

	return JoinResult{Locations: joined, Unmatched: unmatched}
}
