package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BusselW/DDH3/internal/keys"
	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
	"github.com/BusselW/DDH3/internal/repository"
)

// Invalidator is the part of the dashboard cache the admin service needs.
type Invalidator interface {
	Invalidate()
}

// AdminService defines the mutating operations behind the admin screens.
// Every successful mutation invalidates the dashboard cache.
type AdminService interface {
	// CreateLocation applies defaults and rejects a location whose derived
	// key already exists in the same municipality with models.ErrConflict.
	CreateLocation(ctx context.Context, in models.LocationInput) (*models.Location, error)

	// UpdateLocation applies a partial update.
	// Returns models.ErrValidation for an empty or invalid patch.
	UpdateLocation(ctx context.Context, id int, patch models.LocationPatch) error

	DeleteLocation(ctx context.Context, id int) error

	// CreateProblem applies defaults and, when LocationID is set, fills the
	// municipality, title and category from that location.
	CreateProblem(ctx context.Context, in models.ProblemInput) (*models.Problem, error)

	// UpdateProblem applies a partial update. A status change must follow
	// the problem lifecycle or models.ErrValidation is returned.
	UpdateProblem(ctx context.Context, id int, patch models.ProblemPatch) error

	DeleteProblem(ctx context.Context, id int) error
}

// adminService is the concrete implementation of AdminService.
type adminService struct {
	locations repository.LocationRepository
	problems  repository.ProblemRepository
	cache     Invalidator
	validate  *validator.Validate
	now       func() time.Time
	log       *logger.Logger
}

// NewAdminService creates an AdminService. A nil now uses time.Now.
func NewAdminService(
	locations repository.LocationRepository,
	problems repository.ProblemRepository,
	cache Invalidator,
	now func() time.Time,
	log *logger.Logger,
) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{
		locations: locations,
		problems:  problems,
		cache:     cache,
		validate:  NewValidator(),
		now:       now,
		log:       log.Component("admin"),
	}
}

// NewValidator returns a validator reading the same `binding` tags gin
// uses, so payloads validated by handlers and services agree.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName reports validation failures under the JSON field name the
// client sent rather than the Go field name.
func JSONFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// validationError wraps validator output so callers can match both
// models.ErrValidation and validator.ValidationErrors.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", models.ErrValidation, verrs)
	}
	return fmt.Errorf("%w: %v", models.ErrValidation, err)
}

func (s *adminService) CreateLocation(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.Status == "" {
		in.Status = models.LocationStatusRequested
	}
	if in.WarningActive == "" {
		in.WarningActive = models.WarningActiveYes
	}
	if in.Category == "" {
		in.Category = models.CategoryTrafficSigns
	}

	key, err := keys.DeriveKey(in.Municipality, in.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueKey(ctx, in.Municipality, key, 0); err != nil {
		return nil, err
	}

	loc, err := s.locations.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	s.log.Info("Location created", map[string]interface{}{
		"location_id": loc.ID,
		"key":         key,
	})
	return loc, nil
}

// ensureUniqueKey fails with models.ErrConflict when another location of
// the municipality derives the same key. exceptID is skipped.
func (s *adminService) ensureUniqueKey(ctx context.Context, municipality, key string, exceptID int) error {
	existing, err := s.locations.FindByMunicipality(ctx, municipality)
	if err != nil {
		return err
	}
	for _, loc := range existing {
		if loc.ID == exceptID {
			continue
		}
		other, err := keys.DeriveKey(loc.Municipality, loc.Name)
		if err == nil && other == key {
			return fmt.Errorf("%w: location %q already exists as id %d", models.ErrConflict, key, loc.ID)
		}
	}
	return nil
}

func (s *adminService) UpdateLocation(ctx context.Context, id int, patch models.LocationPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: patch changes no fields", models.ErrValidation)
	}
	if err := s.validate.Struct(patch); err != nil {
		return validationError(err)
	}

	// A rename may collide with another location's key.
	if patch.Municipality != nil || patch.Name != nil {
		current, err := s.locations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: location %d", models.ErrNotFound, id)
		}
		municipality, name := current.Municipality, current.Name
		if patch.Municipality != nil {
			municipality = *patch.Municipality
		}
		if patch.Name != nil {
			name = *patch.Name
		}
		key, err := keys.DeriveKey(municipality, name)
		if err != nil {
			return err
		}
		if err := s.ensureUniqueKey(ctx, municipality, key, id); err != nil {
			return err
		}
	}

	if err := s.locations.Update(ctx, id, patch); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.log.Info("Location updated", map[string]interface{}{"location_id": id})
	return nil
}

func (s *adminService) DeleteLocation(ctx context.Context, id int) error {
	if err := s.locations.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.log.Info("Location deleted", map[string]interface{}{"location_id": id})
	return nil
}

func (s *adminService) CreateProblem(ctx context.Context, in models.ProblemInput) (*models.Problem, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	matched := false
	if in.LocationID != nil {
		loc, err := s.locations.FindByID(ctx, *in.LocationID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, fmt.Errorf("%w: location %d", models.ErrNotFound, *in.LocationID)
		}
		if in.Municipality == "" {
			in.Municipality = loc.Municipality
		}
		if in.Title == "" {
			in.Title = loc.Name
		}
		if in.Category == "" {
			in.Category = loc.Category
		}
		matched = sameKey(in.Municipality, in.Title, loc.Municipality, loc.Name)
	}

	if in.Status == "" {
		in.Status = models.StatusReported
	}
	if in.ReviewerAction == "" {
		in.ReviewerAction = models.ReviewerActionNone
	}
	if in.Category == "" {
		in.Category = models.CategoryTrafficSigns
	}
	if in.CreatedAt == nil {
		now := s.now().UTC()
		in.CreatedAt = &now
	}

	key, err := keys.DeriveKey(in.Municipality, in.Title)
	if err != nil {
		return nil, err
	}
	if !matched {
		matched, err = s.hasLocation(ctx, in.Municipality, key)
		if err != nil {
			return nil, err
		}
	}
	if !matched {
		s.log.Warn("Problem does not match any location", map[string]interface{}{
			"key": key,
		})
	}

	p, err := s.problems.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	s.log.Info("Problem created", map[string]interface{}{
		"problem_id": p.ID,
		"key":        key,
	})
	return p, nil
}

func (s *adminService) hasLocation(ctx context.Context, municipality, key string) (bool, error) {
	candidates, err := s.locations.FindByMunicipality(ctx, municipality)
	if err != nil {
		return false, err
	}
	for _, loc := range candidates {
		if k, err := keys.DeriveKey(loc.Municipality, loc.Name); err == nil && k == key {
			return true, nil
		}
	}
	return false, nil
}

func sameKey(m1, n1, m2, n2 string) bool {
	a, err := keys.DeriveKey(m1, n1)
	if err != nil {
		return false
	}
	b, err := keys.DeriveKey(m2, n2)
	return err == nil && a == b
}

func (s *adminService) UpdateProblem(ctx context.Context, id int, patch models.ProblemPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: patch changes no fields", models.ErrValidation)
	}
	if err := s.validate.Struct(patch); err != nil {
		return validationError(err)
	}

	if patch.Status != nil {
		current, err := s.problems.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: problem %d", models.ErrNotFound, id)
		}
		// Items with a status outside the lifecycle may be moved anywhere.
		if current.Status.Valid() && !current.Status.CanTransitionTo(*patch.Status) {
			return fmt.Errorf("%w: status cannot change from %q to %q",
				models.ErrValidation, current.Status, *patch.Status)
		}
	}

	if err := s.problems.Update(ctx, id, patch); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.log.Info("Problem updated", map[string]interface{}{"problem_id": id})
	return nil
}

func (s *adminService) DeleteProblem(ctx context.Context, id int) error {
	if err := s.problems.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.log.Info("Problem deleted", map[string]interface{}{"problem_id": id})
	return nil
}
