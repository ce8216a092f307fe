package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

type adminFixture struct {
	locations *MockLocationRepository
	problems  *MockProblemRepository
	cache     *countingInvalidator
	service   AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		locations: new(MockLocationRepository),
		problems:  new(MockProblemRepository),
		cache:     &countingInvalidator{},
	}
	f.service = NewAdminService(f.locations, f.problems, f.cache, func() time.Time { return refNow }, logger.Nop())
	return f
}

func TestCreateLocation_AppliesDefaults(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{
		{ID: 1, Municipality: "Utrecht", Name: "Vredenburg"},
	}, nil)
	f.locations.On("Create", ctx, mock.MatchedBy(func(in models.LocationInput) bool {
		return in.Status == models.LocationStatusRequested &&
			in.WarningActive == models.WarningActiveYes &&
			in.Category == models.CategoryTrafficSigns
	})).Return(&models.Location{ID: 9, Municipality: "Utrecht", Name: "Neude"}, nil)

	loc, err := f.service.CreateLocation(ctx, models.LocationInput{Municipality: "Utrecht", Name: "Neude"})

	require.NoError(t, err)
	assert.Equal(t, 9, loc.ID)
	assert.Equal(t, int32(1), f.cache.calls.Load())
	f.locations.AssertExpectations(t)
}

func TestCreateLocation_DuplicateKeyConflicts(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{
		{ID: 3, Municipality: "Utrecht", Name: "NEUDE!"},
	}, nil)

	loc, err := f.service.CreateLocation(ctx, models.LocationInput{Municipality: "Utrecht", Name: "Neude"})

	assert.Nil(t, loc)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Zero(t, f.cache.calls.Load())
	f.locations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLocation_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input models.LocationInput
	}{
		{"missing name", models.LocationInput{Municipality: "Utrecht"}},
		{"short municipality", models.LocationInput{Municipality: "U", Name: "Neude"}},
		{"bad status", models.LocationInput{Municipality: "Utrecht", Name: "Neude", Status: "Klaar"}},
		{"bad email", models.LocationInput{Municipality: "Utrecht", Name: "Neude", ContactEmail: strPtr("nope")}},
		{"bad link", models.LocationInput{Municipality: "Utrecht", Name: "Neude", GeneralReport: &models.DocumentLink{URL: "not a url"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminFixture()

			_, err := f.service.CreateLocation(context.Background(), tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrValidation)
			var verrs validator.ValidationErrors
			assert.True(t, errors.As(err, &verrs))
			f.locations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateLocation_EmptyPatch(t *testing.T) {
	f := newAdminFixture()

	err := f.service.UpdateLocation(context.Background(), 1, models.LocationPatch{})

	assert.ErrorIs(t, err, models.ErrValidation)
	f.locations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateLocation_NonKeyFieldsSkipConflictCheck(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	patch := models.LocationPatch{WarningActive: strPtr(models.WarningActiveNo)}
	f.locations.On("Update", ctx, 4, patch).Return(nil)

	err := f.service.UpdateLocation(ctx, 4, patch)

	require.NoError(t, err)
	assert.Equal(t, int32(1), f.cache.calls.Load())
	f.locations.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateLocation_RenameConflicts(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByID", ctx, 4).Return(&models.Location{ID: 4, Municipality: "Utrecht", Name: "Neude"}, nil)
	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{
		{ID: 4, Municipality: "Utrecht", Name: "Neude"},
		{ID: 5, Municipality: "Utrecht", Name: "Vredenburg"},
	}, nil)

	err := f.service.UpdateLocation(ctx, 4, models.LocationPatch{Name: strPtr("vredenburg")})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Zero(t, f.cache.calls.Load())
}

func TestUpdateLocation_RenameToOwnKeyIsAllowed(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	patch := models.LocationPatch{Name: strPtr("NEUDE")}
	f.locations.On("FindByID", ctx, 4).Return(&models.Location{ID: 4, Municipality: "Utrecht", Name: "Neude"}, nil)
	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{
		{ID: 4, Municipality: "Utrecht", Name: "Neude"},
	}, nil)
	f.locations.On("Update", ctx, 4, patch).Return(nil)

	require.NoError(t, f.service.UpdateLocation(ctx, 4, patch))
	f.locations.AssertExpectations(t)
}

func TestUpdateLocation_MissingLocation(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByID", ctx, 4).Return(nil, nil)

	err := f.service.UpdateLocation(ctx, 4, models.LocationPatch{Name: strPtr("Neude")})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteLocation(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("Delete", ctx, 4).Return(nil)
	f.locations.On("Delete", ctx, 5).Return(models.ErrNotFound)

	require.NoError(t, f.service.DeleteLocation(ctx, 4))
	assert.ErrorIs(t, f.service.DeleteLocation(ctx, 5), models.ErrNotFound)
	assert.Equal(t, int32(1), f.cache.calls.Load())
}

func TestCreateProblem_AppliesDefaults(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{
		{ID: 1, Municipality: "Utrecht", Name: "Neude"},
	}, nil)
	f.problems.On("Create", ctx, mock.MatchedBy(func(in models.ProblemInput) bool {
		return in.Status == models.StatusReported &&
			in.ReviewerAction == models.ReviewerActionNone &&
			in.Category == models.CategoryTrafficSigns &&
			in.CreatedAt != nil && in.CreatedAt.Equal(refNow)
	})).Return(&models.Problem{ID: 30}, nil)

	p, err := f.service.CreateProblem(ctx, models.ProblemInput{
		Municipality: "Utrecht",
		Title:        "Neude",
		Description:  "Bord is omgevallen",
	})

	require.NoError(t, err)
	assert.Equal(t, 30, p.ID)
	assert.Equal(t, int32(1), f.cache.calls.Load())
	f.problems.AssertExpectations(t)
}

func TestCreateProblem_PrefillsFromLocation(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByID", ctx, 7).Return(&models.Location{
		ID: 7, Municipality: "Amersfoort", Name: "Eemplein", Category: models.CategoryParking,
	}, nil)
	f.problems.On("Create", ctx, mock.MatchedBy(func(in models.ProblemInput) bool {
		return in.Municipality == "Amersfoort" && in.Title == "Eemplein" && in.Category == models.CategoryParking
	})).Return(&models.Problem{ID: 31}, nil)

	_, err := f.service.CreateProblem(ctx, models.ProblemInput{
		LocationID:  intPtr(7),
		Description: "Camera staat verkeerd",
	})

	require.NoError(t, err)
	f.locations.AssertNotCalled(t, "FindByMunicipality", mock.Anything, mock.Anything)
	f.problems.AssertExpectations(t)
}

func TestCreateProblem_UnknownLocation(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByID", ctx, 7).Return(nil, nil)

	_, err := f.service.CreateProblem(ctx, models.ProblemInput{
		LocationID:  intPtr(7),
		Description: "Camera staat verkeerd",
	})

	assert.ErrorIs(t, err, models.ErrNotFound)
	f.problems.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProblem_WithoutMatchingLocationStillCreates(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.locations.On("FindByMunicipality", ctx, "Utrecht").Return([]models.Location{}, nil)
	f.problems.On("Create", ctx, mock.Anything).Return(&models.Problem{ID: 32}, nil)

	p, err := f.service.CreateProblem(ctx, models.ProblemInput{
		Municipality: "Utrecht",
		Title:        "Nergens",
		Description:  "Locatie bestaat nog niet",
	})

	require.NoError(t, err)
	assert.Equal(t, 32, p.ID)
}

func TestCreateProblem_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input models.ProblemInput
	}{
		{"short description", models.ProblemInput{Municipality: "Utrecht", Title: "Neude", Description: "kort"}},
		{"missing title without location", models.ProblemInput{Municipality: "Utrecht", Description: "Bord is omgevallen"}},
		{"bad status", models.ProblemInput{Municipality: "Utrecht", Title: "Neude", Description: "Bord is omgevallen", Status: "Weg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminFixture()

			_, err := f.service.CreateProblem(context.Background(), tt.input)

			assert.ErrorIs(t, err, models.ErrValidation)
			f.problems.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateProblem_StatusTransitions(t *testing.T) {
	tests := []struct {
		from    models.ProblemStatus
		to      models.ProblemStatus
		allowed bool
	}{
		{models.StatusReported, models.StatusInProgress, true},
		{models.StatusReported, models.StatusResolved, false},
		{models.StatusInProgress, models.StatusResolved, true},
		{models.StatusEscalated, models.StatusReported, false},
		{models.StatusResolved, models.StatusInProgress, true},
		{models.StatusResolved, models.StatusReported, false},
		{"Iets anders", models.StatusResolved, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			f := newAdminFixture()
			ctx := context.Background()
			patch := models.ProblemPatch{Status: statusPtr(tt.to)}
			f.problems.On("FindByID", ctx, 3).Return(&models.Problem{ID: 3, Status: tt.from}, nil)
			f.problems.On("Update", ctx, 3, patch).Return(nil)

			err := f.service.UpdateProblem(ctx, 3, patch)

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, int32(1), f.cache.calls.Load())
			} else {
				assert.ErrorIs(t, err, models.ErrValidation)
				f.problems.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
				assert.Zero(t, f.cache.calls.Load())
			}
		})
	}
}

func TestUpdateProblem_WithoutStatusSkipsLookup(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	patch := models.ProblemPatch{ReviewerAction: strPtr(models.ReviewerActionHold)}
	f.problems.On("Update", ctx, 3, patch).Return(nil)

	require.NoError(t, f.service.UpdateProblem(ctx, 3, patch))
	f.problems.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateProblem_Missing(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.problems.On("FindByID", ctx, 3).Return(nil, nil)

	err := f.service.UpdateProblem(ctx, 3, models.ProblemPatch{Status: statusPtr(models.StatusResolved)})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProblem_EmptyPatch(t *testing.T) {
	f := newAdminFixture()

	err := f.service.UpdateProblem(context.Background(), 3, models.ProblemPatch{})

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteProblem(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	f.problems.On("Delete", ctx, 3).Return(nil)

	require.NoError(t, f.service.DeleteProblem(ctx, 3))
	assert.Equal(t, int32(1), f.cache.calls.Load())
}
