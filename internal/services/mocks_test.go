package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BusselW/DDH3/internal/models"
)

// MockLocationRepository is a mock implementation of LocationRepository for testing
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindAll(ctx context.Context) ([]models.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id int) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) FindByMunicipality(ctx context.Context, municipality string) ([]models.Location, error) {
	args := m.Called(ctx, municipality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) Update(ctx context.Context, id int, patch models.LocationPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *MockLocationRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// MockProblemRepository is a mock implementation of ProblemRepository for testing
type MockProblemRepository struct {
	mock.Mock
}

func (m *MockProblemRepository) FindAll(ctx context.Context) ([]models.Problem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Problem), args.Error(1)
}

func (m *MockProblemRepository) FindByID(ctx context.Context, id int) (*models.Problem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Problem), args.Error(1)
}

func (m *MockProblemRepository) FindByMunicipality(ctx context.Context, municipality string) ([]models.Problem, error) {
	args := m.Called(ctx, municipality)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Problem), args.Error(1)
}

func (m *MockProblemRepository) Create(ctx context.Context, in models.ProblemInput) (*models.Problem, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Problem), args.Error(1)
}

func (m *MockProblemRepository) Update(ctx context.Context, id int, patch models.ProblemPatch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *MockProblemRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// MockDirectory is a mock implementation of lists.PrincipalDirectory for testing
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) SearchPrincipals(ctx context.Context, query string, top int) ([]models.Principal, error) {
	args := m.Called(ctx, query, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Principal), args.Error(1)
}

// countingInvalidator records Invalidate calls.
type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.calls.Add(1) }

// stubJoiner returns a fixed result and counts calls. When gate is set,
// each Join blocks until a value is received from it.
type stubJoiner struct {
	mu      sync.Mutex
	data    []models.Location
	err     error
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
}

func (j *stubJoiner) Join(ctx context.Context) ([]models.Location, error) {
	j.calls.Add(1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.gate != nil {
		<-j.gate
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.data, j.err
}

func (j *stubJoiner) set(data []models.Location, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.data, j.err = data, err
}

// fakeClock is a settable clock for TTL and age tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func statusPtr(s models.ProblemStatus) *models.ProblemStatus { return &s }
