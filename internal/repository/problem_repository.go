package repository

import (
	"context"
	"fmt"

	"github.com/BusselW/DDH3/internal/lists"
	"github.com/BusselW/DDH3/internal/models"
)

// ProblemRepository defines typed access to the problems list. Reads
// always expand the reporter, owner and reviewer user fields.
type ProblemRepository interface {
	// FindAll returns every problem in backend order.
	// Returns an empty slice if there are none.
	FindAll(ctx context.Context) ([]models.Problem, error)

	// FindByID returns nil, nil when the problem does not exist.
	FindByID(ctx context.Context, id int) (*models.Problem, error)

	// FindByMunicipality returns the problems stored under exactly this
	// municipality spelling.
	FindByMunicipality(ctx context.Context, municipality string) ([]models.Problem, error)

	Create(ctx context.Context, in models.ProblemInput) (*models.Problem, error)
	Update(ctx context.Context, id int, patch models.ProblemPatch) error
	Delete(ctx context.Context, id int) error
}

// problemRepository is the concrete implementation of ProblemRepository.
type problemRepository struct {
	client lists.Client
	schema lists.Schema
	query  lists.Query
}

// NewProblemRepository creates a ProblemRepository over a list client.
func NewProblemRepository(client lists.Client, schemas lists.Schemas) ProblemRepository {
	schema := schemas[lists.CollectionProblems]
	return &problemRepository{
		client: client,
		schema: schema,
		query:  expandedQuery(schema),
	}
}

func (r *problemRepository) FindAll(ctx context.Context) ([]models.Problem, error) {
	return r.find(ctx, r.query)
}

func (r *problemRepository) FindByMunicipality(ctx context.Context, municipality string) ([]models.Problem, error) {
	name, ok := r.schema.Physical(lists.FieldMunicipality)
	if !ok {
		return nil, fmt.Errorf("%w: municipality is not mapped", models.ErrValidation)
	}
	q := r.query
	q.Filter = []lists.Condition{{Field: name, Value: municipality}}
	return r.find(ctx, q)
}

func (r *problemRepository) find(ctx context.Context, q lists.Query) ([]models.Problem, error) {
	records, err := r.client.List(ctx, lists.CollectionProblems, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}

	problems := make([]models.Problem, 0, len(records))
	for _, rec := range records {
		problems = append(problems, r.decode(rec))
	}
	return problems, nil
}

func (r *problemRepository) FindByID(ctx context.Context, id int) (*models.Problem, error) {
	rec, err := r.client.GetByID(ctx, lists.CollectionProblems, id, r.query)
	if err != nil {
		return nil, fmt.Errorf("failed to get problem %d: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	p := r.decode(rec)
	return &p, nil
}

func (r *problemRepository) Create(ctx context.Context, in models.ProblemInput) (*models.Problem, error) {
	w := newRecordWriter(r.schema)
	w.set(lists.FieldTitle, in.Title)
	w.set(lists.FieldMunicipality, in.Municipality)
	w.set(lists.FieldDescription, in.Description)
	w.setNonEmpty(lists.FieldCategory, in.Category)
	w.setNonEmpty(lists.FieldStatus, string(in.Status))
	w.setNonEmpty(lists.FieldReviewerAction, in.ReviewerAction)
	if in.CreatedAt != nil {
		w.set(lists.FieldCreatedAt, *in.CreatedAt)
	}
	if in.ReporterID != nil {
		w.set(lists.FieldReporter, *in.ReporterID)
	}
	if in.OwnerID != nil {
		w.set(lists.FieldOwner, *in.OwnerID)
	}
	if in.ReviewerID != nil {
		w.set(lists.FieldReviewer, []int{*in.ReviewerID})
	}

	fields, err := w.result()
	if err != nil {
		return nil, err
	}
	rec, err := r.client.Create(ctx, lists.CollectionProblems, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	p := r.decode(rec)
	return &p, nil
}

func (r *problemRepository) Update(ctx context.Context, id int, patch models.ProblemPatch) error {
	w := newRecordWriter(r.schema)
	if patch.Title != nil {
		w.set(lists.FieldTitle, *patch.Title)
	}
	if patch.Municipality != nil {
		w.set(lists.FieldMunicipality, *patch.Municipality)
	}
	if patch.Description != nil {
		w.set(lists.FieldDescription, *patch.Description)
	}
	if patch.Category != nil {
		w.set(lists.FieldCategory, *patch.Category)
	}
	if patch.Status != nil {
		w.set(lists.FieldStatus, string(*patch.Status))
	}
	if patch.ReviewerAction != nil {
		w.set(lists.FieldReviewerAction, *patch.ReviewerAction)
	}
	if patch.ReporterID != nil {
		w.set(lists.FieldReporter, *patch.ReporterID)
	}
	if patch.OwnerID != nil {
		w.set(lists.FieldOwner, *patch.OwnerID)
	}
	if patch.ReviewerID != nil {
		w.set(lists.FieldReviewer, []int{*patch.ReviewerID})
	}

	fields, err := w.result()
	if err != nil {
		return err
	}
	if err := r.client.Update(ctx, lists.CollectionProblems, id, fields); err != nil {
		return fmt.Errorf("failed to update problem %d: %w", id, err)
	}
	return nil
}

func (r *problemRepository) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, lists.CollectionProblems, id); err != nil {
		return fmt.Errorf("failed to delete problem %d: %w", id, err)
	}
	return nil
}

func (r *problemRepository) decode(rec lists.Record) models.Problem {
	fr := fieldReader{schema: r.schema, rec: rec}
	p := models.Problem{
		ID:             rec.ID(),
		Title:          fr.str(lists.FieldTitle),
		Municipality:   fr.str(lists.FieldMunicipality),
		Description:    fr.str(lists.FieldDescription),
		Category:       fr.str(lists.FieldCategory),
		Status:         models.ProblemStatus(fr.str(lists.FieldStatus)),
		ReviewerAction: fr.str(lists.FieldReviewerAction),
		Reporter:       fr.principal(lists.FieldReporter),
		Owner:          fr.principal(lists.FieldOwner),
		Reviewer:       fr.firstPrincipal(lists.FieldReviewer),
		BackendKey:     fr.str(lists.FieldKey),
	}
	if t := fr.timestamp(lists.FieldCreatedAt); t != nil {
		p.CreatedAt = *t
	}
	return p
}
