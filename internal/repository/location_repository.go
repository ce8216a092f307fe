package repository

import (
	"context"
	"fmt"

	"github.com/BusselW/DDH3/internal/lists"
	"github.com/BusselW/DDH3/internal/models"
)

// LocationRepository defines typed access to the locations list.
type LocationRepository interface {
	// FindAll returns every location in backend order.
	// Returns an empty slice if there are none.
	FindAll(ctx context.Context) ([]models.Location, error)

	// FindByID returns nil, nil when the location does not exist.
	FindByID(ctx context.Context, id int) (*models.Location, error)

	// FindByMunicipality returns the locations stored under exactly this
	// municipality spelling.
	FindByMunicipality(ctx context.Context, municipality string) ([]models.Location, error)

	Create(ctx context.Context, in models.LocationInput) (*models.Location, error)
	Update(ctx context.Context, id int, patch models.LocationPatch) error
	Delete(ctx context.Context, id int) error
}

// locationRepository is the concrete implementation of LocationRepository.
type locationRepository struct {
	client lists.Client
	schema lists.Schema
}

// NewLocationRepository creates a LocationRepository over a list client.
func NewLocationRepository(client lists.Client, schemas lists.Schemas) LocationRepository {
	return &locationRepository{
		client: client,
		schema: schemas[lists.CollectionLocations],
	}
}

func (r *locationRepository) FindAll(ctx context.Context) ([]models.Location, error) {
	return r.find(ctx, lists.Query{})
}

func (r *locationRepository) FindByMunicipality(ctx context.Context, municipality string) ([]models.Location, error) {
	name, ok := r.schema.Physical(lists.FieldMunicipality)
	if !ok {
		return nil, fmt.Errorf("%w: municipality is not mapped", models.ErrValidation)
	}
	return r.find(ctx, lists.Query{Filter: []lists.Condition{{Field: name, Value: municipality}}})
}

func (r *locationRepository) find(ctx context.Context, q lists.Query) ([]models.Location, error) {
	records, err := r.client.List(ctx, lists.CollectionLocations, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	locations := make([]models.Location, 0, len(records))
	for _, rec := range records {
		locations = append(locations, r.decode(rec))
	}
	return locations, nil
}

func (r *locationRepository) FindByID(ctx context.Context, id int) (*models.Location, error) {
	rec, err := r.client.GetByID(ctx, lists.CollectionLocations, id, lists.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to get location %d: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	loc := r.decode(rec)
	return &loc, nil
}

func (r *locationRepository) Create(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	w := newRecordWriter(r.schema)
	w.set(lists.FieldMunicipality, in.Municipality)
	w.set(lists.FieldName, in.Name)
	w.setNonEmpty(lists.FieldStatus, in.Status)
	w.setNonEmpty(lists.FieldCategory, in.Category)
	w.setNonEmpty(lists.FieldWarningActive, in.WarningActive)
	if in.ContactEmail != nil {
		w.set(lists.FieldContactEmail, *in.ContactEmail)
	}
	if in.GeneralReport != nil {
		w.set(lists.FieldGeneralReport, *in.GeneralReport)
	}
	if in.InspectionReports != nil {
		w.set(lists.FieldInspectionReports, *in.InspectionReports)
	}
	if in.ConsentDecision != nil {
		w.set(lists.FieldConsentDecision, *in.ConsentDecision)
	}
	if in.WarningStart != nil {
		w.set(lists.FieldWarningStart, *in.WarningStart)
	}
	if in.WarningEnd != nil {
		w.set(lists.FieldWarningEnd, *in.WarningEnd)
	}
	if in.LastInspection != nil {
		w.set(lists.FieldLastInspection, *in.LastInspection)
	}

	fields, err := w.result()
	if err != nil {
		return nil, err
	}
	rec, err := r.client.Create(ctx, lists.CollectionLocations, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	loc := r.decode(rec)
	return &loc, nil
}

func (r *locationRepository) Update(ctx context.Context, id int, patch models.LocationPatch) error {
	w := newRecordWriter(r.schema)
	if patch.Municipality != nil {
		w.set(lists.FieldMunicipality, *patch.Municipality)
	}
	if patch.Name != nil {
		w.set(lists.FieldName, *patch.Name)
	}
	if patch.Status != nil {
		w.set(lists.FieldStatus, *patch.Status)
	}
	if patch.Category != nil {
		w.set(lists.FieldCategory, *patch.Category)
	}
	if patch.WarningActive != nil {
		w.set(lists.FieldWarningActive, *patch.WarningActive)
	}
	if patch.ContactEmail != nil {
		w.set(lists.FieldContactEmail, *patch.ContactEmail)
	}
	if patch.GeneralReport != nil {
		w.set(lists.FieldGeneralReport, *patch.GeneralReport)
	}
	if patch.InspectionReports != nil {
		w.set(lists.FieldInspectionReports, *patch.InspectionReports)
	}
	if patch.ConsentDecision != nil {
		w.set(lists.FieldConsentDecision, *patch.ConsentDecision)
	}
	if patch.WarningStart != nil {
		w.set(lists.FieldWarningStart, *patch.WarningStart)
	}
	if patch.WarningEnd != nil {
		w.set(lists.FieldWarningEnd, *patch.WarningEnd)
	}
	if patch.LastInspection != nil {
		w.set(lists.FieldLastInspection, *patch.LastInspection)
	}

	fields, err := w.result()
	if err != nil {
		return err
	}
	if err := r.client.Update(ctx, lists.CollectionLocations, id, fields); err != nil {
		return fmt.Errorf("failed to update location %d: %w", id, err)
	}
	return nil
}

func (r *locationRepository) Delete(ctx context.Context, id int) error {
	if err := r.client.Delete(ctx, lists.CollectionLocations, id); err != nil {
		return fmt.Errorf("failed to delete location %d: %w", id, err)
	}
	return nil
}

func (r *locationRepository) decode(rec lists.Record) models.Location {
	fr := fieldReader{schema: r.schema, rec: rec}
	return models.Location{
		ID:                rec.ID(),
		Municipality:      fr.str(lists.FieldMunicipality),
		Name:              fr.str(lists.FieldName),
		Status:            fr.str(lists.FieldStatus),
		Category:          fr.str(lists.FieldCategory),
		WarningActive:     fr.str(lists.FieldWarningActive),
		ContactEmail:      fr.optStr(lists.FieldContactEmail),
		GeneralReport:     fr.link(lists.FieldGeneralReport),
		InspectionReports: fr.link(lists.FieldInspectionReports),
		ConsentDecision:   fr.link(lists.FieldConsentDecision),
		WarningStart:      fr.timestamp(lists.FieldWarningStart),
		WarningEnd:        fr.timestamp(lists.FieldWarningEnd),
		LastInspection:    fr.timestamp(lists.FieldLastInspection),
		Problems:          []models.Problem{},
	}
}
