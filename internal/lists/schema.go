package lists

import (
	"fmt"
	"sort"
	"strings"
)

// Collection names one of the two lists the dashboard works with.
type Collection string

const (
	CollectionLocations Collection = "locations"
	CollectionProblems  Collection = "problems"
)

// Field is a logical field name. Physical (backend) names are looked up
// through a Schema so the rest of the code never spells them out.
type Field string

// Logical fields shared by both collections.
const (
	FieldID           Field = "id"
	FieldMunicipality Field = "municipality"
	FieldCategory     Field = "category"
	FieldStatus       Field = "status"
	FieldKey          Field = "key"
)

// Location fields.
const (
	FieldName              Field = "name"
	FieldWarningActive     Field = "warningActive"
	FieldContactEmail      Field = "contactEmail"
	FieldGeneralReport     Field = "generalReport"
	FieldInspectionReports Field = "inspectionReports"
	FieldConsentDecision   Field = "consentDecision"
	FieldWarningStart      Field = "warningStart"
	FieldWarningEnd        Field = "warningEnd"
	FieldLastInspection    Field = "lastInspection"
)

// Problem fields.
const (
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldReviewerAction Field = "reviewerAction"
	FieldCreatedAt      Field = "createdAt"
	FieldReporter       Field = "reporter"
	FieldOwner          Field = "owner"
	FieldReviewer       Field = "reviewer"
)

// Kind tells the clients how a field value is encoded on the wire.
type Kind int

const (
	KindText Kind = iota
	KindDateTime
	KindURL
	KindUser
	KindUserMulti
	// KindCalculated and KindCounter are read-only.
	KindCalculated
	KindCounter
)

// ReadOnly reports whether values of this kind can never be written.
func (k Kind) ReadOnly() bool {
	return k == KindCalculated || k == KindCounter
}

// FieldSpec is the physical name and kind of one logical field.
type FieldSpec struct {
	Name string
	Kind Kind
}

// IDField is the physical name of the backend-assigned item id.
const IDField = "Id"

// Schema maps the logical fields of one collection to the backend list.
type Schema struct {
	// Title is the list title used in getbytitle('<Title>').
	Title  string
	Fields map[Field]FieldSpec
}

// Spec returns the field spec for a logical field.
func (s Schema) Spec(f Field) (FieldSpec, bool) {
	spec, ok := s.Fields[f]
	return spec, ok
}

// Physical returns the backend name of a logical field.
func (s Schema) Physical(f Field) (string, bool) {
	spec, ok := s.Fields[f]
	return spec.Name, ok
}

// ByPhysical looks up a field spec by its backend name.
func (s Schema) ByPhysical(name string) (FieldSpec, bool) {
	for _, spec := range s.Fields {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// UserFields returns the physical names of every user-typed field, sorted.
func (s Schema) UserFields() []string {
	var names []string
	for _, spec := range s.Fields {
		if spec.Kind == KindUser || spec.Kind == KindUserMulti {
			names = append(names, spec.Name)
		}
	}
	sort.Strings(names)
	return names
}

// EntityType is the list item type name that write bodies must carry.
func (s Schema) EntityType() string {
	return "SP.Data." + strings.ReplaceAll(s.Title, " ", "_x0020_") + "ListItem"
}

// Schemas holds one Schema per collection.
type Schemas map[Collection]Schema

// DefaultSchemas returns the field table of the production lists.
func DefaultSchemas() Schemas {
	return Schemas{
		CollectionLocations: {
			Title: "Digitale handhaving",
			Fields: map[Field]FieldSpec{
				FieldID:                {Name: IDField, Kind: KindCounter},
				FieldMunicipality:      {Name: "Gemeente", Kind: KindText},
				FieldName:              {Name: "Title", Kind: KindText},
				FieldStatus:            {Name: "Status_x0020_B_x0026_S", Kind: KindText},
				FieldCategory:          {Name: "Feitcodegroep", Kind: KindText},
				FieldWarningActive:     {Name: "Waarschuwingsperiode", Kind: KindText},
				FieldContactEmail:      {Name: "E_x002d_mailadres_x0020_contactp", Kind: KindText},
				FieldGeneralReport:     {Name: "Link_x0020_Algemeen_x0020_PV", Kind: KindURL},
				FieldInspectionReports: {Name: "Link_x0020_Schouwrapporten", Kind: KindURL},
				FieldConsentDecision:   {Name: "Instemmingsbesluit", Kind: KindURL},
				FieldWarningStart:      {Name: "Start_x0020_Waarschuwingsperiode", Kind: KindDateTime},
				FieldWarningEnd:        {Name: "Einde_x0020_Waarschuwingsperiode", Kind: KindDateTime},
				FieldLastInspection:    {Name: "Laatste_x0020_schouw", Kind: KindDateTime},
				FieldKey:               {Name: "gemeenteID", Kind: KindCalculated},
			},
		},
		CollectionProblems: {
			Title: "Problemen pleeglocaties",
			Fields: map[Field]FieldSpec{
				FieldID:             {Name: IDField, Kind: KindCounter},
				FieldTitle:          {Name: "Title", Kind: KindText},
				FieldMunicipality:   {Name: "Gemeente", Kind: KindText},
				FieldDescription:    {Name: "Probleembeschrijving", Kind: KindText},
				FieldCategory:       {Name: "Feitcodegroep", Kind: KindText},
				FieldStatus:         {Name: "Opgelost_x003f_", Kind: KindText},
				FieldReviewerAction: {Name: "Actie_x0020_Beoordelaars", Kind: KindText},
				FieldCreatedAt:      {Name: "Aanmaakdatum", Kind: KindDateTime},
				FieldReporter:       {Name: "Melder", Kind: KindUser},
				FieldOwner:          {Name: "Eigenaar", Kind: KindUser},
				FieldReviewer:       {Name: "Beoordelaar", Kind: KindUserMulti},
				FieldKey:            {Name: "ProbleemID", Kind: KindCalculated},
			},
		},
	}
}

// WithOverrides returns a copy of s with physical names replaced. Keys
// have the form "<collection>.<logicalField>", for example
// "problems.status". Unknown collections or fields are rejected.
func (s Schemas) WithOverrides(overrides map[string]string) (Schemas, error) {
	out := make(Schemas, len(s))
	for coll, schema := range s {
		fields := make(map[Field]FieldSpec, len(schema.Fields))
		for f, spec := range schema.Fields {
			fields[f] = spec
		}
		out[coll] = Schema{Title: schema.Title, Fields: fields}
	}

	for key, physical := range overrides {
		collName, fieldName, ok := strings.Cut(key, ".")
		if !ok || strings.TrimSpace(physical) == "" {
			return nil, fmt.Errorf("invalid field override %q=%q", key, physical)
		}
		schema, ok := out[Collection(collName)]
		if !ok {
			return nil, fmt.Errorf("field override %q: unknown collection %q", key, collName)
		}
		spec, ok := schema.Fields[Field(fieldName)]
		if !ok {
			return nil, fmt.Errorf("field override %q: unknown field %q", key, fieldName)
		}
		spec.Name = strings.TrimSpace(physical)
		schema.Fields[Field(fieldName)] = spec
	}
	return out, nil
}

// WithTitle returns a copy of s with the list title of coll replaced.
func (s Schemas) WithTitle(coll Collection, title string) Schemas {
	if title == "" {
		return s
	}
	out := make(Schemas, len(s))
	for c, schema := range s {
		out[c] = schema
	}
	schema := out[coll]
	schema.Title = title
	out[coll] = schema
	return out
}

// ParseOverrides parses "locations.name=Title,problems.status=Status" into
// an override map.
func ParseOverrides(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid field override %q: expected key=value", pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}
