package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BusselW/DDH3/internal/lists"
	"github.com/BusselW/DDH3/internal/models"
)

// Layouts accepted for date fields. SharePoint returns RFC 3339 in UTC;
// hand-edited rows in the local backend sometimes carry a bare date.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// fieldReader decodes typed values out of a record by logical field.
type fieldReader struct {
	schema lists.Schema
	rec    lists.Record
}

func (fr fieldReader) raw(f lists.Field) interface{} {
	name, ok := fr.schema.Physical(f)
	if !ok {
		return nil
	}
	return fr.rec[name]
}

func (fr fieldReader) str(f lists.Field) string {
	switch v := fr.raw(f).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

func (fr fieldReader) optStr(f lists.Field) *string {
	s := strings.TrimSpace(fr.str(f))
	if s == "" {
		return nil
	}
	return &s
}

func (fr fieldReader) timestamp(f lists.Field) *time.Time {
	s := fr.str(f)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (fr fieldReader) link(f lists.Field) *models.DocumentLink {
	obj, ok := fr.raw(f).(map[string]interface{})
	if !ok {
		return nil
	}
	u, _ := obj["Url"].(string)
	if u == "" {
		return nil
	}
	desc, _ := obj["Description"].(string)
	return &models.DocumentLink{Description: desc, URL: u}
}

func (fr fieldReader) principal(f lists.Field) *models.Principal {
	return decodePrincipal(fr.raw(f))
}

// firstPrincipal returns the first entry of a multi-user field.
func (fr fieldReader) firstPrincipal(f lists.Field) *models.Principal {
	var items []interface{}
	switch v := fr.raw(f).(type) {
	case map[string]interface{}:
		items, _ = v["results"].([]interface{})
	case []interface{}:
		items = v
	}
	for _, item := range items {
		if p := decodePrincipal(item); p != nil {
			return p
		}
	}
	return nil
}

// decodePrincipal reads an expanded user object. Unexpanded (deferred)
// lookups carry no Id and decode to nil.
func decodePrincipal(v interface{}) *models.Principal {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	id := lists.IntValue(obj["Id"])
	if id == 0 {
		return nil
	}
	p := &models.Principal{ID: id}
	p.DisplayName, _ = obj["Title"].(string)
	p.Email, _ = obj["EMail"].(string)
	p.LoginName, _ = obj["Name"].(string)
	return p
}

// recordWriter collects write values under their physical names. The
// first unmapped field is reported by err().
type recordWriter struct {
	schema lists.Schema
	rec    lists.Record
	bad    []lists.Field
}

func newRecordWriter(schema lists.Schema) *recordWriter {
	return &recordWriter{schema: schema, rec: lists.Record{}}
}

func (w *recordWriter) set(f lists.Field, v interface{}) {
	name, ok := w.schema.Physical(f)
	if !ok {
		w.bad = append(w.bad, f)
		return
	}
	w.rec[name] = v
}

// setNonEmpty writes s unless it is blank.
func (w *recordWriter) setNonEmpty(f lists.Field, s string) {
	if strings.TrimSpace(s) != "" {
		w.set(f, s)
	}
}

func (w *recordWriter) result() (lists.Record, error) {
	if len(w.bad) > 0 {
		return nil, fmt.Errorf("%w: fields not mapped to the %q list: %v", models.ErrValidation, w.schema.Title, w.bad)
	}
	return w.rec, nil
}

// userSelect lists the sub-fields fetched for every expanded user field.
var userSelect = []string{"Id", "Title", "EMail", "Name"}

// expandedQuery selects every mapped field and expands user fields.
func expandedQuery(schema lists.Schema) lists.Query {
	var q lists.Query
	for _, spec := range schema.Fields {
		if spec.Kind == lists.KindUser || spec.Kind == lists.KindUserMulti {
			continue
		}
		q.Select = append(q.Select, spec.Name)
	}
	sort.Strings(q.Select)
	for _, name := range schema.UserFields() {
		for _, sub := range userSelect {
			q.Select = append(q.Select, name+"/"+sub)
		}
		q.Expand = append(q.Expand, name)
	}
	return q
}
