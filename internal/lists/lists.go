// Package lists is a generic CRUD accessor over the two backend lists.
//
// Records are keyed by physical field name. On read, values are whatever
// the backend returned after JSON decoding: strings for text and dates,
// objects with Description/Url for links, objects with Id/Title/EMail for
// expanded users. On write, callers pass Go values (string, time.Time,
// models.DocumentLink, int user ids, []int for multi-user fields, or nil to
// clear) and each client encodes them for its backend.
package lists

import (
	"context"
	"fmt"
	"strconv"

	"github.com/BusselW/DDH3/internal/models"
)

// Record is one list item keyed by physical field name.
type Record map[string]interface{}

// ID returns the backend-assigned item id, or 0 when absent.
func (r Record) ID() int {
	return IntValue(r[IDField])
}

// Condition is an equality filter on a physical field.
type Condition struct {
	Field string
	Value string
}

// Order sorts on a physical field.
type Order struct {
	Field string
	Desc  bool
}

// Query narrows a List or GetByID call. Zero values mean "no restriction".
type Query struct {
	Filter  []Condition
	Select  []string
	Expand  []string
	OrderBy []Order
	Top     int
}

// Client is the list backend contract shared by SharePoint and Postgres.
type Client interface {
	// List returns every item matching q. No rows yields an empty slice.
	List(ctx context.Context, coll Collection, q Query) ([]Record, error)
	// GetByID returns nil, nil when no item has the id.
	GetByID(ctx context.Context, coll Collection, id int, q Query) (Record, error)
	Create(ctx context.Context, coll Collection, fields Record) (Record, error)
	// Update merges fields into the stored item. Absent fields are kept.
	Update(ctx context.Context, coll Collection, id int, fields Record) error
	Delete(ctx context.Context, coll Collection, id int) error
	Ping(ctx context.Context) error
}

// PrincipalDirectory searches the backend user directory.
type PrincipalDirectory interface {
	SearchPrincipals(ctx context.Context, query string, top int) ([]models.Principal, error)
}

// Backend is a Client that can also search principals.
type Backend interface {
	Client
	PrincipalDirectory
}

// IntValue converts a decoded JSON number (or numeric string) to int.
func IntValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func schemaFor(schemas Schemas, coll Collection) (Schema, error) {
	schema, ok := schemas[coll]
	if !ok {
		return Schema{}, fmt.Errorf("%w: unknown collection %q", models.ErrInvalidArgument, coll)
	}
	return schema, nil
}
