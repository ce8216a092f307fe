package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

// PostgresClient stores list items as JSONB rows in the list_items table.
// It is the local development backend and honors the same contract as the
// SharePoint client, including the shape of expanded user and link values.
type PostgresClient struct {
	pool    *pgxpool.Pool
	schemas Schemas
	log     *logger.Logger
}

// NewPostgresClient creates a list client on top of an open pool.
func NewPostgresClient(pool *pgxpool.Pool, schemas Schemas, log *logger.Logger) *PostgresClient {
	return &PostgresClient{
		pool:    pool,
		schemas: schemas,
		log:     log.Component("postgres_list_client"),
	}
}

// List returns all rows of coll matching q.
func (c *PostgresClient) List(ctx context.Context, coll Collection, q Query) ([]Record, error) {
	if _, err := schemaFor(c.schemas, coll); err != nil {
		return nil, err
	}

	sql, args := buildListQuery(coll, q)
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, transportErr("list "+string(coll), 0, "", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, transportErr("list "+string(coll), 0, "", err)
		}
		records = append(records, project(rec, q.Select))
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("list "+string(coll), 0, "", err)
	}
	return records, nil
}

// GetByID returns the row with id, or nil, nil when absent.
func (c *PostgresClient) GetByID(ctx context.Context, coll Collection, id int, q Query) (Record, error) {
	if _, err := schemaFor(c.schemas, coll); err != nil {
		return nil, err
	}

	row := c.pool.QueryRow(ctx,
		`SELECT id, fields FROM list_items WHERE collection = $1 AND id = $2`,
		string(coll), id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, transportErr("get "+string(coll), 0, "", err)
	}
	return project(rec, q.Select), nil
}

// Create inserts a row and returns it.
func (c *PostgresClient) Create(ctx context.Context, coll Collection, fields Record) (Record, error) {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return nil, err
	}
	doc, err := c.encodeFields(ctx, schema, fields)
	if err != nil {
		return nil, err
	}

	row := c.pool.QueryRow(ctx,
		`INSERT INTO list_items (collection, fields) VALUES ($1, $2::jsonb) RETURNING id, fields`,
		string(coll), doc)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, transportErr("create "+string(coll), 0, "", err)
	}

	c.log.Debug("List item created", map[string]interface{}{"collection": coll, "id": rec.ID()})
	return rec, nil
}

// Update merges fields into the stored JSON document.
func (c *PostgresClient) Update(ctx context.Context, coll Collection, id int, fields Record) error {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return err
	}
	doc, err := c.encodeFields(ctx, schema, fields)
	if err != nil {
		return err
	}

	tag, err := c.pool.Exec(ctx,
		`UPDATE list_items SET fields = fields || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		string(coll), id, doc)
	if err != nil {
		return transportErr(fmt.Sprintf("update %s %d", coll, id), 0, "", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, coll, id)
	}
	return nil
}

// Delete removes the row with id.
func (c *PostgresClient) Delete(ctx context.Context, coll Collection, id int) error {
	if _, err := schemaFor(c.schemas, coll); err != nil {
		return err
	}

	tag, err := c.pool.Exec(ctx,
		`DELETE FROM list_items WHERE collection = $1 AND id = $2`,
		string(coll), id)
	if err != nil {
		return transportErr(fmt.Sprintf("delete %s %d", coll, id), 0, "", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, coll, id)
	}
	return nil
}

// Ping checks the database connection.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return transportErr("ping", 0, "", err)
	}
	return nil
}

// SearchPrincipals matches query against principal names and emails.
func (c *PostgresClient) SearchPrincipals(ctx context.Context, query string, top int) ([]models.Principal, error) {
	if top <= 0 {
		top = 20
	}
	rows, err := c.pool.Query(ctx,
		`SELECT id, display_name, email, login_name FROM principals
		 WHERE display_name ILIKE $1 OR email ILIKE $1
		 ORDER BY display_name LIMIT $2`,
		"%"+escapeLike(query)+"%", top)
	if err != nil {
		return nil, transportErr("search principals", 0, "", err)
	}
	defer rows.Close()

	principals := make([]models.Principal, 0)
	for rows.Next() {
		var p models.Principal
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Email, &p.LoginName); err != nil {
			return nil, transportErr("search principals", 0, "", err)
		}
		principals = append(principals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, transportErr("search principals", 0, "", err)
	}
	return principals, nil
}

func (c *PostgresClient) principal(ctx context.Context, id int) (map[string]interface{}, error) {
	var p models.Principal
	err := c.pool.QueryRow(ctx,
		`SELECT id, display_name, email, login_name FROM principals WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.Email, &p.LoginName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: unknown principal %d", models.ErrValidation, id)
		}
		return nil, transportErr("lookup principal", 0, "", err)
	}
	return principalObject(p), nil
}

// encodeFields converts write values into the JSON document stored in the
// fields column, mirroring what SharePoint returns for expanded reads.
func (c *PostgresClient) encodeFields(ctx context.Context, schema Schema, fields Record) ([]byte, error) {
	doc := make(map[string]interface{}, len(fields))
	for name, v := range fields {
		if name == IDField {
			continue
		}
		spec, ok := schema.ByPhysical(name)
		if !ok {
			doc[name] = v
			continue
		}
		if spec.Kind.ReadOnly() {
			return nil, fmt.Errorf("%w: field %s is read-only", models.ErrValidation, name)
		}

		switch spec.Kind {
		case KindURL:
			link, err := linkValue(v)
			if err != nil {
				return nil, err
			}
			if link == nil {
				doc[name] = nil
				continue
			}
			doc[name] = map[string]interface{}{"Description": link.Description, "Url": link.URL}
		case KindUser:
			raw, err := userID(v)
			if err != nil {
				return nil, err
			}
			if raw == nil {
				doc[name] = nil
				continue
			}
			obj, err := c.principal(ctx, raw.(int))
			if err != nil {
				return nil, err
			}
			doc[name] = obj
		case KindUserMulti:
			ids, err := userIDs(v)
			if err != nil {
				return nil, err
			}
			results := make([]interface{}, 0, len(ids))
			for _, id := range ids {
				obj, err := c.principal(ctx, id)
				if err != nil {
					return nil, err
				}
				results = append(results, obj)
			}
			doc[name] = map[string]interface{}{"results": results}
		case KindDateTime:
			t, err := timeValue(v)
			if err != nil {
				return nil, err
			}
			doc[name] = t
		default:
			doc[name] = v
		}
	}
	return json.Marshal(doc)
}

func principalObject(p models.Principal) map[string]interface{} {
	return map[string]interface{}{
		"Id":    p.ID,
		"Title": p.DisplayName,
		"EMail": p.Email,
		"Name":  p.LoginName,
	}
}

// buildListQuery renders q as a parameterized SELECT over list_items.
// Field names are always bound as parameters, never interpolated.
func buildListQuery(coll Collection, q Query) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{string(coll)}
	sb.WriteString(`SELECT id, fields FROM list_items WHERE collection = $1`)

	for _, cond := range q.Filter {
		if cond.Field == IDField {
			args = append(args, cond.Value)
			fmt.Fprintf(&sb, " AND id::text = $%d::text", len(args))
			continue
		}
		args = append(args, cond.Field, cond.Value)
		fmt.Fprintf(&sb, " AND fields->>$%d::text = $%d::text", len(args)-1, len(args))
	}

	sb.WriteString(" ORDER BY ")
	for _, o := range q.OrderBy {
		if o.Field == IDField {
			sb.WriteString("id")
		} else {
			args = append(args, o.Field)
			fmt.Fprintf(&sb, "fields->>$%d::text", len(args))
		}
		if o.Desc {
			sb.WriteString(" DESC")
		}
		sb.WriteString(", ")
	}
	sb.WriteString("id")

	if q.Top > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Top))
	}
	return sb.String(), args
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		id  int
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		return nil, err
	}
	rec := Record{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode fields of item %d: %w", id, err)
		}
	}
	rec[IDField] = id
	return rec, nil
}

// project keeps only the selected fields. "Melder/Title" selects Melder.
func project(rec Record, selected []string) Record {
	if len(selected) == 0 {
		return rec
	}
	keep := map[string]bool{IDField: true}
	for _, s := range selected {
		name, _, _ := strings.Cut(s, "/")
		keep[name] = true
	}
	out := make(Record, len(keep))
	for k, v := range rec {
		if keep[k] {
			out[k] = v
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
