package lists

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

const (
	verboseJSON     = "application/json;odata=verbose"
	maxErrorBody    = 4096
	defaultMaxPages = 50
)

// SharePointConfig configures the REST client.
type SharePointConfig struct {
	SiteURL  string
	Timeout  time.Duration
	Username string
	Password string
	// MaxPages bounds how many __next links List follows.
	MaxPages int
}

// SharePointClient talks to a SharePoint site over the odata=verbose REST
// API. It never retries; failures surface as *models.TransportError.
type SharePointClient struct {
	httpClient *http.Client
	siteURL    string
	username   string
	password   string
	maxPages   int
	schemas    Schemas
	tokens     TokenProvider
	log        *logger.Logger
}

// NewSharePointClient creates a client for the site in cfg. Write tokens
// come from /_api/contextinfo unless replaced with SetTokenProvider.
func NewSharePointClient(cfg SharePointConfig, schemas Schemas, log *logger.Logger) *SharePointClient {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	c := &SharePointClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		maxPages:   maxPages,
		schemas:    schemas,
		log:        log.Component("sharepoint_client"),
	}
	c.tokens = &ContextInfoTokenProvider{client: c}
	return c
}

// SetTokenProvider replaces the write token source.
func (c *SharePointClient) SetTokenProvider(tp TokenProvider) {
	c.tokens = tp
}

type listResponse struct {
	D struct {
		Results []Record `json:"results"`
		Next    string   `json:"__next"`
	} `json:"d"`
}

type itemResponse struct {
	D Record `json:"d"`
}

// List returns all items of coll matching q, following server paging.
func (c *SharePointClient) List(ctx context.Context, coll Collection, q Query) ([]Record, error) {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return nil, err
	}

	op := "list " + string(coll)
	next := c.itemsURL(schema) + encodeQuery(q)
	records := make([]Record, 0)

	for page := 0; next != ""; page++ {
		if page >= c.maxPages {
			fields := map[string]interface{}{
				"collection": coll,
				"max_pages":  c.maxPages,
				"items":      len(records),
			}
			// A bounded query may stop early; a full collection read may not.
			if q.Top > 0 {
				c.log.Warn("Page limit reached, result truncated", fields)
				break
			}
			incomplete := transportErr(op, 0, "", fmt.Errorf("result incomplete after %d pages", c.maxPages))
			c.log.Error("Page limit reached before the end of the collection", incomplete, fields)
			return nil, incomplete
		}

		var body listResponse
		if err := c.do(ctx, op, http.MethodGet, next, nil, nil, &body); err != nil {
			return nil, err
		}
		for _, item := range body.D.Results {
			records = append(records, cleanRecord(item))
		}
		if q.Top > 0 && len(records) >= q.Top {
			records = records[:q.Top]
			break
		}
		next = body.D.Next
	}

	return records, nil
}

// GetByID returns the item with id, or nil, nil when it does not exist.
func (c *SharePointClient) GetByID(ctx context.Context, coll Collection, id int, q Query) (Record, error) {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return nil, err
	}

	var body itemResponse
	q.Filter, q.OrderBy, q.Top = nil, nil, 0
	err = c.do(ctx, "get "+string(coll), http.MethodGet, c.itemURL(schema, id)+encodeQuery(q), nil, nil, &body)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return cleanRecord(body.D), nil
}

// Create adds an item and returns it as stored by the backend.
func (c *SharePointClient) Create(ctx context.Context, coll Collection, fields Record) (Record, error) {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return nil, err
	}
	payload, err := encodeSharePointFields(schema, fields)
	if err != nil {
		return nil, err
	}
	digest, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var body itemResponse
	headers := map[string]string{"X-RequestDigest": digest}
	if err := c.do(ctx, "create "+string(coll), http.MethodPost, c.itemsURL(schema), payload, headers, &body); err != nil {
		return nil, mapWriteError(err)
	}
	return cleanRecord(body.D), nil
}

// Update merges fields into item id.
func (c *SharePointClient) Update(ctx context.Context, coll Collection, id int, fields Record) error {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return err
	}
	payload, err := encodeSharePointFields(schema, fields)
	if err != nil {
		return err
	}
	digest, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"X-RequestDigest": digest,
		"X-HTTP-Method":   "MERGE",
		"IF-MATCH":        "*",
	}
	op := fmt.Sprintf("update %s %d", coll, id)
	if err := c.do(ctx, op, http.MethodPost, c.itemURL(schema, id), payload, headers, nil); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Delete removes item id. Deleting a missing item is ErrNotFound.
func (c *SharePointClient) Delete(ctx context.Context, coll Collection, id int) error {
	schema, err := schemaFor(c.schemas, coll)
	if err != nil {
		return err
	}
	digest, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"X-RequestDigest": digest,
		"X-HTTP-Method":   "DELETE",
		"IF-MATCH":        "*",
	}
	op := fmt.Sprintf("delete %s %d", coll, id)
	if err := c.do(ctx, op, http.MethodPost, c.itemURL(schema, id), nil, headers, nil); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Ping checks that the site answers.
func (c *SharePointClient) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, c.siteURL+"/_api/web?$select=Title", nil, nil, nil)
}

type siteUser struct {
	ID        int    `json:"Id"`
	Title     string `json:"Title"`
	Email     string `json:"Email"`
	LoginName string `json:"LoginName"`
}

// SearchPrincipals looks up site users whose name or email contains query.
func (c *SharePointClient) SearchPrincipals(ctx context.Context, query string, top int) ([]models.Principal, error) {
	term := odataString(query)
	filter := fmt.Sprintf("substringof(%s,Title) or substringof(%s,Email)", term, term)
	reqURL := c.siteURL + "/_api/web/siteusers?$filter=" + queryEscape(filter) +
		"&$select=" + queryEscape("Id,Title,Email,LoginName")
	if top > 0 {
		reqURL += "&$top=" + strconv.Itoa(top)
	}

	var body struct {
		D struct {
			Results []siteUser `json:"results"`
		} `json:"d"`
	}
	if err := c.do(ctx, "search principals", http.MethodGet, reqURL, nil, nil, &body); err != nil {
		return nil, err
	}

	principals := make([]models.Principal, 0, len(body.D.Results))
	for _, u := range body.D.Results {
		principals = append(principals, models.Principal{
			ID:          u.ID,
			DisplayName: u.Title,
			Email:       u.Email,
			LoginName:   u.LoginName,
		})
	}
	return principals, nil
}

func (c *SharePointClient) itemsURL(schema Schema) string {
	title := url.PathEscape(strings.ReplaceAll(schema.Title, "'", "''"))
	return c.siteURL + "/_api/web/lists/getbytitle('" + title + "')/items"
}

func (c *SharePointClient) itemURL(schema Schema, id int) string {
	return fmt.Sprintf("%s(%d)", c.itemsURL(schema), id)
}

func (c *SharePointClient) newRequest(ctx context.Context, method, reqURL string, payload interface{}) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", verboseJSON)
	if payload != nil {
		req.Header.Set("Content-Type", verboseJSON)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// do sends one request and decodes a 2xx response into out (when non-nil).
// Anything else becomes a *models.TransportError.
func (c *SharePointClient) do(ctx context.Context, op, method, reqURL string, payload interface{}, headers map[string]string, out interface{}) error {
	req, err := c.newRequest(ctx, method, reqURL, payload)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(op, 0, "", err)
	}
	defer resp.Body.Close()

	c.log.Debug("SharePoint request completed", map[string]interface{}{
		"op":          op,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return transportErr(op, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transportErr(op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusOf(err error) int {
	var te *models.TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

func mapWriteError(err error) error {
	switch statusOf(err) {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", models.ErrNotFound, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	default:
		return err
	}
}

func encodeSharePointFields(schema Schema, fields Record) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"__metadata": map[string]string{"type": schema.EntityType()},
	}
	for name, v := range fields {
		spec, ok := schema.ByPhysical(name)
		if !ok {
			out[name] = v
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
				out[name] = nil
				continue
			}
			desc := link.Description
			if desc == "" {
				desc = link.URL
			}
			out[name] = map[string]interface{}{
				"__metadata":  map[string]string{"type": "SP.FieldUrlValue"},
				"Description": desc,
				"Url":         link.URL,
			}
		case KindUser:
			id, err := userID(v)
			if err != nil {
				return nil, err
			}
			out[name+"Id"] = id
		case KindUserMulti:
			ids, err := userIDs(v)
			if err != nil {
				return nil, err
			}
			out[name+"Id"] = map[string]interface{}{"results": ids}
		case KindDateTime:
			t, err := timeValue(v)
			if err != nil {
				return nil, err
			}
			out[name] = t
		default:
			out[name] = v
		}
	}
	return out, nil
}

func cleanRecord(r Record) Record {
	if r == nil {
		return nil
	}
	delete(r, "__metadata")
	return r
}

func encodeQuery(q Query) string {
	var parts []string
	if len(q.Filter) > 0 {
		conds := make([]string, 0, len(q.Filter))
		for _, c := range q.Filter {
			conds = append(conds, c.Field+" eq "+odataString(c.Value))
		}
		parts = append(parts, "$filter="+queryEscape(strings.Join(conds, " and ")))
	}
	if len(q.Select) > 0 {
		parts = append(parts, "$select="+queryEscape(strings.Join(q.Select, ",")))
	}
	if len(q.Expand) > 0 {
		parts = append(parts, "$expand="+queryEscape(strings.Join(q.Expand, ",")))
	}
	if len(q.OrderBy) > 0 {
		orders := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			if o.Desc {
				orders = append(orders, o.Field+" desc")
			} else {
				orders = append(orders, o.Field+" asc")
			}
		}
		parts = append(parts, "$orderby="+queryEscape(strings.Join(orders, ",")))
	}
	if q.Top > 0 {
		parts = append(parts, "$top="+strconv.Itoa(q.Top))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// odataString quotes v as an OData string literal.
func odataString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func queryEscape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
