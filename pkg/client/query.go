package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type filter struct {
	column string
	op     string
	value  string
}

type order struct {
	column string
	desc   bool
}

// Query is a fluent request against one table. Filters are sent as
// PostgREST query parameters and evaluated by the server.
type Query struct {
	c       *Client
	table   string
	columns string
	filters []filter
	orders  []order
	limit   int
}

// From starts a query on table
func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table}
}

// Select sets the column list; the local server accepts and ignores it
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq keeps rows where column equals value
func (q *Query) Eq(column string, value interface{}) *Query { return q.add(column, "eq", value) }

// Neq keeps rows where column differs from value
func (q *Query) Neq(column string, value interface{}) *Query { return q.add(column, "neq", value) }

// Gt keeps rows where column is greater than value
func (q *Query) Gt(column string, value interface{}) *Query { return q.add(column, "gt", value) }

// Gte keeps rows where column is greater than or equal to value
func (q *Query) Gte(column string, value interface{}) *Query { return q.add(column, "gte", value) }

// Lt keeps rows where column is less than value
func (q *Query) Lt(column string, value interface{}) *Query { return q.add(column, "lt", value) }

// Lte keeps rows where column is less than or equal to value
func (q *Query) Lte(column string, value interface{}) *Query { return q.add(column, "lte", value) }

var inEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// In keeps rows where column is one of values. Values containing list
// punctuation are quoted.
func (q *Query) In(column string, values ...interface{}) *Query {
	parts := make([]string, len(values))
	for i, v := range values {
		s := formatValue(v)
		if strings.ContainsAny(s, `,()"\`) || strings.TrimSpace(s) != s {
			s = `"` + inEscaper.Replace(s) + `"`
		}
		parts[i] = s
	}
	q.filters = append(q.filters, filter{column: column, op: "in", value: "(" + strings.Join(parts, ",") + ")"})
	return q
}

// Order sorts by column; later calls add tie-breakers
func (q *Query) Order(column string, ascending bool) *Query {
	q.orders = append(q.orders, order{column: column, desc: !ascending})
	return q
}

// Limit caps the number of rows returned
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) add(column, op string, value interface{}) *Query {
	q.filters = append(q.filters, filter{column: column, op: op, value: formatValue(value)})
	return q
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// params encodes the query state
func (q *Query) params() url.Values {
	v := url.Values{}
	if q.columns != "" {
		v.Set("select", q.columns)
	}
	for _, f := range q.filters {
		v.Add(f.column, f.op+"."+f.value)
	}
	if len(q.orders) > 0 {
		parts := make([]string, len(q.orders))
		for i, o := range q.orders {
			dir := "asc"
			if o.desc {
				dir = "desc"
			}
			parts[i] = o.column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.limit > 0 {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v
}

// idFilter returns the value of the Eq("id", ...) filter
func (q *Query) idFilter() (string, bool) {
	for _, f := range q.filters {
		if f.column == "id" && f.op == "eq" {
			return f.value, true
		}
	}
	return "", false
}

// Execute runs the query and decodes the rows into out, usually a pointer
// to a slice
func (q *Query) Execute(ctx context.Context, out interface{}) error {
	return q.c.do(ctx, request{method: http.MethodGet, path: q.c.path("rest", q.table), query: q.params()}, out)
}

// first fetches at most one row
func (q *Query) first(ctx context.Context) (json.RawMessage, error) {
	params := q.params()
	if q.limit == 0 {
		params.Set("limit", "1")
	}
	var rows []json.RawMessage
	if err := q.c.do(ctx, request{method: http.MethodGet, path: q.c.path("rest", q.table), query: params}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Single decodes the first matching row into out. It returns ErrNoRows when
// nothing matches.
func (q *Query) Single(ctx context.Context, out interface{}) error {
	row, err := q.first(ctx)
	if err != nil {
		return err
	}
	if row == nil {
		return ErrNoRows
	}
	return json.Unmarshal(row, out)
}

// MaybeSingle is like Single but reports a missing row as false instead of
// an error
func (q *Query) MaybeSingle(ctx context.Context, out interface{}) (bool, error) {
	row, err := q.first(ctx)
	if err != nil || row == nil {
		return false, err
	}
	return true, json.Unmarshal(row, out)
}

// representation asks the hosted backend to return the written rows
var representation = http.Header{"Prefer": {"return=representation"}}

// Insert writes values, an object or a slice of objects, and decodes the
// created row(s) into out with the same shape
func (q *Query) Insert(ctx context.Context, values, out interface{}) error {
	r := request{method: http.MethodPost, path: q.c.path("rest", q.table), body: values}
	if !q.c.cfg.Local {
		r.header = representation
	}
	raw, err := q.c.send(ctx, r)
	if err != nil || out == nil {
		return err
	}
	if isList(values) {
		return unmarshalList(raw, out)
	}
	return unmarshalFirst(raw, out)
}

// Update changes the row selected by Eq("id", ...) and decodes the result into out
func (q *Query) Update(ctx context.Context, values, out interface{}) error {
	id, ok := q.idFilter()
	if !ok {
		return ErrMissingID
	}
	if q.c.cfg.Local {
		return q.c.do(ctx, request{method: http.MethodPut, path: q.c.path("rest", q.table) + "/" + url.PathEscape(id), body: values}, out)
	}

	raw, err := q.c.send(ctx, request{
		method: http.MethodPatch,
		path:   q.c.path("rest", q.table),
		query:  url.Values{"id": {"eq." + id}},
		body:   values,
		header: representation,
	})
	if err != nil || out == nil {
		return err
	}
	return unmarshalFirst(raw, out)
}

// Delete removes the row selected by Eq("id", ...)
func (q *Query) Delete(ctx context.Context) error {
	id, ok := q.idFilter()
	if !ok {
		return ErrMissingID
	}
	if q.c.cfg.Local {
		return q.c.do(ctx, request{method: http.MethodDelete, path: q.c.path("rest", q.table) + "/" + url.PathEscape(id)}, nil)
	}
	return q.c.do(ctx, request{method: http.MethodDelete, path: q.c.path("rest", q.table), query: url.Values{"id": {"eq." + id}}}, nil)
}

func isList(v interface{}) bool {
	k := reflect.Indirect(reflect.ValueOf(v)).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// unmarshalList decodes raw into the slice out. The local server answers a
// one-element batch with a bare object, which is wrapped first.
func unmarshalList(raw []byte, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		raw = append(append([]byte{'['}, raw...), ']')
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// unmarshalFirst decodes the first element of a JSON array into out
func unmarshalFirst(raw []byte, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ErrNoRows
	}
	if raw[0] != '[' {
		return json.Unmarshal(raw, out)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rows) == 0 {
		return ErrNoRows
	}
	return json.Unmarshal(rows[0], out)
}
