package repositories

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
)

// Operator is a PostgREST-style comparison operator
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
	OpIs  Operator = "is"
)

// Filter is one column predicate
type Filter struct {
	Column string
	Op     Operator
	Values []string
}

// OrderBy is one sort key
type OrderBy struct {
	Column string
	Desc   bool
}

// ListOptions holds the predicates, ordering and paging of a list request
type ListOptions struct {
	Filters []Filter
	Order   []OrderBy
	Limit   int
	Offset  int
}

// Query parameters that are not column filters
var reservedParams = map[string]bool{
	"select": true,
	"order":  true,
	"limit":  true,
	"offset": true,
}

// Columns that may never appear in a filter or sort
var hiddenColumns = map[string]bool{
	"password_hash": true,
}

func invalidFilter(format string, args ...interface{}) error {
	return apperrors.NewCustomError(apperrors.ErrInvalidFilter, fmt.Sprintf(format, args...))
}

func unknownColumn(table, col string) error {
	return apperrors.NewCustomError(apperrors.ErrUnknownColumn,
		fmt.Sprintf("unknown column %q for table %s", col, table)).WithField(col)
}

// ParseListOptions reads `col=op.value`, `order=col.dir` and `limit=n`
// parameters. `select` is accepted and ignored.
func ParseListOptions(t *Table, q url.Values) (ListOptions, error) {
	var opts ListOptions

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reservedParams[key] {
			continue
		}
		if !t.HasColumn(key) || hiddenColumns[key] {
			return opts, unknownColumn(t.Name, key)
		}
		for _, raw := range q[key] {
			f, err := parseFilter(key, raw)
			if err != nil {
				return opts, err
			}
			opts.Filters = append(opts.Filters, f)
		}
	}

	if order := q.Get("order"); order != "" {
		for _, part := range strings.Split(order, ",") {
			ob, err := parseOrder(strings.TrimSpace(part))
			if err != nil {
				return opts, err
			}
			if !t.HasColumn(ob.Column) || hiddenColumns[ob.Column] {
				return opts, unknownColumn(t.Name, ob.Column)
			}
			opts.Order = append(opts.Order, ob)
		}
	}

	var err error
	if opts.Limit, err = parseCount(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}
	if opts.Offset, err = parseCount(q.Get("offset"), "offset"); err != nil {
		return opts, err
	}

	return opts, nil
}

func parseCount(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalidFilter("%s must be a non-negative integer", name)
	}
	return n, nil
}

func parseFilter(col, raw string) (Filter, error) {
	op, value, ok := strings.Cut(raw, ".")
	if !ok {
		return Filter{}, invalidFilter("filter on %s must look like op.value", col)
	}

	f := Filter{Column: col, Op: Operator(op)}
	switch f.Op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		f.Values = []string{value}
	case OpIn:
		if !strings.HasPrefix(value, "(") || !strings.HasSuffix(value, ")") {
			return Filter{}, invalidFilter("in filter on %s must look like in.(a,b)", col)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
		if inner == "" {
			return Filter{}, invalidFilter("in filter on %s is empty", col)
		}
		values, err := splitInList(inner)
		if err != nil {
			return Filter{}, invalidFilter("in filter on %s: %s", col, err)
		}
		f.Values = values
	case OpIs:
		switch value {
		case "null", "true", "false":
			f.Values = []string{value}
		default:
			return Filter{}, invalidFilter("is filter on %s accepts null, true or false", col)
		}
	default:
		return Filter{}, invalidFilter("unsupported operator %q on %s", op, col)
	}
	return f, nil
}

// splitInList splits the body of an in.(...) filter on commas. An item in
// double quotes may contain commas and parentheses, and \" or \\ inside it
// stand for a literal quote or backslash.
func splitInList(inner string) ([]string, error) {
	var (
		values []string
		item   strings.Builder
		quoted bool // current item was written in quotes
		inQ    bool
	)
	flush := func() {
		v := item.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		values = append(values, v)
		item.Reset()
		quoted = false
	}

	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch {
		case inQ && ch == '\\':
			if i+1 == len(inner) {
				return nil, errors.New("dangling escape")
			}
			i++
			item.WriteByte(inner[i])
		case inQ && ch == '"':
			inQ = false
			// only blanks may follow the closing quote
			for i+1 < len(inner) && inner[i+1] == ' ' {
				i++
			}
			if i+1 < len(inner) && inner[i+1] != ',' {
				return nil, errors.New("unexpected text after quoted value")
			}
		case inQ:
			item.WriteByte(ch)
		case ch == '"' && strings.TrimSpace(item.String()) == "":
			item.Reset()
			inQ, quoted = true, true
		case ch == ',':
			flush()
		default:
			item.WriteByte(ch)
		}
	}
	if inQ {
		return nil, errors.New("unterminated quoted value")
	}
	flush()
	return values, nil
}

func parseOrder(part string) (OrderBy, error) {
	col, dir, _ := strings.Cut(part, ".")
	if col == "" {
		return OrderBy{}, invalidFilter("empty order column")
	}
	// PostgREST also allows a trailing .nullsfirst/.nullslast, which is ignored
	dir, _, _ = strings.Cut(dir, ".")
	switch dir {
	case "", "asc":
		return OrderBy{Column: col}, nil
	case "desc":
		return OrderBy{Column: col, Desc: true}, nil
	default:
		return OrderBy{}, invalidFilter("order direction must be asc or desc")
	}
}

// Sqlizer converts the filter into a squirrel predicate on the given column reference
func (f Filter) Sqlizer(column string) squirrel.Sqlizer {
	switch f.Op {
	case OpNeq:
		return squirrel.NotEq{column: f.Values[0]}
	case OpGt:
		return squirrel.Gt{column: f.Values[0]}
	case OpGte:
		return squirrel.GtOrEq{column: f.Values[0]}
	case OpLt:
		return squirrel.Lt{column: f.Values[0]}
	case OpLte:
		return squirrel.LtOrEq{column: f.Values[0]}
	case OpIn:
		return squirrel.Eq{column: f.Values}
	case OpIs:
		switch f.Values[0] {
		case "true":
			return squirrel.Expr(column + " IS TRUE")
		case "false":
			return squirrel.Expr(column + " IS FALSE")
		default:
			return squirrel.Eq{column: nil}
		}
	default:
		return squirrel.Eq{column: f.Values[0]}
	}
}

// apply adds the options to a list query built for t
func (o ListOptions) apply(t *Table, q squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, f := range o.Filters {
		q = q.Where(f.Sqlizer(t.qualified(f.Column)))
	}

	if len(o.Order) > 0 {
		for _, ob := range o.Order {
			dir := "ASC"
			if ob.Desc {
				dir = "DESC"
			}
			q = q.OrderBy(t.qualified(ob.Column) + " " + dir)
		}
	} else if t.defaultOrder != "" {
		q = q.OrderBy(t.defaultOrder)
	}

	if o.Limit > 0 {
		q = q.Limit(uint64(o.Limit))
	}
	if o.Offset > 0 {
		q = q.Offset(uint64(o.Offset))
	}
	return q
}
