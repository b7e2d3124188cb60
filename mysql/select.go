// Package mysql is the generic SQL builder store.MySQL uses for every
// Record Store query (spec §4.1's persistent Store option):
// SelectFrom/InsertFrom/UpdateFrom/DeleteFrom plus the WhereCond/
// OrderbyCond helpers in cond.go.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	ErrWhereRequired            = errors.New("where clause is required")
	ErrColumnsNotFound          = errors.New("columns registry not found for table")
	ErrExceptNeedsSchema        = errors.New("except() requires registered columns for the table")
	ErrNoColumnsLeftAfterExcept = errors.New("no columns left after except")
	ErrSNotStruct               = errors.New("S must be struct or *struct")
	ErrNoDBTags                 = errors.New("no db tags found in struct")
	ErrDuplicateDBTag           = errors.New("duplicate db tag in struct")
)

// ---- Builder ----

type selectBuilder[S any] struct {
	table   string
	cols    []string
	except  []string
	where   *WhereCond
	orderBy *OrderbyCond
	limit   int
	offset  int
}

// withColumns appends cols to the SELECT list and returns the updated builder.
func (b selectBuilder[S]) withColumns(cols []string) selectBuilder[S] {
	b.cols = append(b.cols, cols...)
	return b
}

// withExcept appends cols to the exclusion list and returns the updated builder.
func (b selectBuilder[S]) withExcept(except []string) selectBuilder[S] {
	b.except = append(b.except, except...)
	return b
}

// withWhere sets the query's WHERE condition and returns the updated builder.
func (b selectBuilder[S]) withWhere(where *WhereCond) selectBuilder[S] {
	b.where = where
	return b
}

// withOrderBy sets the query's ORDER BY condition and returns the updated builder.
func (b selectBuilder[S]) withOrderBy(cond *OrderbyCond) selectBuilder[S] {
	b.orderBy = cond
	return b
}

// withLimit sets the row limit and returns the updated builder.
func (b selectBuilder[S]) withLimit(limit int) selectBuilder[S] {
	b.limit = limit
	return b
}

// withOffset sets the row offset and returns the updated builder.
func (b selectBuilder[S]) withOffset(offset int) selectBuilder[S] {
	b.offset = offset
	return b
}

// buildWithWhere builds a SELECT query including its WHERE clause,
// returning the query string, its bind args, and an error. Returns
// ErrWhereRequired if no WHERE condition was set.
func (b selectBuilder[S]) buildWithWhere() (string, []any, error) {
	if b.where == nil {
		return "", nil, ErrWhereRequired
	}

	sb, err := b.buildHead()
	if err != nil {
		return "", nil, err
	}

	sb.WriteString(" WHERE ")
	sb.WriteString(b.where.GetSQL())

	b.buildTail(sb)
	return sb.String(), b.where.GwtArgs(), nil
}

// buildWithoutWhere builds a SELECT query with no WHERE clause,
// returning the query string and an error.
func (b selectBuilder[S]) buildWithoutWhere() (string, []any, error) {
	sb, err := b.buildHead()
	if err != nil {
		return "", nil, err
	}

	b.buildTail(sb)
	return sb.String(), nil, nil
}

// buildHead builds the SELECT-columns/FROM segment common to every query shape.
func (b selectBuilder[S]) buildHead() (*strings.Builder, error) {
	if !safeIdent(b.table) {
		return nil, fmt.Errorf("unsafe table: %s", b.table)
	}

	selectCols, err := b.pickColumns()
	if err != nil {
		return nil, err
	}

	sb := new(strings.Builder)
	sb.WriteString("SELECT ")
	sb.WriteString(selectCols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	return sb, nil
}

// buildTail appends ORDER BY, LIMIT, and OFFSET to sb when configured on the builder.
func (b selectBuilder[S]) buildTail(sb *strings.Builder) {
	if b.orderBy != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy.GetSQL())
	}
	if b.limit != 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.offset != 0 {
		sb.WriteString(" OFFSET " + strconv.Itoa(b.offset))
	}
}

// pickColumns decides which columns the query selects, from either an
// explicit column list or an exclusion list against the struct's db
// tags. Returns ErrNoColumnsLeftAfterExcept if excluding leaves
// nothing to select.
func (b selectBuilder[S]) pickColumns() (string, error) {
	selectCols := ""
	switch {
	case len(b.cols) > 0:
		selectCols = strings.Join(b.cols, ",")
		return selectCols, nil
	case len(b.except) > 0:
		cols, err := b.columnsOf()
		if err != nil {
			return "", ErrExceptNeedsSchema
		}
		exSet := map[string]struct{}{}
		for _, c := range b.except {
			exSet[c] = struct{}{}
		}
		var picked []string
		for _, c := range cols {
			if _, ng := exSet[c]; !ng {
				picked = append(picked, c)
			}
		}
		if len(picked) == 0 {
			return "", ErrNoColumnsLeftAfterExcept
		}
		selectCols = strings.Join(picked, ",")
		return selectCols, nil
	default:
		selectCols = "*"
		return selectCols, nil
	}
}

// columnsOf extracts column names from S's db struct tags.
func (b selectBuilder[S]) columnsOf() ([]string, error) {
	var zero S
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, ErrSNotStruct
	}

	cols, err := columnsFromDBTags(t)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, ErrNoDBTags
	}

	return cols, nil
}

// columnsFromDBTags extracts column names from fields tagged `db:"..."`,
// rejecting duplicates.
func columnsFromDBTags(t reflect.Type) ([]string, error) {
	var cols []string
	seen := map[string]struct{}{}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		name := tag
		if idx := strings.IndexByte(tag, ','); idx >= 0 {
			name = tag[:idx]
		}
		if name == "" || name == "-" {
			continue
		}
		if _, ok := seen[name]; ok {
			return nil, ErrDuplicateDBTag
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}
	return cols, nil
}

// safeIdent is a minimal table/column identifier check — not a
// substitute for sourcing identifiers from constants rather than
// caller input.
func safeIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '.' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// ----- Select -----

type SelectWithoutWhere[S any] struct{ builder selectBuilder[S] }
type SelectWithWhere[S any] struct{ builder selectBuilder[S] }

// SelectFrom initializes a selectBuilder against table.
func SelectFrom[S any](table string) SelectWithoutWhere[S] {
	return SelectWithoutWhere[S]{builder: selectBuilder[S]{table: table}}
}

// Columns sets the columns the query selects and returns the updated SelectWithWhere.
func (s SelectWithWhere[S]) Columns(cols ...string) SelectWithWhere[S] {
	s.builder = s.builder.withColumns(cols)
	return s
}

// Columns sets the columns the query selects and returns the updated SelectWithoutWhere.
func (s SelectWithoutWhere[S]) Columns(cols ...string) SelectWithoutWhere[S] {
	s.builder = s.builder.withColumns(cols)
	return s
}

// Except excludes the named columns from the selection and returns a new SelectWithWhere.
func (s SelectWithWhere[S]) Except(cols ...string) SelectWithWhere[S] {
	s.builder = s.builder.withExcept(cols)
	return s
}

// Except excludes the named columns from the selection and returns a new SelectWithoutWhere.
func (s SelectWithoutWhere[S]) Except(cols ...string) SelectWithoutWhere[S] {
	s.builder = s.builder.withExcept(cols)
	return s
}

// Where applies cond to the query and returns a new SelectWithWhere carrying the updated builder.
func (s SelectWithoutWhere[S]) Where(cond *WhereCond) SelectWithWhere[S] {
	s.builder = s.builder.withWhere(cond)
	return SelectWithWhere[S]{builder: s.builder}
}

// OrderBy sets the query's ordering and returns the updated SelectWithWhere.
func (s SelectWithWhere[S]) OrderBy(cond *OrderbyCond) SelectWithWhere[S] {
	s.builder = s.builder.withOrderBy(cond)
	return s
}

// OrderBy sets the query's ordering and returns the updated SelectWithoutWhere.
func (s SelectWithoutWhere[S]) OrderBy(cond *OrderbyCond) SelectWithoutWhere[S] {
	s.builder = s.builder.withOrderBy(cond)
	return s
}

// Limit sets the maximum number of rows returned and updates SelectWithWhere.
func (s SelectWithWhere[S]) Limit(limit int) SelectWithWhere[S] {
	s.builder = s.builder.withLimit(limit)
	return s
}

// Limit sets the maximum number of rows returned and updates SelectWithoutWhere.
func (s SelectWithoutWhere[S]) Limit(limit int) SelectWithoutWhere[S] {
	s.builder = s.builder.withLimit(limit)
	return s
}

// Offset sets the number of rows to skip and returns the updated SelectWithWhere.
func (s SelectWithWhere[S]) Offset(offset int) SelectWithWhere[S] {
	s.builder = s.builder.withOffset(offset)
	return s
}

// Offset sets the number of rows to skip and returns the updated SelectWithoutWhere.
func (s SelectWithoutWhere[S]) Offset(offset int) SelectWithoutWhere[S] {
	s.builder = s.builder.withOffset(offset)
	return s
}

// FetchAll executes the built SELECT query and returns every matching row.
func (s SelectWithWhere[S]) FetchAll(ctx context.Context, db *sqlx.DB) ([]S, error) {
	q, args, err := s.builder.buildWithWhere()
	if err != nil {
		return nil, err
	}
	q = db.Rebind(q)

	var dest []S
	if err := db.SelectContext(ctx, &dest, q, args...); err != nil {
		return nil, err
	}
	return dest, nil
}

// FetchAll executes the built SELECT query and returns every row.
func (s SelectWithoutWhere[S]) FetchAll(ctx context.Context, db *sqlx.DB) ([]S, error) {
	q, args, err := s.builder.buildWithoutWhere()
	if err != nil {
		return nil, err
	}
	q = db.Rebind(q)

	var dest []S
	if err := db.SelectContext(ctx, &dest, q, args...); err != nil {
		return nil, err
	}
	return dest, nil
}

// Fetch executes the built SELECT query and returns a single row.
func (s SelectWithWhere[S]) Fetch(ctx context.Context, db *sqlx.DB) (S, error) {
	q, args, err := s.builder.buildWithWhere()
	if err != nil {
		var zero S
		return zero, err
	}
	q = db.Rebind(q)

	var dest S
	if err := db.GetContext(ctx, &dest, q, args...); err != nil {
		return dest, err
	}
	return dest, nil
}

// Fetch executes the built SELECT query and returns a single row.
func (s SelectWithoutWhere[S]) Fetch(ctx context.Context, db *sqlx.DB) (S, error) {
	q, args, err := s.builder.buildWithoutWhere()
	if err != nil {
		var zero S
		return zero, err
	}
	q = db.Rebind(q)

	var dest S
	if err := db.GetContext(ctx, &dest, q, args...); err != nil {
		return dest, err
	}
	return dest, nil
}
