package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrSetRequired = errors.New("update requires set")

// UpdateBuilder builds a single UPDATE statement, consumed by
// store.MySQL.Update when a Record's lease is renewed or its State
// transitions (for instance to Expired once a lease lapses).
type UpdateBuilder[W WhereState] struct {
	table string
	sets  []UpdateCond
	where *WhereCond
}

// UpdateFrom initializes an UpdateBuilder against table.
func UpdateFrom(table string) UpdateBuilder[WithoutWhere] {
	return UpdateBuilder[WithoutWhere]{table: table}
}

// Set appends one or more UpdateCond assignments and returns the updated UpdateBuilder.
func (b UpdateBuilder[W]) Set(conds ...UpdateCond) UpdateBuilder[W] {
	b.sets = append(b.sets, conds...)
	return b
}

// Where attaches the WHERE condition and moves the builder into the
// state that allows Exec.
func (b UpdateBuilder[WithoutWhere]) Where(c *WhereCond) UpdateBuilder[WithWhere] {
	b.where = c
	return UpdateBuilder[WithWhere](b)
}

// Exec executes the built UPDATE statement and returns the number of rows affected.
func (b UpdateBuilder[WithWhere]) Exec(ctx context.Context, db *sqlx.DB) (int64, error) {
	q, args, err := b.build()
	if err != nil {
		return 0, err
	}
	q = db.Rebind(q)

	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// build constructs the UPDATE query string and its bind args, returning
// an error if the builder is missing its SET assignments, WHERE
// condition, or has an unsafe table name.
func (b UpdateBuilder[W]) build() (string, []any, error) {
	if len(b.sets) == 0 {
		return "", nil, ErrSetRequired
	}
	if b.where == nil {
		return "", nil, ErrWhereRequired
	}
	if !safeIdent(b.table) {
		return "", nil, fmt.Errorf("unsafe table: %s", b.table)
	}

	setStrs := make([]string, 0, len(b.sets))
	setArgs := make([]any, 0, len(b.sets))
	for _, s := range b.sets {
		setStrs = append(setStrs, fmt.Sprintf("%s = ?", s.Set))
		setArgs = append(setArgs, s.Arg)
	}

	sb := strings.Builder{}
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(setStrs, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(b.where.GetSQL())

	return sb.String(), append(setArgs, b.where.args...), nil
}
