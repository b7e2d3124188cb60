package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DeleteBuilder builds a single DELETE statement, consumed by
// store.MySQL.Delete and store.MySQL.PruneExpired to remove rows by a
// WHERE predicate.
type DeleteBuilder[W WhereState] struct {
	table string
	where *WhereCond
}

// DeleteFrom initializes a DeleteBuilder against table.
func DeleteFrom(table string) DeleteBuilder[WithoutWhere] {
	return DeleteBuilder[WithoutWhere]{table: table}
}

// Where attaches the WHERE condition and moves the builder into the
// state that allows Exec.
func (b DeleteBuilder[WithoutWhere]) Where(c *WhereCond) DeleteBuilder[WithWhere] {
	b.where = c
	return DeleteBuilder[WithWhere](b)
}

// Exec executes the built DELETE statement and returns the number of rows affected.
func (b DeleteBuilder[WithWhere]) Exec(ctx context.Context, db *sqlx.DB) (int64, error) {
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

// build constructs the DELETE query string and its bind args.
func (b DeleteBuilder[W]) build() (string, []any, error) {
	if b.where == nil {
		return "", nil, ErrWhereRequired
	}
	if !safeIdent(b.table) {
		return "", nil, fmt.Errorf("unsafe table: %s", b.table)
	}

	sb := strings.Builder{}
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.table)
	sb.WriteString(" WHERE ")
	sb.WriteString(b.where.GetSQL())

	return sb.String(), b.where.args, nil
}
