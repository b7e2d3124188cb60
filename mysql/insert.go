package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var ErrValuesRequired = errors.New("insert requires values")

// InsertBuilder builds a single-row INSERT statement, consumed by
// store.MySQL.Insert when registering a new Record.
type InsertBuilder struct {
	table  string
	values *InsertCond
}

// InsertFrom initializes an InsertBuilder against table.
func InsertFrom(table string) InsertBuilder {
	return InsertBuilder{table: table}
}

// Values attaches the row's values and returns the updated InsertBuilder.
func (b InsertBuilder) Values(conds *InsertCond) InsertBuilder {
	b.values = conds
	return b
}

// Exec executes the built INSERT statement and returns the inserted row's last insert ID.
func (b InsertBuilder) Exec(ctx context.Context, db *sqlx.DB) (int64, error) {
	q, args, err := b.build()
	if err != nil {
		return 0, err
	}
	q = db.Rebind(q)

	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// build constructs the INSERT query string and its bind args.
func (b InsertBuilder) build() (string, []any, error) {
	if b.values == nil {
		return "", nil, ErrValuesRequired
	}
	if !safeIdent(b.table) {
		return "", nil, fmt.Errorf("unsafe table: %s", b.table)
	}

	valStrs := make([]string, 0, len(b.values.Arg))
	for range b.values.Arg {
		valStrs = append(valStrs, "?")
	}

	sb := strings.Builder{}
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table)
	sb.WriteString(" VALUES ")
	sb.WriteString("(" + strings.Join(valStrs, ", ") + ")")

	return sb.String(), b.values.Arg, nil
}
