package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"sls/mysql"
	"sls/record"
)

// recordsTable is the persistent Record Store's backing table. Column
// order here must match the positional VALUES list built in Insert.
const recordsTable = "sls_records"

// recordRow is the sql row shape for recordsTable; attrsJSON carries
// the full payload (including list-valued attributes) as JSON so the
// schema does not need one column per possible key.
type recordRow struct {
	URI         string `db:"uri"`
	Type        string `db:"type"`
	State       string `db:"state"`
	TTLNanos    int64  `db:"ttl_ns"`
	ExpiresAt   time.Time `db:"expires_at"`
	Seq         uint64 `db:"seq"`
	AccessToken string `db:"access_token"`
	ClientUUID  string `db:"client_uuid"`
	AttrsJSON   string `db:"attrs_json"`
}

func (row recordRow) toRecord() (record.Record, error) {
	var attrs map[string]record.Value
	if row.AttrsJSON != "" {
		if err := json.Unmarshal([]byte(row.AttrsJSON), &attrs); err != nil {
			return record.Record{}, errors.Wrap(err, "decode attrs_json")
		}
	}
	state, _ := record.ParseState(row.State)
	return record.Record{
		URI:         row.URI,
		Type:        row.Type,
		TTL:         time.Duration(row.TTLNanos),
		ExpiresAt:   row.ExpiresAt,
		State:       state,
		AccessToken: row.AccessToken,
		ClientUUID:  row.ClientUUID,
		Attrs:       attrs,
		Seq:         row.Seq,
	}, nil
}

func rowFrom(rec record.Record) (recordRow, error) {
	attrsJSON := ""
	if len(rec.Attrs) > 0 {
		b, err := json.Marshal(rec.Attrs)
		if err != nil {
			return recordRow{}, errors.Wrap(err, "encode attrs_json")
		}
		attrsJSON = string(b)
	}
	return recordRow{
		URI:         rec.URI,
		Type:        rec.Type,
		State:       rec.State.String(),
		TTLNanos:    int64(rec.TTL),
		ExpiresAt:   rec.ExpiresAt,
		Seq:         rec.Seq,
		AccessToken: rec.AccessToken,
		ClientUUID:  rec.ClientUUID,
		AttrsJSON:   attrsJSON,
	}, nil
}

// MySQL is a persistent Record Store backed by the mysql query
// builders over sqlx. Unlike Memory it does not stamp a fresh Seq:
// Insert and Update store and return rec with the Seq the caller set.
// Update is an atomic UPDATE ... WHERE uri = ? AND seq < ? (bound to
// rec.Seq+1), so it applies only while the stored seq is not greater
// than rec.Seq, and reports ErrNotFound when no row matched.
type MySQL struct {
	db *sqlx.DB
}

// NewMySQLClient dials using the go-sql-driver/mysql DSN builder,
// configured from cfg rather than hardcoded connection parameters.
func NewMySQLClient(cfg gomysql.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "open mysql connection")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, nil
}

func NewMySQL(db *sqlx.DB) *MySQL {
	return &MySQL{db: db}
}

func (s *MySQL) Insert(ctx context.Context, rec record.Record) (record.Record, error) {
	row, err := rowFrom(rec)
	if err != nil {
		return record.Record{}, err
	}

	_, err = mysql.InsertFrom(recordsTable).Values(&mysql.InsertCond{
		Arg: []any{row.URI, row.Type, row.State, row.TTLNanos, row.ExpiresAt, row.Seq, row.AccessToken, row.ClientUUID, row.AttrsJSON},
	}).Exec(ctx, s.db)
	if err != nil {
		if isDuplicateKeyErr(err) {
			return record.Record{}, ErrDuplicate
		}
		return record.Record{}, errors.Wrap(err, "insert record")
	}
	return rec, nil
}

func (s *MySQL) GetByURI(ctx context.Context, uri string) (record.Record, bool, error) {
	rows, err := mysql.SelectFrom[recordRow](recordsTable).
		Where(mysql.Eq("uri", uri)).
		Limit(1).
		FetchAll(ctx, s.db)
	if err != nil {
		return record.Record{}, false, errors.Wrap(err, "select record by uri")
	}
	if len(rows) == 0 {
		return record.Record{}, false, nil
	}
	rec, err := rows[0].toRecord()
	return rec, err == nil, err
}

func (s *MySQL) Update(ctx context.Context, uri string, rec record.Record) (record.Record, error) {
	row, err := rowFrom(rec)
	if err != nil {
		return record.Record{}, err
	}

	affected, err := mysql.UpdateFrom(recordsTable).Set(
		mysql.UpdateCond{Set: "type", Arg: row.Type},
		mysql.UpdateCond{Set: "state", Arg: row.State},
		mysql.UpdateCond{Set: "ttl_ns", Arg: row.TTLNanos},
		mysql.UpdateCond{Set: "expires_at", Arg: row.ExpiresAt},
		mysql.UpdateCond{Set: "seq", Arg: row.Seq},
		mysql.UpdateCond{Set: "access_token", Arg: row.AccessToken},
		mysql.UpdateCond{Set: "client_uuid", Arg: row.ClientUUID},
		mysql.UpdateCond{Set: "attrs_json", Arg: row.AttrsJSON},
	).Where(mysql.And(mysql.Eq("uri", uri), mysql.Before("seq", row.Seq+1))).Exec(ctx, s.db)
	if err != nil {
		return record.Record{}, errors.Wrap(err, "update record")
	}
	if affected == 0 {
		return record.Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MySQL) Delete(ctx context.Context, uri string) (record.Record, bool, error) {
	existing, found, err := s.GetByURI(ctx, uri)
	if err != nil || !found {
		return record.Record{}, found, err
	}

	affected, err := mysql.DeleteFrom(recordsTable).Where(mysql.Eq("uri", uri)).Exec(ctx, s.db)
	if err != nil {
		return record.Record{}, false, errors.Wrap(err, "delete record")
	}
	return existing, affected > 0, nil
}

// Query loads every non-expired-state row, applying the Matcher and
// skip/limit in Go. The mysql builder only expresses simple column
// equality, so it can narrow to a baseline column (state) but cannot
// express an arbitrary record.Matcher closure as SQL; see DESIGN.md.
func (s *MySQL) Query(ctx context.Context, m record.Matcher, skip, limit int) ([]record.Record, error) {
	rows, err := mysql.SelectFrom[recordRow](recordsTable).
		Where(mysql.NotEq("state", record.Expired.String())).
		FetchAll(ctx, s.db)
	if err != nil {
		return nil, errors.Wrap(err, "select records")
	}

	var matched []record.Record
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		if m == nil || m.Match(rec) {
			matched = append(matched, rec)
		}
	}

	if skip > len(matched) {
		return nil, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MySQL) PruneExpired(ctx context.Context, now time.Time, threshold time.Duration) (int, error) {
	cutoff := now.Add(-threshold)
	affected, err := mysql.DeleteFrom(recordsTable).Where(mysql.Before("expires_at", cutoff)).Exec(ctx, s.db)
	if err != nil {
		return 0, errors.Wrap(err, "prune expired records")
	}
	return int(affected), nil
}

func isDuplicateKeyErr(err error) bool {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}

var _ Store = (*MySQL)(nil)
