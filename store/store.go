// Package store defines the abstract Record Store contract (spec
// §4.1). Any implementation — in-memory, MySQL-backed, or the
// read-only archive — must honor it: every operation individually
// atomic, no cross-operation transactions.
package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"sls/record"
)

// ErrDuplicate is returned by Insert when the record's URI is already
// present.
var ErrDuplicate = errors.New("duplicate uri")

// ErrNotFound is returned by Update when the uri is absent.
var ErrNotFound = errors.New("record not found")

// Store is the keyed collection of records backing one namespace
// (live or archive).
type Store interface {
	// Insert adds rec, keyed by rec.URI. Fails with ErrDuplicate if
	// the URI is already present. Returns the stored copy, stamped
	// with a fresh Seq.
	Insert(ctx context.Context, rec record.Record) (record.Record, error)

	// GetByURI returns the record and true if present.
	GetByURI(ctx context.Context, uri string) (record.Record, bool, error)

	// Update atomically replaces the record at uri. Fails with
	// ErrNotFound if uri is absent. Returns the stored copy, stamped
	// with a fresh Seq.
	Update(ctx context.Context, uri string, rec record.Record) (record.Record, error)

	// Delete atomically removes and returns the record at uri, if
	// any.
	Delete(ctx context.Context, uri string) (record.Record, bool, error)

	// Query returns records matching m, in store-defined but stable
	// order (stable across consecutive identical queries if the
	// store hasn't mutated meanwhile). skip drops the first n
	// matches; limit == 0 means unlimited.
	Query(ctx context.Context, m record.Matcher, skip, limit int) ([]record.Record, error)

	// PruneExpired removes every record whose ExpiresAt+threshold is
	// before now, and returns the count removed.
	PruneExpired(ctx context.Context, now time.Time, threshold time.Duration) (int, error)
}
