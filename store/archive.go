package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"sls/apierr"
	"sls/compressor"
	"sls/filer"
	"sls/record"
)

// Archive is a read-only, compressed-at-rest historical Record Store.
// It is written to only by the Edit Service's delete path and the
// Maintenance Scheduler's expiry sweep (spec §9 supplement); Query and
// GetByURI are its only client-facing operations, and Insert/Update
// return NOT_SUPPORTED so the live/archive split is enforced at the
// storage layer, not just at the HTTP layer.
type Archive struct {
	mu      sync.RWMutex
	codec   compressor.Compresser
	entries map[string][]byte // URI -> compressed JSON record
	order   []string          // insertion order, oldest first

	persist  filer.JsonFiler
	snapshot string // file path; empty disables persistence
}

// snapshotShape is what gets written to disk by Persist.
type snapshotShape struct {
	Entries map[string][]byte `json:"entries"`
	Order   []string          `json:"order"`
}

func NewArchive(codec compressor.Compresser, snapshotPath string) *Archive {
	if codec == nil {
		codec = compressor.NoneCompressor{}
	}
	return &Archive{
		codec:    codec,
		entries:  make(map[string][]byte),
		persist:  filer.NewJsonLoader(),
		snapshot: snapshotPath,
	}
}

// Archive compresses and stores rec, retiring the oldest entry past
// capacity is intentionally not bounded here — retention is the
// Maintenance Scheduler's concern via a separate trim policy.
func (a *Archive) Archive(rec record.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal archived record")
	}
	compressed, err := a.codec.Compress(blob)
	if err != nil {
		return errors.Wrap(err, "compress archived record")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.entries[rec.URI]; !exists {
		a.order = append(a.order, rec.URI)
	}
	a.entries[rec.URI] = compressed
	return nil
}

func (a *Archive) Insert(context.Context, record.Record) (record.Record, error) {
	return record.Record{}, archiveWriteErr()
}

func (a *Archive) Update(context.Context, string, record.Record) (record.Record, error) {
	return record.Record{}, archiveWriteErr()
}

func (a *Archive) Delete(context.Context, string) (record.Record, bool, error) {
	return record.Record{}, false, archiveWriteErr()
}

func (a *Archive) GetByURI(_ context.Context, uri string) (record.Record, bool, error) {
	a.mu.RLock()
	blob, found := a.entries[uri]
	a.mu.RUnlock()
	if !found {
		return record.Record{}, false, nil
	}
	rec, err := a.decode(blob)
	return rec, err == nil, err
}

func (a *Archive) Query(_ context.Context, m record.Matcher, skip, limit int) ([]record.Record, error) {
	a.mu.RLock()
	uris := append([]string(nil), a.order...)
	a.mu.RUnlock()

	var matched []record.Record
	for _, uri := range uris {
		a.mu.RLock()
		blob := a.entries[uri]
		a.mu.RUnlock()

		rec, err := a.decode(blob)
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

// PruneExpired is a no-op: archived records are retained until an
// explicit retention policy trims them, which Archive does not yet
// implement.
func (a *Archive) PruneExpired(context.Context, time.Time, time.Duration) (int, error) {
	return 0, nil
}

func (a *Archive) decode(blob []byte) (record.Record, error) {
	plain, err := a.codec.Decompress(blob)
	if err != nil {
		return record.Record{}, errors.Wrap(err, "decompress archived record")
	}
	var rec record.Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return record.Record{}, errors.Wrap(err, "unmarshal archived record")
	}
	return rec, nil
}

// Persist snapshots the archive to disk via the configured JsonFiler.
func (a *Archive) Persist() error {
	if a.snapshot == "" {
		return nil
	}
	a.mu.RLock()
	shape := snapshotShape{Entries: a.entries, Order: a.order}
	a.mu.RUnlock()
	return a.persist.Save(a.snapshot, shape)
}

// LoadSnapshot restores a previously persisted archive.
func (a *Archive) LoadSnapshot() error {
	if a.snapshot == "" {
		return nil
	}
	var shape snapshotShape
	if err := a.persist.Load(a.snapshot, &shape); err != nil {
		return err
	}
	a.mu.Lock()
	a.entries = shape.Entries
	a.order = shape.Order
	a.mu.Unlock()
	return nil
}

func archiveWriteErr() error {
	return apierr.New(apierr.NotSupported, "archive namespace is read-only")
}

var _ Store = (*Archive)(nil)
