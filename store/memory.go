package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"sls/record"
)

// entry wraps a record with its own mutex so reads/writes of one URI
// don't serialize against unrelated URIs (spec §5: "the store does
// not guarantee cross-operation transactions" but per-URI ops must be
// linearizable).
type entry struct {
	mu  sync.Mutex
	rec record.Record
}

// Memory is the default, process-local Record Store: an indexed map
// guarded by a coarse lock for structural changes (insert/delete) plus
// a per-entry lock for in-place mutation (update), and a secondary
// index by Type used as the Query Engine's index hint.
type Memory struct {
	mu      sync.RWMutex
	byURI   map[string]*entry
	byType  map[string]map[string]struct{} // type -> set of uri
	seq     uint64
	inserts []string // insertion order, for stable query ordering
}

func NewMemory() *Memory {
	return &Memory{
		byURI:  make(map[string]*entry),
		byType: make(map[string]map[string]struct{}),
	}
}

func (s *Memory) nextSeq() uint64 {
	return atomic.AddUint64(&s.seq, 1)
}

func (s *Memory) Insert(_ context.Context, rec record.Record) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURI[rec.URI]; exists {
		return record.Record{}, ErrDuplicate
	}
	rec = rec.Clone()
	rec.Seq = s.nextSeq()
	s.byURI[rec.URI] = &entry{rec: rec}
	s.indexType(rec.Type, rec.URI)
	s.inserts = append(s.inserts, rec.URI)
	return rec.Clone(), nil
}

func (s *Memory) GetByURI(_ context.Context, uri string) (record.Record, bool, error) {
	s.mu.RLock()
	e, ok := s.byURI[uri]
	s.mu.RUnlock()
	if !ok {
		return record.Record{}, false, nil
	}
	e.mu.Lock()
	rec := e.rec.Clone()
	e.mu.Unlock()
	return rec, true, nil
}

func (s *Memory) Update(_ context.Context, uri string, rec record.Record) (record.Record, error) {
	s.mu.RLock()
	e, ok := s.byURI[uri]
	s.mu.RUnlock()
	if !ok {
		return record.Record{}, ErrNotFound
	}

	e.mu.Lock()
	oldType := e.rec.Type
	rec = rec.Clone()
	rec.URI = uri
	rec.Seq = s.nextSeq()
	e.rec = rec
	out := rec.Clone()
	e.mu.Unlock()

	if oldType != rec.Type {
		s.mu.Lock()
		s.deindexType(oldType, uri)
		s.indexType(rec.Type, uri)
		s.mu.Unlock()
	}
	return out, nil
}

func (s *Memory) Delete(_ context.Context, uri string) (record.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byURI[uri]
	if !ok {
		return record.Record{}, false, nil
	}
	e.mu.Lock()
	rec := e.rec.Clone()
	e.mu.Unlock()

	delete(s.byURI, uri)
	s.deindexType(rec.Type, uri)
	return rec, true, nil
}

func (s *Memory) Query(_ context.Context, m record.Matcher, skip, limit int) ([]record.Record, error) {
	if m == nil {
		m = record.MatchAll
	}

	s.mu.RLock()
	order := append([]string(nil), s.inserts...)
	entries := make(map[string]*entry, len(s.byURI))
	for uri, e := range s.byURI {
		entries[uri] = e
	}
	s.mu.RUnlock()

	matches := make([]record.Record, 0, len(entries))
	for _, uri := range order {
		e, ok := entries[uri]
		if !ok {
			continue
		}
		e.mu.Lock()
		rec := e.rec.Clone()
		e.mu.Unlock()
		if m.Match(rec) {
			matches = append(matches, rec)
		}
	}

	if skip > 0 {
		if skip >= len(matches) {
			return []record.Record{}, nil
		}
		matches = matches[skip:]
	}
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Memory) PruneExpired(_ context.Context, now time.Time, threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for uri, e := range s.byURI {
		e.mu.Lock()
		cutoff := e.rec.ExpiresAt.Add(threshold)
		isExpired := cutoff.Before(now)
		typ := e.rec.Type
		e.mu.Unlock()
		if isExpired {
			expired = append(expired, uri)
			s.deindexType(typ, uri)
		}
	}
	sort.Strings(expired)
	for _, uri := range expired {
		delete(s.byURI, uri)
	}
	return len(expired), nil
}

func (s *Memory) indexType(typ, uri string) {
	if typ == "" {
		return
	}
	set, ok := s.byType[typ]
	if !ok {
		set = make(map[string]struct{})
		s.byType[typ] = set
	}
	set[uri] = struct{}{}
}

func (s *Memory) deindexType(typ, uri string) {
	if typ == "" {
		return
	}
	if set, ok := s.byType[typ]; ok {
		delete(set, uri)
		if len(set) == 0 {
			delete(s.byType, typ)
		}
	}
}

// URIsOfType exposes the secondary index as a hint for callers (e.g.
// the Query Engine) that want to narrow a scan before full matching.
func (s *Memory) URIsOfType(typ string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byType[typ]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for uri := range set {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

var _ Store = (*Memory)(nil)
