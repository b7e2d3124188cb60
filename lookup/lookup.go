// Package lookup implements the sLS Query Service (spec §4.6),
// routing queries against either the live Record Store or a read-only
// archive, through the shared query engine.
package lookup

import (
	"context"

	"sls/apierr"
	"sls/query"
	"sls/record"
	"sls/store"
)

// Namespace selects which backing store a query is run against.
type Namespace string

const (
	NamespaceLive    Namespace = "live"
	NamespaceArchive Namespace = "archive"
)

// Service is the Query Service.
type Service struct {
	live    store.Store
	archive store.Store // nil if no archive is configured
}

func New(live, archive store.Store) *Service {
	return &Service{live: live, archive: archive}
}

// Find runs q against ns, returning the matched page.
func (s *Service) Find(ctx context.Context, ns Namespace, q *query.Query) ([]record.Record, error) {
	backend, err := s.backend(ns)
	if err != nil {
		return nil, err
	}

	matcher := query.Compile(q)
	skip, limit := 0, 0
	if q != nil {
		skip, limit = q.Skip, q.MaxResults
	}

	results, err := backend.Query(ctx, matcher, skip, limit)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalError, err, "query store")
	}
	return results, nil
}

// Get fetches a single record by URI from ns.
func (s *Service) Get(ctx context.Context, ns Namespace, uri string) (record.Record, error) {
	backend, err := s.backend(ns)
	if err != nil {
		return record.Record{}, err
	}

	rec, found, err := backend.GetByURI(ctx, uri)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "get record")
	}
	if !found {
		return record.Record{}, apierr.New(apierr.NotFound, "no such record: "+uri)
	}
	return rec, nil
}

func (s *Service) backend(ns Namespace) (store.Store, error) {
	switch ns {
	case NamespaceLive, "":
		return s.live, nil
	case NamespaceArchive:
		if s.archive == nil {
			return nil, apierr.New(apierr.NotSupported, "no archive namespace configured")
		}
		return s.archive, nil
	default:
		return nil, apierr.New(apierr.BadRequest, "unknown namespace: "+string(ns))
	}
}
