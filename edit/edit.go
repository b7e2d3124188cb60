// Package edit implements the sLS Edit Service (spec §4.5): renew and
// delete transitions against an existing record, including access
// token enforcement and lease re-admission.
package edit

import (
	"context"

	"github.com/sirupsen/logrus"

	"sls/apierr"
	"sls/auth"
	"sls/lease"
	"sls/record"
	"sls/registration"
	"sls/store"
)

// Delta is the caller-supplied edit payload.
type Delta struct {
	TTL         string // new ISO-8601 TTL; "" renews with the record's current TTL, counted from now
	AccessToken string // supplied by the caller for authorization
	Attrs       map[string]record.Value
}

// Archiver receives records retired from the live Store so they
// remain queryable in the archive namespace. Implemented by
// store.Archive.
type Archiver interface {
	Archive(rec record.Record) error
}

// Service is the Edit Service.
type Service struct {
	store   store.Store
	leases  *lease.Manager
	auth    auth.Authorizer
	notify  registration.Notifier
	archive Archiver
	log     *logrus.Entry
}

func New(st store.Store, leases *lease.Manager, authorizer auth.Authorizer, notify registration.Notifier, archive Archiver, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: st, leases: leases, auth: authorizer, notify: notify, archive: archive, log: log}
}

// Renew re-admits uri under the Lease Manager and advances its State
// to RENEW, optionally replacing TTL and attributes.
func (s *Service) Renew(ctx context.Context, uri string, d Delta) (record.Record, error) {
	existing, found, err := s.store.GetByURI(ctx, uri)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "lookup record for renew")
	}
	if !found {
		return record.Record{}, apierr.New(apierr.NotFound, "no such record: "+uri)
	}

	if err := s.auth.Authorize(existing.AccessToken, d.AccessToken); err != nil {
		return record.Record{}, err
	}

	ttl := existing.TTL
	if d.TTL != "" {
		parsed, err := record.ParseTTL(d.TTL)
		if err != nil {
			return record.Record{}, apierr.Wrap(apierr.BadRequest, err, "record-ttl")
		}
		ttl = parsed
	}

	expiresAt, granted := s.leases.RequestLease(uri, ttl)
	if !granted {
		return record.Record{}, apierr.New(apierr.Forbidden, "failed to secure lease")
	}

	next := existing.Clone()
	next.TTL = ttl
	next.ExpiresAt = expiresAt
	next.State = record.Renew
	mergeAttrs(&next, d.Attrs)

	stored, err := s.store.Update(ctx, uri, next)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "update record")
	}

	if s.notify != nil {
		s.notify.Notify(ctx, stored)
	}
	s.log.WithField("uri", uri).Debug("record renewed")
	return stored, nil
}

// Delete authorizes and retires uri, marking it DELETE and releasing
// its lease so the slot is immediately reusable.
func (s *Service) Delete(ctx context.Context, uri string, d Delta) (record.Record, error) {
	existing, found, err := s.store.GetByURI(ctx, uri)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "lookup record for delete")
	}
	if !found {
		return record.Record{}, apierr.New(apierr.NotFound, "no such record: "+uri)
	}

	if err := s.auth.Authorize(existing.AccessToken, d.AccessToken); err != nil {
		return record.Record{}, err
	}

	deleted, found, err := s.store.Delete(ctx, uri)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "delete record")
	}
	if !found {
		return record.Record{}, apierr.New(apierr.NotFound, "no such record: "+uri)
	}
	s.leases.ReleaseLease(uri)

	deleted.State = record.Delete
	if s.archive != nil {
		if err := s.archive.Archive(deleted); err != nil {
			s.log.WithError(err).WithField("uri", uri).Warn("failed to archive deleted record")
		}
	}
	if s.notify != nil {
		s.notify.Notify(ctx, deleted)
	}
	s.log.WithField("uri", uri).Debug("record deleted")
	return deleted, nil
}

func mergeAttrs(rec *record.Record, delta map[string]record.Value) {
	if len(delta) == 0 {
		return
	}
	if rec.Attrs == nil {
		rec.Attrs = make(map[string]record.Value, len(delta))
	}
	for k, v := range delta {
		rec.Attrs[k] = v
	}
}
