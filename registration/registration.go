// Package registration implements the sLS Registration Service (spec
// §4.4): validate, assign identity, admit a lease, persist, fan out.
package registration

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"sls/apierr"
	"sls/auth"
	"sls/lease"
	"sls/record"
	"sls/store"
	"sls/uri"
)

// Notifier is the Subscription Manager's fan-out hook, kept as a
// narrow interface here to avoid an import cycle.
type Notifier interface {
	Notify(ctx context.Context, rec record.Record)
}

// noopNotifier is used when no Subscription Manager is wired (e.g.
// in focused unit tests of this package alone).
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, record.Record) {}

// Proposed is the caller-supplied record payload before identity and
// lease bookkeeping are attached.
type Proposed struct {
	Type        string
	TTL         string // ISO-8601 duration string, or "" for the configured default
	AccessToken string
	Attrs       map[string]record.Value
}

// Service is the Registration Service.
type Service struct {
	store    store.Store
	leases   *lease.Manager
	auth     auth.Authorizer
	uris     *uri.Generator
	notify   Notifier
	log      *logrus.Entry
}

func New(st store.Store, leases *lease.Manager, authorizer auth.Authorizer, gen *uri.Generator, notify Notifier, log *logrus.Entry) *Service {
	if notify == nil {
		notify = noopNotifier{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: st, leases: leases, auth: authorizer, uris: gen, notify: notify, log: log}
}

// Register validates p, admits it under the Lease Manager, persists
// it, and fans it out to subscriptions. Step numbering follows spec
// §4.4.
func (s *Service) Register(ctx context.Context, p Proposed) (record.Record, error) {
	// 1. Parse and validate payload.
	if p.Type == "" {
		return record.Record{}, apierr.New(apierr.BadRequest, "type is required")
	}
	if len(p.Attrs) == 0 {
		return record.Record{}, apierr.New(apierr.BadRequest, "at least one identifying payload key is required")
	}

	ttl, err := resolveTTL(p.TTL)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.BadRequest, err, "record-ttl")
	}

	sealedToken, err := s.auth.Seal(p.AccessToken)
	if err != nil {
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "seal access token")
	}

	base := record.Record{
		Type:        p.Type,
		TTL:         ttl,
		State:       record.Register,
		AccessToken: sealedToken,
		Attrs:       p.Attrs,
	}

	// 2-4. Assign URI, admit lease, write to Store; retry once with a
	// fresh URI on DUPLICATE.
	stored, err := s.admitAndInsert(ctx, base)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			stored, err = s.admitAndInsert(ctx, base)
			if err != nil {
				return record.Record{}, apierr.Wrap(apierr.InternalError, err, "register after retry")
			}
		} else {
			return record.Record{}, err
		}
	}

	// 5. Fan out.
	s.notify.Notify(ctx, stored)

	s.log.WithFields(logrus.Fields{"uri": stored.URI, "type": stored.Type}).Debug("record registered")
	return stored, nil
}

func (s *Service) admitAndInsert(ctx context.Context, base record.Record) (record.Record, error) {
	assigned := s.uris.Next()
	base.URI = assigned

	expiresAt, granted := s.leases.RequestLease(assigned, base.TTL)
	if !granted {
		return record.Record{}, apierr.New(apierr.ServiceUnavailable, "lease capacity exhausted")
	}
	base.ExpiresAt = expiresAt

	stored, err := s.store.Insert(ctx, base)
	if err != nil {
		s.leases.ReleaseLease(assigned)
		if errors.Is(err, store.ErrDuplicate) {
			return record.Record{}, store.ErrDuplicate
		}
		return record.Record{}, apierr.Wrap(apierr.InternalError, err, "insert record")
	}
	return stored, nil
}

func resolveTTL(ttl string) (time.Duration, error) {
	if ttl == "" {
		return 0, nil // Lease Manager applies its configured default
	}
	return record.ParseTTL(ttl)
}
