// Package data is the data access layer. Every mutation runs the same
// sequence: access key, validation, one store write, then invalidation of
// the list views the write made stale. Reads are never gated.
package data

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/store"
)

// Gate checks the shared access key.
type Gate interface {
	Check(key string) error
}

// Cache holds list results between invalidations.
type Cache interface {
	Lookup(ctx context.Context, view domain.View, filter any, dst any) (store.CacheTicket, bool)
	Fill(ctx context.Context, t store.CacheTicket, v any)
	Invalidate(ctx context.Context, views ...domain.View) error
}

// Notifier broadcasts change hints to live subscribers.
type Notifier interface {
	Notify(ctx context.Context, op domain.ChangeOp, id string, views ...domain.View)
}

// Recorder receives data layer telemetry.
type Recorder interface {
	Mutation(entity, op string, err error)
	ObserveStore(op string, start time.Time)
	CacheLookup(view domain.View, hit bool)
}

type Options struct {
	Tenant    string
	Store     store.Store
	Gate      Gate
	Validator *domain.Validator

	// Optional collaborators.
	Cache    Cache
	Notifier Notifier
	Metrics  Recorder
	Log      logger.Logger

	// Overridable for tests.
	Now   func() time.Time
	NewID func() string
}

type Service struct {
	tenant   string
	store    store.Store
	gate     Gate
	validate *domain.Validator
	cache    Cache
	notifier Notifier
	metrics  Recorder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

func New(opts Options) *Service {
	s := &Service{
		tenant:   opts.Tenant,
		store:    opts.Store,
		gate:     opts.Gate,
		validate: opts.Validator,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		log:      opts.Log,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.validate == nil {
		s.validate = domain.NewValidator(domain.DefaultLimits)
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Limits exposes the active validation bounds.
func (s *Service) Limits() domain.Limits { return s.validate.Limits() }

// Ping reports whether the store answers.
func (s *Service) Ping(ctx context.Context) error {
	defer s.metrics.ObserveStore("ping", time.Now())
	return s.store.Ping(ctx)
}

// ─────────────────────────────────────────────────────────────────
// Mutation plumbing
// ─────────────────────────────────────────────────────────────────

// mutate checks the key, then runs fn and counts the outcome. fn is never
// called when the key is rejected.
func (s *Service) mutate(entity, op, key string, fn func() error) error {
	if err := s.gate.Check(key); err != nil {
		s.metrics.Mutation(entity, op, err)
		return err
	}
	err := fn()
	s.metrics.Mutation(entity, op, err)
	return err
}

// timed runs one store call under the latency histogram.
func (s *Service) timed(op string, fn func() error) error {
	defer s.metrics.ObserveStore(op, time.Now())
	return fn()
}

// invalidate marks views stale and tells subscribers. A cache failure is
// logged only: the write already happened and list entries expire anyway.
func (s *Service) invalidate(ctx context.Context, op domain.ChangeOp, id string, views []domain.View) {
	if err := s.cache.Invalidate(ctx, views...); err != nil {
		s.log.Warn("list cache invalidation failed", logger.Error(err))
	}
	s.notifier.Notify(ctx, op, id, views...)
}

// cachedList serves a list view through the cache, loading on a miss.
func cachedList[T any](ctx context.Context, s *Service, view domain.View, filter any, load func() ([]T, error)) ([]T, error) {
	var cached []T
	ticket, hit := s.cache.Lookup(ctx, view, filter, &cached)
	s.metrics.CacheLookup(view, hit)
	if hit {
		return cached, nil
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	s.cache.Fill(ctx, ticket, items)
	return items, nil
}

type nopCache struct{}

func (nopCache) Lookup(context.Context, domain.View, any, any) (store.CacheTicket, bool) {
	return "", false
}
func (nopCache) Fill(context.Context, store.CacheTicket, any)     {}
func (nopCache) Invalidate(context.Context, ...domain.View) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.ChangeOp, string, ...domain.View) {}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, string, error) {}
func (nopRecorder) ObserveStore(string, time.Time) {}
func (nopRecorder) CacheLookup(domain.View, bool)  {}
