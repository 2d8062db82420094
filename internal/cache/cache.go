// Package cache is the normalized client-side store of shipments: one entry per
// id holding the latest server-confirmed representation. Entries are only ever
// replaced wholesale from server replies, so a reader sees either the value from
// before a mutation or the one after it, never a mix.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/erazemk/biotrack/internal/metrics"
	"github.com/erazemk/biotrack/internal/model"
)

// Persister keeps a durable copy of the cache. Writes happen while the cache
// holds its write lock, so the copy sees mutations in cache order.
type Persister interface {
	SaveShipments(ctx context.Context, shipments []model.Shipment) error
	DeleteShipment(ctx context.Context, id string) error
	LoadShipments(ctx context.Context) ([]model.Shipment, error)
}

// Failure is the transient record of the last failed request. It stays until
// acknowledged with ClearFailure.
type Failure struct {
	Action string
	Err    error
}

// Cache holds shipments by id. It is safe for concurrent use; all writes are
// serialized by one lock.
type Cache struct {
	mu            sync.RWMutex
	entities      map[string]*model.Shipment
	lastAddedID   string
	lastRemovedID string
	failure       *Failure

	subs    map[int]*subscriber
	nextSub int

	persister Persister
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithPersister writes every change through to p.
func WithPersister(p Persister) Option {
	return func(c *Cache) { c.persister = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMetrics records cache size and events.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entities: make(map[string]*model.Shipment),
		subs:     make(map[int]*subscriber),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads the persisted copy, replacing nothing already cached.
func (c *Cache) Restore(ctx context.Context) (int, error) {
	if c.persister == nil {
		return 0, nil
	}
	shipments, err := c.persister.LoadShipments(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	restored := 0
	for i := range shipments {
		s := shipments[i]
		if _, ok := c.entities[s.ID]; ok || s.ID == "" {
			continue
		}
		c.entities[s.ID] = s.Clone()
		restored++
	}
	c.metrics.CacheSize(len(c.entities))
	return restored, nil
}

// Get returns a copy of the cached shipment.
func (c *Cache) Get(id string) (*model.Shipment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entities[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// All returns copies of every cached shipment, ordered by id.
func (c *Cache) All() []*model.Shipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := make([]*model.Shipment, 0, len(c.entities))
	for _, s := range c.entities {
		all = append(all, s.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Len returns the number of cached shipments.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// Upsert replaces the cached shipment with s.
func (c *Cache) Upsert(ctx context.Context, s *model.Shipment) {
	c.UpsertMany(ctx, []model.Shipment{*s})
}

// UpsertMany replaces every shipment in the batch, e.g. one search page.
func (c *Cache) UpsertMany(ctx context.Context, shipments []model.Shipment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertLocked(ctx, shipments, EventUpserted)
}

// Added upserts a newly created shipment and records it as the last added.
func (c *Cache) Added(ctx context.Context, s *model.Shipment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAddedID = s.ID
	c.upsertLocked(ctx, []model.Shipment{*s}, EventAdded)
}

func (c *Cache) upsertLocked(ctx context.Context, shipments []model.Shipment, kind EventKind) {
	stored := make([]model.Shipment, 0, len(shipments))
	for i := range shipments {
		s := &shipments[i]
		if s.ID == "" {
			c.logger.Warn("ignoring shipment without id")
			continue
		}
		c.entities[s.ID] = s.Clone()
		stored = append(stored, *s)
	}
	if len(stored) == 0 {
		return
	}
	if c.persister != nil {
		if err := c.persister.SaveShipments(ctx, stored); err != nil {
			c.logger.Error("failed to persist shipments", "count", len(stored), "error", err)
		}
	}
	c.metrics.CacheSize(len(c.entities))
	for i := range stored {
		c.publishLocked(Event{Kind: kind, ID: stored[i].ID, Shipment: stored[i].Clone()})
	}
}

// Remove drops the shipment and records id as the last removed.
func (c *Cache) Remove(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, id)
	c.lastRemovedID = id
	if c.persister != nil {
		if err := c.persister.DeleteShipment(ctx, id); err != nil {
			c.logger.Error("failed to delete persisted shipment", "shipment", id, "error", err)
		}
	}
	c.metrics.CacheSize(len(c.entities))
	c.publishLocked(Event{Kind: EventRemoved, ID: id})
}

// LastAddedID is the id of the most recently added shipment.
func (c *Cache) LastAddedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAddedID
}

// LastRemovedID is the id of the most recently removed shipment.
func (c *Cache) LastRemovedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRemovedID
}

// RecordFailure stores the failure of a request. Cached entities are untouched.
func (c *Cache) RecordFailure(action string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &Failure{Action: action, Err: err}
	c.failure = f
	c.publishLocked(Event{Kind: EventFailed, Failure: f})
}

// Failure returns the unacknowledged failure, if any.
func (c *Cache) Failure() (Failure, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.failure == nil {
		return Failure{}, false
	}
	return *c.failure, true
}

// ClearFailure acknowledges the recorded failure.
func (c *Cache) ClearFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure = nil
}
