// Package service keeps the shipment cache in step with the API. Successful
// replies replace cached shipments wholesale; failed requests leave the cache
// as it was and record the failure until it is acknowledged.
package service

import (
	"context"
	"log/slog"

	"github.com/erazemk/biotrack/internal/cache"
	"github.com/erazemk/biotrack/internal/errs"
	"github.com/erazemk/biotrack/internal/model"
	"github.com/erazemk/biotrack/internal/shipment"
)

// API is the shipment API as the service uses it. *client.Client implements it.
type API interface {
	Get(ctx context.Context, id string) (*model.Shipment, error)
	Search(ctx context.Context, params model.SearchParams) (*model.PagedReply[model.Shipment], error)
	Add(ctx context.Context, s *model.Shipment) (*model.Shipment, error)
	Update(ctx context.Context, s *model.Shipment, u shipment.Update) (*model.Shipment, error)
	Remove(ctx context.Context, s *model.Shipment) (string, error)
	CanAddSpecimen(ctx context.Context, inventoryID string) (*model.Specimen, error)
	AddSpecimens(ctx context.Context, s *model.Shipment, inventoryIDs []string, containerID string) (*model.Shipment, error)
	TagSpecimens(ctx context.Context, s *model.Shipment, tag model.ShipmentItemState, inventoryIDs []string) (*model.Shipment, error)
	ListSpecimens(ctx context.Context, shipmentID string, params model.SearchParams) (*model.PagedReply[model.ShipmentSpecimen], error)
	RemoveSpecimen(ctx context.Context, s *model.Shipment, ss *model.ShipmentSpecimen) (*model.Shipment, error)
}

// Service runs shipment operations and applies their results to a cache.
// Operations block until the server replies; run them in a goroutine to
// overlap them. Concurrent updates of one shipment are not serialized: the
// server accepts the first and rejects the rest as stale.
type Service struct {
	api    API
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates a service.
func New(api API, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, cache: c, logger: logger}
}

// Cache returns the cache the service writes to.
func (s *Service) Cache() *cache.Cache { return s.cache }

// fail records a server or transport failure. Errors raised before any request
// was sent are the caller's to handle and are not recorded.
func (s *Service) fail(op string, err error) error {
	if errs.IsLocal(err) {
		return err
	}
	if e, ok := errs.As(err); ok && e.Op != "" {
		op = e.Op
	}
	s.logger.Warn("shipment request failed", "op", op, "error", err)
	s.cache.RecordFailure(op, err)
	return err
}

// Get fetches a shipment and caches it.
func (s *Service) Get(ctx context.Context, id string) (*model.Shipment, error) {
	sh, err := s.api.Get(ctx, id)
	if err != nil {
		return nil, s.fail(shipment.OpGet, err)
	}
	s.cache.Upsert(ctx, sh)
	return sh, nil
}

// Search fetches a page of shipments and caches every one of them.
func (s *Service) Search(ctx context.Context, params model.SearchParams) (*model.PagedReply[model.Shipment], error) {
	page, err := s.api.Search(ctx, params)
	if err != nil {
		return nil, s.fail(shipment.OpSearch, err)
	}
	s.cache.UpsertMany(ctx, page.Items)
	return page, nil
}

// Add saves a new shipment and records it as the last added.
func (s *Service) Add(ctx context.Context, sh *model.Shipment) (*model.Shipment, error) {
	added, err := s.api.Add(ctx, sh)
	if err != nil {
		return nil, s.fail(shipment.OpAdd, err)
	}
	s.cache.Added(ctx, added)
	s.logger.Info("shipment added", "shipment", added.ID)
	return added, nil
}

// Update applies u to the shipment the caller holds.
func (s *Service) Update(ctx context.Context, sh *model.Shipment, u shipment.Update) (*model.Shipment, error) {
	updated, err := s.api.Update(ctx, sh, u)
	if err != nil {
		return nil, s.fail(shipment.OpUpdate, err)
	}
	s.cache.Upsert(ctx, updated)
	return updated, nil
}

// UpdateAttribute is Update for an attribute given by name.
func (s *Service) UpdateAttribute(ctx context.Context, sh *model.Shipment, attribute string, value any) (*model.Shipment, error) {
	u, err := shipment.NewUpdate(attribute, value)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, sh, u)
}

// ChangeState applies a state transition.
func (s *Service) ChangeState(ctx context.Context, sh *model.Shipment, c shipment.StateChange) (*model.Shipment, error) {
	return s.Update(ctx, sh, c)
}

// BackTo returns the shipment to an earlier state, keeping the time recorded
// for that state.
func (s *Service) BackTo(ctx context.Context, sh *model.Shipment, state model.ShipmentState) (*model.Shipment, error) {
	c, err := shipment.BackTo(sh, state)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, sh, c)
}

// Remove deletes the shipment, drops it from the cache and records it as the
// last removed.
func (s *Service) Remove(ctx context.Context, sh *model.Shipment) error {
	id, err := s.api.Remove(ctx, sh)
	if err != nil {
		return s.fail(shipment.OpRemove, err)
	}
	s.cache.Remove(ctx, id)
	s.logger.Info("shipment removed", "shipment", id)
	return nil
}

// CanAddSpecimen checks whether a specimen may be shipped.
func (s *Service) CanAddSpecimen(ctx context.Context, inventoryID string) (*model.Specimen, error) {
	sp, err := s.api.CanAddSpecimen(ctx, inventoryID)
	if err != nil {
		return nil, s.fail(shipment.OpCanAddSpecimen, err)
	}
	return sp, nil
}

// AddSpecimens adds specimens to a created shipment.
func (s *Service) AddSpecimens(ctx context.Context, sh *model.Shipment, inventoryIDs []string, containerID string) (*model.Shipment, error) {
	updated, err := s.api.AddSpecimens(ctx, sh, inventoryIDs, containerID)
	if err != nil {
		return nil, s.fail(shipment.OpAddSpecimens, err)
	}
	s.cache.Upsert(ctx, updated)
	return updated, nil
}

// TagSpecimens tags specimens of an unpacked shipment. Counts come from the
// server's reply, never from local arithmetic.
func (s *Service) TagSpecimens(ctx context.Context, sh *model.Shipment, tag model.ShipmentItemState, inventoryIDs []string) (*model.Shipment, error) {
	updated, err := s.api.TagSpecimens(ctx, sh, tag, inventoryIDs)
	if err != nil {
		return nil, s.fail(shipment.OpTagSpecimens, err)
	}
	s.cache.Upsert(ctx, updated)
	return updated, nil
}

// ListSpecimens fetches a page of a shipment's specimens. They are not cached.
func (s *Service) ListSpecimens(ctx context.Context, shipmentID string, params model.SearchParams) (*model.PagedReply[model.ShipmentSpecimen], error) {
	page, err := s.api.ListSpecimens(ctx, shipmentID, params)
	if err != nil {
		return nil, s.fail(shipment.OpListSpecimens, err)
	}
	return page, nil
}

// RemoveSpecimen removes a specimen from a created shipment.
func (s *Service) RemoveSpecimen(ctx context.Context, sh *model.Shipment, ss *model.ShipmentSpecimen) (*model.Shipment, error) {
	updated, err := s.api.RemoveSpecimen(ctx, sh, ss)
	if err != nil {
		return nil, s.fail(shipment.OpRemoveSpecimen, err)
	}
	s.cache.Upsert(ctx, updated)
	return updated, nil
}
