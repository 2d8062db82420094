package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biotrack/internal/model"
)

func createTestShipment(id string, version int64) *model.Shipment {
	return &model.Shipment{
		ID:          id,
		Version:     version,
		CourierName: "FedEx",
		State:       model.ShipmentStateCreated,
	}
}

type memPersister struct {
	saved   map[string]model.Shipment
	deleted []string
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[string]model.Shipment)}
}

func (p *memPersister) SaveShipments(_ context.Context, shipments []model.Shipment) error {
	for _, s := range shipments {
		p.saved[s.ID] = s
	}
	return nil
}

func (p *memPersister) DeleteShipment(_ context.Context, id string) error {
	delete(p.saved, id)
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *memPersister) LoadShipments(_ context.Context) ([]model.Shipment, error) {
	var all []model.Shipment
	for _, s := range p.saved {
		all = append(all, s)
	}
	return all, nil
}

func TestUpsertReplacesWholesale(t *testing.T) {
	c := New()
	ctx := context.Background()

	s := createTestShipment("s1", 1)
	s.TrackingNumber = "TN-1"
	c.Upsert(ctx, s)

	next := createTestShipment("s1", 2)
	c.Upsert(ctx, next)

	got, ok := c.Get("s1")
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Version)
	assert.Empty(t, got.TrackingNumber, "no field survives from the old value")
	assert.Equal(t, 1, c.Len())
}

func TestUpsertIsIdempotent(t *testing.T) {
	c := New()
	ctx := context.Background()
	s := createTestShipment("s1", 3)

	c.Upsert(ctx, s)
	c.Upsert(ctx, s)

	got, ok := c.Get("s1")
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.Equal(t, 1, c.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	c.Upsert(context.Background(), createTestShipment("s1", 1))

	got, _ := c.Get("s1")
	got.CourierName = "changed"

	again, _ := c.Get("s1")
	assert.Equal(t, "FedEx", again.CourierName)
}

func TestUpsertManyIgnoresMissingIDs(t *testing.T) {
	c := New()
	c.UpsertMany(context.Background(), []model.Shipment{
		*createTestShipment("b", 1),
		*createTestShipment("", 1),
		*createTestShipment("a", 1),
	})

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestAddedAndRemoved(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Added(ctx, createTestShipment("s1", 0))
	assert.Equal(t, "s1", c.LastAddedID())

	c.Remove(ctx, "s1")
	assert.Equal(t, "s1", c.LastRemovedID())
	_, ok := c.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, "s1", c.LastAddedID(), "last added survives removal")
}

func TestFailureNeedsAcknowledgement(t *testing.T) {
	c := New()
	c.Upsert(context.Background(), createTestShipment("s1", 1))

	_, ok := c.Failure()
	assert.False(t, ok)

	boom := errors.New("boom")
	c.RecordFailure("[Shipment] Update", boom)

	f, ok := c.Failure()
	require.True(t, ok)
	assert.Equal(t, "[Shipment] Update", f.Action)
	assert.ErrorIs(t, f.Err, boom)

	got, _ := c.Get("s1")
	assert.Equal(t, int64(1), got.Version, "failure leaves entities untouched")

	c.ClearFailure()
	_, ok = c.Failure()
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	c := New()
	ctx := context.Background()
	events, cancel := c.Subscribe(4)

	c.Added(ctx, createTestShipment("s1", 0))
	c.Remove(ctx, "s1")
	c.RecordFailure("[Shipment] Get", errors.New("x"))

	ev := <-events
	assert.Equal(t, EventAdded, ev.Kind)
	assert.Equal(t, "s1", ev.Shipment.ID)
	ev = <-events
	assert.Equal(t, EventRemoved, ev.Kind)
	ev = <-events
	assert.Equal(t, EventFailed, ev.Kind)
	assert.Equal(t, "[Shipment] Get", ev.Failure.Action)

	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestSlowSubscriberDoesNotBlockWriters(t *testing.T) {
	c := New()
	ctx := context.Background()
	events, cancel := c.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := range 10 {
			c.Upsert(ctx, createTestShipment("s1", int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer blocked on a full subscriber")
	}
	ev := <-events
	assert.Equal(t, int64(0), ev.Shipment.Version)
}

func TestWatchCoalescesToLatest(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	c.Upsert(ctx, createTestShipment("s1", 1))

	events, _ := c.Watch(ctx, "s1")
	first := <-events
	assert.Equal(t, int64(1), first.Shipment.Version)

	c.Upsert(ctx, createTestShipment("other", 9))
	for v := int64(2); v <= 5; v++ {
		c.Upsert(ctx, createTestShipment("s1", v))
	}

	latest := <-events
	assert.Equal(t, "s1", latest.ID)
	assert.Equal(t, int64(5), latest.Shipment.Version)

	c.Remove(ctx, "s1")
	removed := <-events
	assert.Equal(t, EventRemoved, removed.Kind)

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestWatchStop(t *testing.T) {
	c := New()
	ctx := context.Background()
	c.Upsert(ctx, createTestShipment("s1", 1))

	events, stop := c.Watch(ctx, "s1")
	<-events
	stop()
	stop()

	_, open := <-events
	assert.False(t, open)

	c.Upsert(ctx, createTestShipment("s1", 2))
	c.mu.RLock()
	assert.Empty(t, c.subs)
	c.mu.RUnlock()
}

func TestPersisterAndRestore(t *testing.T) {
	p := newMemPersister()
	ctx := context.Background()

	c := New(WithPersister(p))
	c.Upsert(ctx, createTestShipment("s1", 1))
	c.Upsert(ctx, createTestShipment("s2", 1))
	c.Remove(ctx, "s2")

	assert.Len(t, p.saved, 1)
	assert.Equal(t, []string{"s2"}, p.deleted)

	restored := New(WithPersister(p))
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, ok := restored.Get("s1")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Version)
}
