package cache

import (
	"context"
	"sync"

	"github.com/erazemk/biotrack/internal/model"
)

// EventKind says what changed.
type EventKind string

// Event kinds.
const (
	EventUpserted EventKind = "upserted"
	EventAdded    EventKind = "added"
	EventRemoved  EventKind = "removed"
	EventFailed   EventKind = "failed"
)

// Event is a cache change notification. Shipment is a copy of the new value for
// upserted and added events, nil otherwise.
type Event struct {
	Kind     EventKind
	ID       string
	Shipment *model.Shipment
	Failure  *Failure
}

type subscriber struct {
	ch chan Event
	id string
	// latest keeps only the newest undelivered event instead of dropping new ones.
	latest bool
}

// Subscribe returns a channel receiving every change, and a function ending the
// subscription and closing the channel. A subscriber that falls more than buffer
// events behind misses events rather than blocking writers.
func (c *Cache) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	return c.subscribe(&subscriber{ch: make(chan Event, buffer)})
}

// Watch follows one shipment: it yields the cached value first, if any, then
// every later upsert and the removal, until ctx ends or stop is called. Only
// the newest undelivered change is kept, so a slow reader always catches up to
// the latest value. The channel is closed once the watch ends. Callers passing
// a context that is never cancelled must call stop.
func (c *Cache) Watch(ctx context.Context, id string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 1), id: id, latest: true}

	c.mu.Lock()
	if s, ok := c.entities[id]; ok {
		sub.ch <- Event{Kind: EventUpserted, ID: id, Shipment: s.Clone()}
	}
	key := c.addLocked(sub)
	c.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
		c.unsubscribe(key)
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		c.unsubscribe(key)
	}()
	return sub.ch, stop
}

func (c *Cache) subscribe(sub *subscriber) (<-chan Event, func()) {
	c.mu.Lock()
	key := c.addLocked(sub)
	c.mu.Unlock()
	return sub.ch, func() { c.unsubscribe(key) }
}

func (c *Cache) addLocked(sub *subscriber) int {
	key := c.nextSub
	c.nextSub++
	c.subs[key] = sub
	return key
}

func (c *Cache) unsubscribe(key int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sub, ok := c.subs[key]; ok {
		delete(c.subs, key)
		close(sub.ch)
	}
}

// publishLocked must be called with the write lock held; channels are only
// closed under the same lock, so sends never race a close.
func (c *Cache) publishLocked(ev Event) {
	c.metrics.CacheEvent(string(ev.Kind))
	for _, sub := range c.subs {
		if sub.id != "" && sub.id != ev.ID {
			continue
		}
		select {
		case sub.ch <- ev:
			continue
		default:
		}
		if !sub.latest {
			c.metrics.CacheDropped()
			continue
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- ev:
		default:
			c.metrics.CacheDropped()
		}
	}
}
