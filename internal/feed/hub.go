// Package feed fans change events out to live subscribers. Events are
// refetch hints: losing one never breaks correctness, so slow subscribers
// are dropped instead of blocking writers.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

// DefaultBufferSize is the per-subscriber queue length.
const DefaultBufferSize = 16

// Bus carries events between processes. Publish delivers to every
// process, including the sender, through Listen.
type Bus interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Listen(ctx context.Context, deliver func(domain.ChangeEvent)) error
}

// Recorder receives feed telemetry. May be nil.
type Recorder interface {
	FeedClientDelta(delta int)
	FeedEvent(table domain.View, result string)
}

type Hub struct {
	tenant string
	buffer int
	bus    Bus
	log    logger.Logger
	rec    Recorder

	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewHub builds a hub. With a nil bus events stay in-process.
func NewHub(tenant string, bus Bus, log logger.Logger, rec Recorder) *Hub {
	return &Hub{
		tenant: tenant,
		buffer: DefaultBufferSize,
		bus:    bus,
		log:    log,
		rec:    rec,
		subs:   make(map[string]*Subscription),
	}
}

type Subscription struct {
	ID     string
	events chan domain.ChangeEvent
	hub    *Hub
	once   sync.Once
}

// Events is closed when the subscription ends, either by Close or because
// the subscriber fell behind.
func (s *Subscription) Events() <-chan domain.ChangeEvent { return s.events }

func (s *Subscription) Close() { s.hub.remove(s.ID) }

func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		ID:     uuid.NewString(),
		events: make(chan domain.ChangeEvent, h.buffer),
		hub:    h,
	}

	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()

	if h.rec != nil {
		h.rec.FeedClientDelta(1)
	}
	h.log.Debug("feed subscriber joined", logger.String("id", s.ID), logger.Int("total", n))
	return s
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Notify publishes one event per view. It satisfies the data layer's
// notifier and never fails the calling mutation.
func (h *Hub) Notify(ctx context.Context, op domain.ChangeOp, id string, views ...domain.View) {
	at := time.Now().UTC()
	for _, v := range views {
		h.Publish(ctx, domain.ChangeEvent{Table: v, Op: op, ID: id, Tenant: h.tenant, At: at})
	}
}

// Publish sends ev through the bus when there is one, falling back to a
// local broadcast if the bus refuses it.
func (h *Hub) Publish(ctx context.Context, ev domain.ChangeEvent) {
	if ev.Tenant == "" {
		ev.Tenant = h.tenant
	}
	if h.bus != nil {
		err := h.bus.Publish(ctx, ev)
		if err == nil {
			return
		}
		h.log.Warn("feed bus publish failed, delivering locally",
			logger.String("table", string(ev.Table)),
			logger.Error(err),
		)
	}
	h.broadcast(ev)
}

// Run pumps bus events into local subscribers until ctx ends. Without a
// bus it simply waits.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()
	if h.bus == nil {
		<-ctx.Done()
		return nil
	}
	err := h.bus.Listen(ctx, h.broadcast)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// broadcast sends while holding the read lock. remove closes channels under
// the write lock, so a send never meets a closed channel.
func (h *Hub) broadcast(ev domain.ChangeEvent) {
	if ev.Tenant != h.tenant {
		return
	}

	var slow []string
	h.mu.RLock()
	for id, s := range h.subs {
		select {
		case s.events <- ev:
			h.record(ev.Table, "sent")
		default:
			h.record(ev.Table, "dropped")
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.log.Warn("feed subscriber too slow, disconnecting", logger.String("id", id))
		h.remove(id)
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		s.once.Do(func() { close(s.events) })
	}
	h.mu.Unlock()

	if ok && h.rec != nil {
		h.rec.FeedClientDelta(-1)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.remove(id)
	}
}

func (h *Hub) record(table domain.View, result string) {
	if h.rec != nil {
		h.rec.FeedEvent(table, result)
	}
}
