// Package realtime tells connected clients which tables changed so they can
// reload. Messages never carry row data, only the table name and a fresh
// token.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/taleweave/taleweave/pkg/auth"
)

// subscriptionBuffer is the number of undelivered invalidations a subscriber
// can fall behind by before newer ones are dropped. Any invalidation means
// "reload", so a dropped one is covered by the ones still queued.
const subscriptionBuffer = 16

type Invalidation struct {
	Table string `json:"table"`
	Token string `json:"token"`
}

// Relay carries invalidations to hubs in other processes.
type Relay interface {
	Publish(ctx context.Context, inv Invalidation) error
}

type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	relay  Relay
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: map[*Subscription]struct{}{}}
}

// SetRelay makes Publish forward every invalidation to relay as well.
func (h *Hub) SetRelay(relay Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = relay
}

type Subscription struct {
	UserID int

	c      chan Invalidation
	tables map[string]struct{}
	hub    *Hub
	once   sync.Once
}

// C delivers invalidations until the subscription is closed.
func (s *Subscription) C() <-chan Invalidation {
	return s.c
}

func (s *Subscription) wants(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}

// Close removes the subscription from its hub and closes C. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.hub.subs, s)
		close(s.c)
	})
}

// Subscribe listens for changes to the given tables, or to every table when
// none are given.
func (h *Hub) Subscribe(userID int, tables ...string) *Subscription {
	sub := &Subscription{
		UserID: userID,
		c:      make(chan Invalidation, subscriptionBuffer),
		tables: make(map[string]struct{}, len(tables)),
		hub:    h,
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.closeLocked()
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish announces that each of tables changed. It is called after a write
// has been committed. A nil hub publishes nothing.
func (h *Hub) Publish(ctx context.Context, tables ...string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	relay := h.relay
	h.mu.Unlock()

	for _, table := range tables {
		inv := Invalidation{Table: table, Token: uuid.New().String()}
		h.deliver(inv)
		if relay != nil {
			if err := relay.Publish(ctx, inv); err != nil {
				logger.FromContext(ctx).Err(err).Warn("failed to relay invalidation", logger.Data{"table": table})
			}
		}
	}
}

func (h *Hub) deliver(inv Invalidation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.wants(inv.Table) {
			continue
		}
		select {
		case sub.c <- inv:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseUser ends every subscription held by userID.
func (h *Hub) CloseUser(userID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.UserID == userID {
			sub.closeLocked()
		}
	}
}

// Watch closes a user's feeds when they sign out. The returned function stops
// watching.
func (h *Hub) Watch(events *auth.Events) func() {
	return events.Subscribe(func(ev auth.Event) {
		if ev.Type == auth.EventSignedOut {
			h.CloseUser(ev.UserID)
		}
	})
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		sub.closeLocked()
	}
}
