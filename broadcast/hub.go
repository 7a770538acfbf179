// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/pollcast/models"
	"github.com/prometheus/client_golang/prometheus"
)

// SubscriberQueueSize is the number of updates buffered per stream before
// further updates are dropped for that subscriber.
const SubscriberQueueSize = 16

type SubscriberID uint64

// Update is the payload pushed to everyone watching a poll after a vote.
type Update struct {
	PollID     string                `json:"pollId"`
	Results    []models.OptionResult `json:"results"`
	TotalVotes int                   `json:"totalVotes"`
}

// Publisher delivers tally updates to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

// Subscriber receives updates for one poll. Close must be idempotent.
type Subscriber interface {
	Deliver(Update) error
	Close()
}

// channelSubscriber buffers updates on a channel. A full buffer drops the
// update rather than blocking the publisher.
type channelSubscriber struct {
	ch     chan Update
	mu     sync.RWMutex
	closed bool
	onDrop func()
}

func newChannelSubscriber(buffer int, onDrop func()) *channelSubscriber {
	return &channelSubscriber{
		ch:     make(chan Update, buffer),
		onDrop: onDrop,
	}
}

func (c *channelSubscriber) Deliver(u Update) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}

	select {
	case c.ch <- u:
	default:
		if c.onDrop != nil {
			c.onDrop()
		}
	}
	return nil
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Hub fans updates out to the subscribers of each poll. It is safe for
// concurrent use.
type Hub struct {
	subscribers map[string]map[SubscriberID]Subscriber
	lastID      SubscriberID
	mu          sync.RWMutex
	metrics     *hubMetrics
	logger      *slog.Logger
}

var _ Publisher = (*Hub)(nil)

// NewHub creates an empty hub. reg may be nil to disable metrics.
func NewHub(reg prometheus.Registerer, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		subscribers: make(map[string]map[SubscriberID]Subscriber),
		logger:      logger,
	}
	if reg != nil {
		h.metrics = newHubMetrics(reg)
	}
	return h
}

// Subscribe returns a channel of updates for pollID. The channel is closed
// by Unsubscribe or Stop.
func (h *Hub) Subscribe(pollID string) (SubscriberID, <-chan Update) {
	sub := newChannelSubscriber(SubscriberQueueSize, h.recordDrop)
	id := h.Register(pollID, sub)
	return id, sub.ch
}

// Register attaches an externally implemented subscriber to pollID.
func (h *Hub) Register(pollID string, sub Subscriber) SubscriberID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	id := h.lastID
	if _, ok := h.subscribers[pollID]; !ok {
		h.subscribers[pollID] = make(map[SubscriberID]Subscriber)
	}
	h.subscribers[pollID][id] = sub

	if h.metrics != nil {
		h.metrics.subscribers.Inc()
	}
	return id
}

// Unsubscribe detaches and closes a subscriber. Unknown ids are ignored.
func (h *Hub) Unsubscribe(pollID string, id SubscriberID) {
	h.mu.Lock()
	var sub Subscriber
	if subs, ok := h.subscribers[pollID]; ok {
		if s, ok := subs[id]; ok {
			sub = s
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subscribers, pollID)
			}
			if h.metrics != nil {
				h.metrics.subscribers.Dec()
			}
		}
	}
	h.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Publish delivers u to every current subscriber of u.PollID. Subscribers
// whose delivery fails are removed.
func (h *Hub) Publish(ctx context.Context, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	type subItem struct {
		id  SubscriberID
		sub Subscriber
	}
	subs := h.subscribers[u.PollID]
	items := make([]subItem, 0, len(subs))
	for id, sub := range subs {
		items = append(items, subItem{id: id, sub: sub})
	}
	h.mu.RUnlock()

	for _, item := range items {
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("subscriber deliver panic: %v", r)
				}
			}()
			err = item.sub.Deliver(u)
		}()

		if err != nil {
			h.Unsubscribe(u.PollID, item.id)
			if h.metrics != nil {
				h.metrics.deliveryErrors.Inc()
			}
			h.logger.Debug("update delivery failed", "poll_id", u.PollID, "error", err)
		}
	}

	if h.metrics != nil {
		h.metrics.published.Inc()
	}
	return nil
}

// SubscriberCount returns the number of subscribers watching pollID.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[pollID])
}

// Stop closes every subscriber. The hub remains usable afterwards.
func (h *Hub) Stop() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]map[SubscriberID]Subscriber)
	h.mu.Unlock()

	for _, pollSubs := range subs {
		for _, sub := range pollSubs {
			sub.Close()
		}
	}

	if h.metrics != nil {
		h.metrics.subscribers.Set(0)
	}
}

func (h *Hub) recordDrop() {
	if h.metrics != nil {
		h.metrics.dropped.Inc()
	}
}
