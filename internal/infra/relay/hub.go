package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"partypics-app/internal/domain/notification"
	"partypics-app/internal/infra/metrics"
)

const defaultBuffer = 32

// Publisher delivers a notification on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, n notification.Notification) error
}

// Notify escapes message and broadcasts it to every client of the shared
// channel.
func Notify(ctx context.Context, p Publisher, message string, tournamentID uint) (notification.Notification, error) {
	n := notification.New(message, tournamentID)
	return n, p.Publish(ctx, notification.BroadcastChannel, n)
}

// Hub fans notifications out to in-process subscribers. Delivery is at most
// once: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	log    zerolog.Logger
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		log:    log.With().Str("component", "relay").Logger(),
	}
}

// Subscribe registers a listener on channel. A non-nil tournamentID limits
// delivery to notifications of that tournament.
func (h *Hub) Subscribe(channel string, tournamentID *uint) *Subscription {
	sub := &Subscription{
		hub:     h,
		channel: channel,
		ch:      make(chan notification.Notification, h.buffer),
	}
	if tournamentID != nil {
		id := *tournamentID
		sub.tournamentID = &id
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		sub.once.Do(func() {})
		return sub
	}
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Subscription]struct{})
	}
	h.subs[channel][sub] = struct{}{}
	return sub
}

// Publish never blocks on slow subscribers.
func (h *Hub) Publish(ctx context.Context, channel string, n notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[channel] {
		if !sub.wants(n) {
			continue
		}
		select {
		case sub.ch <- n:
			metrics.RecordNotification("delivered")
		default:
			metrics.RecordNotification("dropped")
			h.log.Debug().Str("channel", channel).Uint("tournament_id", n.TournamentID).Msg("subscriber buffer full, notification dropped")
		}
	}
	return nil
}

// Subscribers returns the number of listeners on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for channel, subs := range h.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.subs, channel)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub.once.Do(func() {
		delete(h.subs[sub.channel], sub)
		if len(h.subs[sub.channel]) == 0 {
			delete(h.subs, sub.channel)
		}
		close(sub.ch)
	})
}

// Subscription is one listener registered on a Hub.
type Subscription struct {
	hub          *Hub
	channel      string
	tournamentID *uint
	ch           chan notification.Notification
	once         sync.Once
}

// Notifications is closed once the subscription or its hub is closed.
func (s *Subscription) Notifications() <-chan notification.Notification {
	return s.ch
}

func (s *Subscription) Channel() string {
	return s.channel
}

func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (s *Subscription) wants(n notification.Notification) bool {
	return s.tournamentID == nil || *s.tournamentID == n.TournamentID
}
