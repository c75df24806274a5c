// package hub pushes tracking snapshots to subscribed clients.
//
// Every subscriber owns a small bounded queue. The hub never blocks on a
// subscriber: when a queue is full its oldest frame is discarded, since only
// the newest snapshot matters. Pushes happen when the store publishes a change
// and on a fixed heartbeat interval.
package hub

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultBuffer   = 4
)

var (
	hubSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "migtrack_hub_subscribers",
		Help: "Currently registered snapshot subscribers",
	})

	hubFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "migtrack_hub_frames_dropped_total",
		Help: "Frames discarded because a subscriber queue was full or the frame was stale",
	})

	hubBroadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migtrack_hub_broadcasts_total",
		Help: "Snapshot broadcasts by trigger",
	}, []string{"reason"})
)

// Source provides the current snapshot.
type Source interface {
	Snapshot() models.Snapshot
}

// Frame is one encoded snapshot.
type Frame struct {
	Version uint64
	Data    []byte
}

// Subscription is a registered subscriber. C is closed on unsubscribe.
type Subscription struct {
	ID string
	C  <-chan Frame

	ch   chan Frame
	last uint64
}

// Hub is the subscriber registry and broadcaster.
type Hub struct {
	source   Source
	interval time.Duration
	buffer   int
	logger   *log.Logger

	mu     sync.Mutex
	subs   map[string]*Subscription
	latest *models.Snapshot
	closed bool

	signal chan struct{}
}

// Option configures a [Hub].
type Option func(*Hub)

// WithInterval sets the heartbeat interval.
func WithInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithBuffer sets the per subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(l *log.Logger) Option { return func(h *Hub) { h.logger = l } }

// New creates a hub reading heartbeat and join snapshots from source.
func New(source Source, opts ...Option) *Hub {
	h := &Hub{
		source:   source,
		interval: DefaultInterval,
		buffer:   DefaultBuffer,
		logger:   log.New(io.Discard),
		subs:     make(map[string]*Subscription),
		signal:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Interval returns the heartbeat interval.
func (h *Hub) Interval() time.Duration { return h.interval }

// Subscribe registers a subscriber whose queue already holds one full snapshot.
//
// Registration and the initial frame happen under the registry lock, so no
// broadcast can reach the subscriber first.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Frame, h.buffer)
	sub := &Subscription{ID: shared.GenerateID(), C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return sub
	}

	snap := h.source.Snapshot()
	if h.latest == nil || snap.Version >= h.latest.Version {
		h.latest = &snap
	}

	frame, err := encode(snap)
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
	} else {
		h.offer(sub, frame)
	}

	h.subs[sub.ID] = sub
	hubSubscribers.Inc()
	h.logger.Debug("subscriber joined", "id", sub.ID, "version", snap.Version, "subscribers", len(h.subs))
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. It reports whether id was registered.
func (h *Hub) Unsubscribe(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(sub.ch)
	hubSubscribers.Dec()
	h.logger.Debug("subscriber left", "id", id, "subscribers", len(h.subs))
	return true
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish records s as the latest snapshot and wakes the run loop. It never blocks.
func (h *Hub) Publish(s models.Snapshot) {
	h.mu.Lock()
	if h.latest == nil || s.Version >= h.latest.Version {
		h.latest = &s
	}
	h.mu.Unlock()

	select {
	case h.signal <- struct{}{}:
	default:
	}
}

// Run broadcasts on every publish and heartbeat until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("broadcast hub running", "interval", h.interval, "buffer", h.buffer)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.signal:
			h.broadcastLatest()
		case <-ticker.C:
			h.Heartbeat()
		}
	}
}

// Heartbeat pushes a fresh snapshot to every subscriber whether or not anything changed.
func (h *Hub) Heartbeat() {
	snap := h.source.Snapshot()
	h.mu.Lock()
	if h.latest == nil || snap.Version >= h.latest.Version {
		h.latest = &snap
	}
	h.mu.Unlock()
	h.broadcast(snap, "heartbeat")
}

func (h *Hub) broadcastLatest() {
	h.mu.Lock()
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		h.broadcast(*latest, "publish")
	}
}

func (h *Hub) broadcast(snap models.Snapshot, reason string) {
	frame, err := encode(snap)
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		h.offer(sub, frame)
	}
	hubBroadcasts.WithLabelValues(reason).Inc()
}

// offer queues frame for sub without blocking. Callers hold h.mu.
func (h *Hub) offer(sub *Subscription, frame Frame) {
	if frame.Version < sub.last {
		hubFramesDropped.Inc()
		return
	}

	for {
		select {
		case sub.ch <- frame:
			sub.last = frame.Version
			return
		default:
		}

		select {
		case <-sub.ch:
			hubFramesDropped.Inc()
		default:
		}
	}
}

// Close unsubscribes everyone. Later subscriptions receive an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
		hubSubscribers.Dec()
	}
}

func encode(s models.Snapshot) (Frame, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Version: s.Version, Data: data}, nil
}
