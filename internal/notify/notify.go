// package notify delivers tracking events to external senders.
//
// The [Dispatcher] owns a bounded queue drained by a fixed worker pool. Enqueueing
// never blocks the caller, and a sender failure is logged and counted but never
// returned to whoever raised the event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	notificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migtrack_notifications_dispatched_total",
		Help: "Notifications handed to senders by event type",
	}, []string{"event_type"})

	notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "migtrack_notifications_failed_total",
		Help: "Failed sender deliveries by sender",
	}, []string{"sender"})

	notificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "migtrack_notifications_dropped_total",
		Help: "Notifications dropped because the queue was full or closed",
	})
)

// Sender delivers a notification to one external destination.
type Sender interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// Options configures a [Dispatcher].
type Options struct {
	Workers     int           // Concurrent delivery workers (default: 4)
	QueueSize   int           // Pending notifications before new ones are dropped (default: 256)
	SendTimeout time.Duration // Per sender delivery timeout (default: 10s)
	Logger      *log.Logger
}

// Stats counts dispatcher outcomes since construction.
type Stats struct {
	Dispatched uint64 `json:"dispatched"`
	Failed     uint64 `json:"failed"`
	Dropped    uint64 `json:"dropped"`
}

// Dispatcher fans notifications out to every registered [Sender].
type Dispatcher struct {
	opts    Options
	senders []Sender
	queue   chan models.Notification

	mu      sync.RWMutex
	closed  bool
	started bool
	group   errgroup.Group

	dispatched atomic.Uint64
	failed     atomic.Uint64
	dropped    atomic.Uint64
}

// New creates a dispatcher. Call [Dispatcher.Start] before notifications are delivered.
func New(opts Options, senders ...Sender) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Dispatcher{
		opts:    opts,
		senders: senders,
		queue:   make(chan models.Notification, opts.QueueSize),
	}
}

// Start launches the worker pool. Workers run until [Dispatcher.Close] drains the queue.
//
// Cancelling ctx aborts in-flight sends but does not stop the workers.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.group.Go(func() error {
			d.worker(ctx, i)
			return nil
		})
	}

	d.opts.Logger.Debug("dispatcher started", "workers", d.opts.Workers, "senders", len(d.senders))
	return nil
}

// Notify enqueues n without blocking. When the queue is full n is dropped.
func (d *Dispatcher) Notify(n models.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(n, "closed")
		return
	}

	select {
	case d.queue <- n:
	default:
		d.drop(n, "queue full")
	}
}

func (d *Dispatcher) drop(n models.Notification, reason string) {
	d.dropped.Add(1)
	notificationsDropped.Inc()
	d.opts.Logger.Warn("notification dropped", "reason", reason, "event_type", n.EventType, "component", n.Component)
}

// Close stops accepting notifications, delivers what is queued and waits for the workers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	return d.group.Wait()
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched: d.dispatched.Load(),
		Failed:     d.failed.Load(),
		Dropped:    d.dropped.Load(),
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	logger := d.opts.Logger.With("worker", id)
	for n := range d.queue {
		d.deliver(ctx, logger, n)
	}
}

// deliver hands n to every sender, isolating failures per sender.
func (d *Dispatcher) deliver(ctx context.Context, logger *log.Logger, n models.Notification) {
	for _, s := range d.senders {
		if err := d.send(ctx, s, n); err != nil {
			d.failed.Add(1)
			notificationsFailed.WithLabelValues(s.Name()).Inc()
			logger.Error("notification delivery failed",
				"sender", s.Name(),
				"event_type", n.EventType,
				"component", n.Component,
				"error", err,
			)
		}
	}
	d.dispatched.Add(1)
	notificationsDispatched.WithLabelValues(string(n.EventType)).Inc()
}

func (d *Dispatcher) send(ctx context.Context, s Sender, n models.Notification) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()

	if err := s.Send(ctx, n); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s: %w", d.opts.SendTimeout, err)
		}
		return err
	}
	return nil
}
