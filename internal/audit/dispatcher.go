package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BruksfildServices01/calendar-booking/internal/logging"
)

// Event is one auditable action. UserID is nil for anonymous actors such
// as third parties claiming a unit.
type Event struct {
	UserID   *string
	Action   string
	Entity   string
	EntityID *string
	Metadata any

	At time.Time
}

// Sink persists events somewhere.
type Sink interface {
	Log(ctx context.Context, ev Event) error
}

// Dispatcher fans events out to its sinks on a background worker so
// requests never wait on audit storage.
type Dispatcher struct {
	sinks  []Sink
	logger *slog.Logger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(logger *slog.Logger, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		sinks:  sinks,
		logger: logging.WithOperation(logger, "audit"),
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		for _, s := range d.sinks {
			if err := s.Log(context.Background(), ev); err != nil {
				d.logger.Error("audit sink failed",
					slog.String("action", ev.Action),
					logging.Err(err),
				)
			}
		}
	}
}

// Dispatch enqueues ev. When the queue is full the event is dropped; audit
// must never fail a request.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("audit queue full, dropping event", slog.String("action", ev.Action))
	}
}

// Close stops accepting events and waits until queued ones are written.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}
