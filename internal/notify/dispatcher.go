// internal/notify/dispatcher.go
package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// Handler consumes events off the controller lock. It may block.
type Handler interface {
	Handle(ctx context.Context, ev device.Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev device.Event)

func (f HandlerFunc) Handle(ctx context.Context, ev device.Event) { f(ctx, ev) }

// Dispatcher is the device.Sink every controller reports to.
// Notify never blocks: when the queue is full the event is dropped and counted.
// Run hands queued events to the handlers in order.
type Dispatcher struct {
	ch       chan device.Event
	handlers []Handler
	log      *slog.Logger

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

var _ device.Sink = (*Dispatcher)(nil)

func NewDispatcher(size int, log *slog.Logger, handlers ...Handler) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		ch:       make(chan device.Event, size),
		handlers: handlers,
		log:      log,
	}
}

func (d *Dispatcher) Notify(ev device.Event) {
	select {
	case d.ch <- ev:
	default:
		if n := d.dropped.Add(1); n == 1 || n%100 == 0 {
			d.log.Warn("event queue full, dropping", "device", ev.DeviceID, "dropped", n)
		}
	}
}

// Run delivers events until ctx is cancelled, then flushes what is queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.flush(ctx)
			return
		case ev := <-d.ch:
			d.deliver(ctx, ev)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	for {
		select {
		case ev := <-d.ch:
			d.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev device.Event) {
	for _, h := range d.handlers {
		h.Handle(ctx, ev)
	}
	d.delivered.Add(1)
}

// Dropped returns the number of events lost to a full queue.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Delivered returns the number of events handed to the handlers.
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }
