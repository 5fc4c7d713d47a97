// internal/notify/change.go
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// OnChange forwards an event only when its observable state differs from
// the previous event of the same device. The first event of a device always passes.
func OnChange(next Handler) Handler {
	return &changeFilter{next: next, last: make(map[int]device.Event)}
}

type changeFilter struct {
	next Handler

	mu   sync.Mutex
	last map[int]device.Event
}

func (c *changeFilter) Handle(ctx context.Context, ev device.Event) {
	key := observable(ev)

	c.mu.Lock()
	prev, seen := c.last[ev.DeviceID]
	c.last[ev.DeviceID] = key
	c.mu.Unlock()

	if seen && prev == key {
		return
	}
	c.next.Handle(ctx, ev)
}

// observable strips the per-pass bookkeeping fields.
func observable(ev device.Event) device.Event {
	ev.Seq = 0
	ev.At = time.Time{}
	return ev
}
