// internal/writer/publisher.go
package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/pumpcluster/internal/device"
	"github.com/tamzrod/pumpcluster/internal/status"
)

// StatusPublisher owns the status snapshot of every opted-in device.
// Events update health, flags and cluster status; a 1 Hz clock advances
// seconds_in_alarm while a device is in alarm.
type StatusPublisher struct {
	log *slog.Logger

	mu      sync.Mutex
	writers map[int]StatusWriter
	snaps   map[int]status.Snapshot
}

func NewStatusPublisher(writers map[int]StatusWriter, log *slog.Logger) *StatusPublisher {
	if log == nil {
		log = slog.Default()
	}
	snaps := make(map[int]status.Snapshot, len(writers))
	for id := range writers {
		snaps[id] = status.Snapshot{Health: status.HealthUnknown}
	}
	return &StatusPublisher{log: log, writers: writers, snaps: snaps}
}

// Start writes the boot block of every device (identity re-assert).
func (p *StatusPublisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, w := range p.writers {
		if err := w.WriteStatus(p.snaps[id]); err != nil {
			p.log.Warn("status write failed on start", "device", id, "err", err)
		}
	}
}

// Handle applies one state-change event.
func (p *StatusPublisher) Handle(_ context.Context, ev device.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[ev.DeviceID]
	if !ok {
		return
	}

	prev := p.snaps[ev.DeviceID]
	next := status.FromEvent(ev)

	// seconds_in_alarm survives while the alarm holds, resets on recovery
	if next.InAlarm() && prev.InAlarm() {
		next.SecondsInAlarm = prev.SecondsInAlarm
	}

	if next == prev {
		return
	}
	p.snaps[ev.DeviceID] = next

	if err := w.WriteStatus(next); err != nil {
		p.log.Warn("status write failed", "device", ev.DeviceID, "err", err)
	}
}

// MarkStale flags a device whose controller stopped.
func (p *StatusPublisher) MarkStale(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[id]
	if !ok {
		return
	}
	s := p.snaps[id]
	s.Health = status.HealthStale
	s.SecondsInAlarm = 0
	p.snaps[id] = s

	if err := w.WriteStatus(s); err != nil {
		p.log.Warn("status write failed", "device", id, "err", err)
	}
}

// Tick advances seconds_in_alarm by one second for every device in alarm.
func (p *StatusPublisher) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, s := range p.snaps {
		if !s.InAlarm() || s.SecondsInAlarm == 65535 {
			continue
		}
		s.SecondsInAlarm++
		p.snaps[id] = s

		if err := p.writers[id].WriteStatus(s); err != nil {
			p.log.Warn("status seconds tick write failed", "device", id, "err", err)
		}
	}
}

// Run drives the 1 Hz clock until ctx is cancelled.
func (p *StatusPublisher) Run(ctx context.Context) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-secTicker.C:
			p.Tick()
		}
	}
}

// Snapshot returns the current snapshot of a device.
func (p *StatusPublisher) Snapshot(id int) (status.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.snaps[id]
	return s, ok
}
