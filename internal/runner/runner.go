// internal/runner/runner.go
package runner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tamzrod/pumpcluster/internal/bus"
	"github.com/tamzrod/pumpcluster/internal/frame"
)

// Controller is the part of device.Controller the runner drives.
type Controller interface {
	ID() int
	Tick() bool
	Transmit() frame.Frame
}

// Runner owns both clocks of one device: the logic tick and the transmit tick.
// One goroutine per device. No overlap: a slow pass delays the next tick.
type Runner struct {
	ctrl  Controller
	port  bus.Port
	logic time.Duration
	tx    time.Duration
	log   *slog.Logger

	sent    atomic.Uint64
	sendErr atomic.Uint64
}

func New(ctrl Controller, port bus.Port, logic, tx time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{ctrl: ctrl, port: port, logic: logic, tx: tx, log: log}
}

// Run blocks until ctx is cancelled or the controller is closed.
// The first frame goes out immediately so peers learn about the device
// without waiting a full transmit period.
func (r *Runner) Run(ctx context.Context) {
	logic := time.NewTicker(r.logic)
	defer logic.Stop()
	tx := time.NewTicker(r.tx)
	defer tx.Stop()

	r.transmit()

	for {
		select {
		case <-ctx.Done():
			return
		case <-logic.C:
			if !r.ctrl.Tick() {
				return
			}
		case <-tx.C:
			r.transmit()
		}
	}
}

func (r *Runner) transmit() {
	if err := r.port.Send(r.ctrl.Transmit()); err != nil {
		// log the first failure and then every 100th
		if n := r.sendErr.Add(1); n == 1 || n%100 == 0 {
			r.log.Warn("frame send failed", "device", r.ctrl.ID(), "failures", n, "err", err)
		}
		return
	}
	r.sent.Add(1)
}

// Sent returns the number of frames handed to the bus.
func (r *Runner) Sent() uint64 { return r.sent.Load() }

// SendErrors returns the number of failed sends.
func (r *Runner) SendErrors() uint64 { return r.sendErr.Load() }
