// internal/cluster/registry.go
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tamzrod/pumpcluster/internal/bus"
	"github.com/tamzrod/pumpcluster/internal/device"
	"github.com/tamzrod/pumpcluster/internal/runner"
)

var ErrRegistered = errors.New("cluster: device already registered")

// Device describes one device to register.
type Device struct {
	ID               int
	Model            string
	StandbyMode      bool
	PowerRecovery    bool
	RunFeedbackCheck bool
	InboxSize        int

	// Workers run alongside the device runner (field I/O pollers and the like)
	// and are stopped with it.
	Workers []func(ctx context.Context, c *device.Controller)
}

type Config struct {
	Network bus.Network
	Timing  device.Timing
	Sink    device.Sink
	Logger  *slog.Logger

	// OnUnregister is called after a device has fully stopped.
	OnUnregister func(id int)
}

type entry struct {
	ctrl    *device.Controller
	runner  *runner.Runner
	session string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Registry owns the controllers of this process and routes operator commands.
type Registry struct {
	cfg Config
	log *slog.Logger

	mu      sync.RWMutex
	devices map[int]*entry
}

func New(cfg Config) *Registry {
	if cfg.Timing == (device.Timing{}) {
		cfg.Timing = device.DefaultTiming()
	}
	if cfg.Sink == nil {
		cfg.Sink = device.NoopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		cfg:     cfg,
		log:     cfg.Logger,
		devices: make(map[int]*entry),
	}
}

// Register creates a controller, attaches it to the bus and starts its runner.
// Returns the registration session id.
func (r *Registry) Register(ctx context.Context, d Device) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[d.ID]; ok {
		return "", fmt.Errorf("%w: id=%d", ErrRegistered, d.ID)
	}

	session := uuid.NewString()
	log := r.log.With("device", d.ID, "session", session)

	ctrl, err := device.New(device.Config{
		ID:               d.ID,
		Model:            d.Model,
		Timing:           r.cfg.Timing,
		StandbyMode:      d.StandbyMode,
		PowerRecovery:    d.PowerRecovery,
		RunFeedbackCheck: d.RunFeedbackCheck,
		InboxSize:        d.InboxSize,
		Session:          session,
		Logger:           log,
		Sink:             r.cfg.Sink,
	})
	if err != nil {
		return "", fmt.Errorf("cluster: register %d: %w", d.ID, err)
	}

	port, err := r.cfg.Network.Attach(ctrl)
	if err != nil {
		ctrl.Close()
		return "", fmt.Errorf("cluster: register %d: %w", d.ID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e := &entry{
		ctrl:    ctrl,
		runner:  runner.New(ctrl, port, r.cfg.Timing.LogicTick, r.cfg.Timing.TransmitTick, log),
		session: session,
		cancel:  cancel,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runner.Run(runCtx)
	}()
	for _, w := range d.Workers {
		w := w
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			w(runCtx, ctrl)
		}()
	}

	r.devices[d.ID] = e
	log.Info("device registered", "model", d.Model, "standby_mode", d.StandbyMode, "power_recovery", d.PowerRecovery)
	return session, nil
}

// Unregister stops a device. An in-flight pass completes before teardown.
// Returns false for unknown devices.
func (r *Registry) Unregister(id int) bool {
	r.mu.Lock()
	e, ok := r.devices[id]
	if ok {
		delete(r.devices, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.cancel()
	e.wg.Wait()
	r.cfg.Network.Detach(id)
	e.ctrl.Close()

	if r.cfg.OnUnregister != nil {
		r.cfg.OnUnregister(id)
	}
	r.log.Info("device unregistered", "device", id, "session", e.session, "frames_sent", e.runner.Sent())
	return true
}

// Close unregisters every device.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Unregister(id)
	}
}

// IDs returns the registered device ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Controller returns the controller of a registered device.
func (r *Registry) Controller(id int) (*device.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.devices[id]
	if !ok {
		return nil, false
	}
	return e.ctrl, true
}

// Session returns the registration session id of a device.
func (r *Registry) Session(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.devices[id]
	if !ok {
		return "", false
	}
	return e.session, true
}

// Snapshot returns a copy of a device state.
func (r *Registry) Snapshot(id int) (device.State, bool) {
	c, ok := r.Controller(id)
	if !ok {
		return device.State{}, false
	}
	return c.Snapshot(), true
}

// Info is one line of the cluster overview.
type Info struct {
	State   device.State
	Stats   device.Stats
	Session string
	Sent    uint64
}

// Overview returns every registered device in id order.
func (r *Registry) Overview() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.devices))
	for _, e := range r.devices {
		out = append(out, Info{
			State:   e.ctrl.Snapshot(),
			Stats:   e.ctrl.Stats(),
			Session: e.session,
			Sent:    e.runner.Sent(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State.ID < out[j].State.ID })
	return out
}
