// internal/device/controller.go
package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// DefaultInboxSize bounds the inbound frame queue of one controller.
const DefaultInboxSize = 32

// Config is the construction-time configuration of one controller.
type Config struct {
	ID    int
	Model string

	Timing Timing

	// StandbyMode is the initial mode (false = Manual).
	StandbyMode bool

	// PowerRecovery enables the start-up sequencing window.
	PowerRecovery bool

	// RunFeedbackCheck makes run_lamp depend on the run feedback input.
	RunFeedbackCheck bool

	InboxSize int

	// Session tags every event of this registration.
	Session string

	Logger *slog.Logger
	Sink   Sink
	Now    func() time.Time
}

// Stats are cumulative counters of one controller.
type Stats struct {
	Passes   uint64
	Received uint64
	Rejected uint64
	Dropped  uint64
}

type inbound struct {
	sender int
	bits   frame.Bits
}

// Controller owns one Device State and serializes every pass over it.
// Scheduled ticks, operator commands and transmit snapshots all take the same lock.
type Controller struct {
	mu     sync.Mutex
	st     State
	eng    engine
	closed bool
	seq    uint64

	inbox chan inbound

	session string
	sink    Sink
	log     *slog.Logger
	now     func() time.Time

	passes   atomic.Uint64
	received atomic.Uint64
	rejected atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a controller and runs one initial pass.
func New(cfg Config) (*Controller, error) {
	if frame.IDFor(cfg.ID) == 0 {
		return nil, fmt.Errorf("device: id %d out of range %d..%d", cfg.ID, frame.MinDeviceID, frame.MaxDeviceID)
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming()
	}
	if err := cfg.Timing.Validate(); err != nil {
		return nil, err
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Sink == nil {
		cfg.Sink = NoopSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Controller{
		st:      newState(cfg.ID, cfg.Model),
		inbox:   make(chan inbound, cfg.InboxSize),
		session: cfg.Session,
		sink:    cfg.Sink,
		log:     cfg.Logger,
		now:     cfg.Now,
	}
	c.st.Mode = cfg.StandbyMode
	c.st.InitFlag = cfg.PowerRecovery

	c.eng = engine{
		st:               &c.st,
		tm:               cfg.Timing,
		log:              cfg.Logger,
		runFeedbackCheck: cfg.RunFeedbackCheck,
	}

	c.mu.Lock()
	c.passLocked(0)
	c.mu.Unlock()

	return c, nil
}

// ID returns the immutable device id.
func (c *Controller) ID() int { return c.st.ID }

// Model returns the model name given at registration.
func (c *Controller) Model() string { return c.st.Model }

// Timing returns the timer set the controller runs with.
func (c *Controller) Timing() Timing { return c.eng.tm }

// ---- transport boundary ----

// ErrOwnFrame is returned for frames carrying this controller's own identifier.
var ErrOwnFrame = errors.New("device: frame from own identifier")

// Receive hands an inbound frame to the controller without blocking.
// Malformed, unmapped or own frames are discarded and logged here;
// they never reach the pipeline. Returns false when the frame was not queued.
func (c *Controller) Receive(f frame.Frame) bool {
	sender, bits, err := frame.Decode(f)
	if err == nil && sender == c.st.ID {
		err = ErrOwnFrame
	}
	if err != nil {
		c.rejected.Add(1)
		c.log.Debug("frame discarded", "device", c.st.ID, "id", fmt.Sprintf("0x%03x", f.ID), "err", err)
		return false
	}

	select {
	case c.inbox <- inbound{sender: sender, bits: bits}:
		c.received.Add(1)
		return true
	default:
		c.dropped.Add(1)
		c.log.Warn("inbox full, frame dropped", "device", c.st.ID, "peer", sender)
		return false
	}
}

// Transmit serializes the current outputs into an outbound frame.
func (c *Controller) Transmit() frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return frame.Encode(c.st.ID, c.st.Bits(), c.now())
}

// Tick runs one scheduled logic pass. Returns false once closed.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.passLocked(c.eng.tm.LogicTick)
	return true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Stats returns the cumulative counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Passes:   c.passes.Load(),
		Received: c.received.Load(),
		Rejected: c.rejected.Load(),
		Dropped:  c.dropped.Load(),
	}
}

// Close disables the controller. A pass in flight completes first.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// passLocked runs one pass. Caller holds c.mu.
func (c *Controller) passLocked(elapsed time.Duration) {
	c.eng.advancePeers(elapsed)

drain:
	for {
		select {
		case in := <-c.inbox:
			c.eng.accept(in.sender, in.bits)
		default:
			break drain
		}
	}

	c.eng.pass(elapsed)

	c.seq++
	c.passes.Add(1)
	c.sink.Notify(eventFrom(&c.st, c.session, c.seq, c.now()))
}
