// internal/device/helpers_test.go
package device

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Notify(ev Event) { r.events = append(r.events, ev) }

func newTestController(t *testing.T, id int, mutate ...func(*Config)) *Controller {
	t.Helper()

	cfg := Config{
		ID:          id,
		Model:       "BP-TEST",
		Timing:      DefaultTiming(),
		StandbyMode: true,
		Now:         func() time.Time { return epoch },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func withPowerRecovery(cfg *Config) { cfg.PowerRecovery = true }

func manualMode(cfg *Config) { cfg.StandbyMode = false }

// feed delivers one peer frame to c.
func feed(t *testing.T, c *Controller, peer int, b frame.Bits) {
	t.Helper()
	require.True(t, c.Receive(frame.Encode(peer, b, epoch)))
}

// ticks runs n scheduled passes.
func ticks(c *Controller, n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// step exchanges the current frames of every controller with every other
// controller, then ticks each of them once.
func step(cs ...*Controller) {
	frames := make([]frame.Frame, len(cs))
	for i, c := range cs {
		frames[i] = c.Transmit()
	}
	for i, c := range cs {
		for j, f := range frames {
			if i != j {
				c.Receive(f)
			}
		}
	}
	for _, c := range cs {
		c.Tick()
	}
}

func steps(n int, cs ...*Controller) {
	for i := 0; i < n; i++ {
		step(cs...)
	}
}

// standbyBehindPeer2 brings device 1 into the standby role behind a running
// device 2; device 3 is absent.
func standbyBehindPeer2(t *testing.T, c *Controller) {
	t.Helper()
	feed(t, c, 2, frame.Bits{RunLamp: true, Mode: true})
	c.Tick()

	s := c.Snapshot()
	require.True(t, s.StandbyLamp, "device 1 should back up running device 2")
	require.False(t, s.Run)
	require.Equal(t, StatusStandBy2, s.Status)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func checkInvariants(t *testing.T, c *Controller) {
	t.Helper()
	s := c.Snapshot()

	require.False(t, s.RunLamp && s.StopLamp, "run_lamp and stop_lamp both set")
	require.Equal(t, !s.Mode, s.Status == StatusManual, "manual status must track mode")

	for _, p := range s.Peers {
		require.Equal(t, p.ErrorFlag(), allZero(s.PeerBuffer(p.ID)), "peer %d buffer/error flag", p.ID)
	}

	f := c.Transmit()
	require.Equal(t, s.Mode, f.Data[frame.BitMode] == 1, "own mode bit")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// engineFor builds a bare engine over a state for stage-level tests.
func engineFor(s *State) *engine {
	return &engine{st: s, tm: DefaultTiming(), log: discardLogger()}
}
