// internal/cluster/registry_test.go
package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/pumpcluster/internal/bus"
	"github.com/tamzrod/pumpcluster/internal/device"
)

func fastTiming() device.Timing {
	tm := device.DefaultTiming()
	tm.LogicTick = 5 * time.Millisecond
	tm.TransmitTick = 10 * time.Millisecond
	tm.CommFaultTimeout = 100 * time.Millisecond
	return tm
}

func newRegistry(t *testing.T, onUnregister func(int)) *Registry {
	t.Helper()
	r := New(Config{
		Network:      bus.NewLoopback(),
		Timing:       fastTiming(),
		OnUnregister: onUnregister,
	})
	t.Cleanup(r.Close)
	return r
}

func register(t *testing.T, r *Registry, id int) string {
	t.Helper()
	session, err := r.Register(context.Background(), Device{ID: id, Model: "BP", StandbyMode: true})
	require.NoError(t, err)
	return session
}

func TestRegister_SessionAndDuplicates(t *testing.T) {
	r := newRegistry(t, nil)

	session := register(t, r, 1)
	_, err := uuid.Parse(session)
	assert.NoError(t, err)

	got, ok := r.Session(1)
	assert.True(t, ok)
	assert.Equal(t, session, got)

	_, err = r.Register(context.Background(), Device{ID: 1})
	assert.True(t, errors.Is(err, ErrRegistered))

	_, err = r.Register(context.Background(), Device{ID: 9})
	assert.Error(t, err)

	assert.Equal(t, []int{1}, r.IDs())
}

func TestCommands_UnknownDeviceReturnsFalse(t *testing.T) {
	r := newRegistry(t, nil)

	assert.False(t, r.PressStart(2))
	assert.False(t, r.PressStop(2))
	assert.False(t, r.ToggleMode(2))
	assert.False(t, r.ToggleHeat(2))
	assert.False(t, r.PressReset(2))
	assert.False(t, r.InjectOverload(2, true))
	assert.False(t, r.InjectLowPressure(2, true))
	assert.False(t, r.SetRunFeedback(2, true))
	assert.False(t, r.SetInputs(2, device.Inputs{}))
	assert.False(t, r.Unregister(2))

	_, ok := r.Snapshot(2)
	assert.False(t, ok)
}

func TestCluster_StandbyAndFailover(t *testing.T) {
	var mu sync.Mutex
	var stopped []int
	r := newRegistry(t, func(id int) {
		mu.Lock()
		defer mu.Unlock()
		stopped = append(stopped, id)
	})

	register(t, r, 1)
	register(t, r, 2)

	require.True(t, r.PressStart(1))

	require.Eventually(t, func() bool {
		s, _ := r.Snapshot(2)
		return s.StandbyLamp && s.Status == device.StatusStandBy2
	}, 2*time.Second, 5*time.Millisecond, "device 2 should back up device 1")

	// device 1 disappears while running: device 2 takes over
	require.True(t, r.Unregister(1))

	require.Eventually(t, func() bool {
		s, _ := r.Snapshot(2)
		return s.Run && s.StandbyStart
	}, 2*time.Second, 5*time.Millisecond, "standby should take over")

	mu.Lock()
	assert.Equal(t, []int{1}, stopped)
	mu.Unlock()

	assert.False(t, r.PressStart(1), "commands after unregister")
}

func TestRegister_WorkersStopWithDevice(t *testing.T) {
	r := newRegistry(t, nil)

	started := make(chan struct{})
	stopped := make(chan struct{})
	_, err := r.Register(context.Background(), Device{
		ID:          3,
		StandbyMode: true,
		Workers: []func(context.Context, *device.Controller){
			func(ctx context.Context, c *device.Controller) {
				c.InjectLowPressure(true)
				close(started)
				<-ctx.Done()
				close(stopped)
			},
		},
	})
	require.NoError(t, err)

	<-started
	s, _ := r.Snapshot(3)
	assert.True(t, s.LowPressureTx)

	r.Unregister(3)
	select {
	case <-stopped:
	default:
		t.Fatalf("worker still running after unregister")
	}
}

func TestOverview(t *testing.T) {
	r := newRegistry(t, nil)
	register(t, r, 3)
	register(t, r, 1)

	ov := r.Overview()
	require.Len(t, ov, 2)
	assert.Equal(t, 1, ov[0].State.ID)
	assert.Equal(t, 3, ov[1].State.ID)
	assert.NotEmpty(t, ov[0].Session)
}
