// internal/notify/notify_test.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/pumpcluster/internal/device"
)

type collector struct {
	mu  sync.Mutex
	evs []device.Event
}

func (c *collector) Handle(_ context.Context, ev device.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evs = append(c.evs, ev)
}

func (c *collector) got() []device.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]device.Event(nil), c.evs...)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	col := &collector{}
	d := NewDispatcher(2, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), col)

	d.Notify(device.Event{DeviceID: 1, Seq: 1})
	d.Notify(device.Event{DeviceID: 1, Seq: 2})
	d.Notify(device.Event{DeviceID: 1, Seq: 3})

	assert.Equal(t, uint64(1), d.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx) // flushes queued events and returns

	evs := col.got()
	require.Len(t, evs, 2)
	assert.Equal(t, uint64(1), evs[0].Seq)
	assert.Equal(t, uint64(2), evs[1].Seq)
	assert.Equal(t, uint64(2), d.Delivered())
}

func TestDispatcher_RunDeliversInOrder(t *testing.T) {
	col := &collector{}
	d := NewDispatcher(16, nil, col)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for i := 1; i <= 5; i++ {
		d.Notify(device.Event{DeviceID: 2, Seq: uint64(i)})
	}

	require.Eventually(t, func() bool { return len(col.got()) == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	for i, ev := range col.got() {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
}

func TestOnChange_ForwardsTransitionsOnly(t *testing.T) {
	col := &collector{}
	h := OnChange(col)
	ctx := context.Background()

	h.Handle(ctx, device.Event{DeviceID: 1, Seq: 1, Mode: true})
	h.Handle(ctx, device.Event{DeviceID: 1, Seq: 2, Mode: true, At: time.Now()})
	h.Handle(ctx, device.Event{DeviceID: 2, Seq: 1, Mode: true})
	h.Handle(ctx, device.Event{DeviceID: 1, Seq: 3, Mode: true, Run: true})

	evs := col.got()
	require.Len(t, evs, 3)
	assert.Equal(t, 1, evs[0].DeviceID)
	assert.Equal(t, 2, evs[1].DeviceID)
	assert.True(t, evs[2].Run)
}

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	s.Handle(context.Background(), device.Event{
		DeviceID:    3,
		Session:     "abc",
		Run:         true,
		Mode:        true,
		StandbyLamp: true,
		Status:      device.StatusStandBy3OneRun,
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "device state", line["msg"])
	assert.Equal(t, float64(3), line["device"])
	assert.Equal(t, true, line["standby"])
	assert.Equal(t, "StandBy3_1Run", line["status"])
}

func TestPayload_CBORIntegerKeys(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	ev := device.Event{
		DeviceID:    2,
		Session:     "s-9",
		Seq:         41,
		At:          at,
		Run:         true,
		Mode:        true,
		StandbyLamp: true,
		Status:      device.StatusStandBy2,
	}

	body, err := EncodePayload(ev)
	require.NoError(t, err)

	// map(15) followed by key 1
	assert.Equal(t, byte(0xaf), body[0])
	assert.Equal(t, byte(0x01), body[1])

	p, err := DecodePayload(body)
	require.NoError(t, err)
	assert.Equal(t, 2, p.DeviceID)
	assert.Equal(t, "s-9", p.Session)
	assert.Equal(t, uint64(41), p.Seq)
	assert.True(t, p.At.Equal(at))
	assert.True(t, p.StandbyLamp)
	assert.Equal(t, "StandBy2", p.Status)

	_, err = DecodePayload([]byte{0xff})
	assert.Error(t, err)
}

// ---- fake paho publisher ----

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool { return true }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t *fakeToken) Error() error { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakePublisher struct {
	topics   []string
	retained []bool
	bodies   [][]byte
}

func (f *fakePublisher) Publish(topic string, _ byte, retained bool, payload interface{}) paho.Token {
	f.topics = append(f.topics, topic)
	f.retained = append(f.retained, retained)
	f.bodies = append(f.bodies, payload.([]byte))
	return &fakeToken{}
}

func TestMQTTPublisher_TopicAndRetain(t *testing.T) {
	fp := &fakePublisher{}
	p := NewMQTTPublisher(fp, "plant/pumps/", 1, time.Second, nil)

	p.Handle(context.Background(), device.Event{DeviceID: 1, Run: true})

	require.Len(t, fp.topics, 1)
	assert.Equal(t, "plant/pumps/event/1", fp.topics[0])
	assert.True(t, fp.retained[0])

	got, err := DecodePayload(fp.bodies[0])
	require.NoError(t, err)
	assert.True(t, got.Run)
}
