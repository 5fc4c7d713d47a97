// internal/device/events.go
package device

import "time"

// Event is the typed state-change notification emitted once per completed pass.
type Event struct {
	DeviceID int
	Session  string
	Seq      uint64
	At       time.Time

	Run         bool
	Mode        bool
	Heat        bool
	StandbyLamp bool

	RunLamp      bool
	StandbyStart bool
	Overload     bool
	LowPressure  bool
	RunRequest   bool
	HeaterOn     bool
	Status       ClusterStatus
}

// Sink consumes state-change events.
// Notify is called with the controller lock held and must not block.
type Sink interface {
	Notify(ev Event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Notify(Event) {}

var _ Sink = NoopSink{}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(ev Event) { f(ev) }

func eventFrom(s *State, session string, seq uint64, at time.Time) Event {
	return Event{
		DeviceID:     s.ID,
		Session:      session,
		Seq:          seq,
		At:           at,
		Run:          s.Run,
		Mode:         s.Mode,
		Heat:         s.Heat,
		StandbyLamp:  s.StandbyLamp,
		RunLamp:      s.RunLamp,
		StandbyStart: s.StandbyStart,
		Overload:     s.Overload,
		LowPressure:  s.LowPressureTx,
		RunRequest:   s.RunRequest,
		HeaterOn:     s.HeaterOn,
		Status:       s.Status,
	}
}
