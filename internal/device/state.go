// internal/device/state.go
package device

import (
	"time"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// ClusterStatus is the connectivity classification derived on every pass.
type ClusterStatus uint8

const (
	StatusNoConnection ClusterStatus = iota
	StatusManual
	StatusStandBy3
	StatusStandBy2
	StatusStandBy3to2
	StatusStandBy3OneRun
	StatusStandBy3to2OneRun
)

func (c ClusterStatus) String() string {
	switch c {
	case StatusNoConnection:
		return "NoConnection"
	case StatusManual:
		return "Manual"
	case StatusStandBy3:
		return "StandBy3"
	case StatusStandBy2:
		return "StandBy2"
	case StatusStandBy3to2:
		return "StandBy3to2"
	case StatusStandBy3OneRun:
		return "StandBy3_1Run"
	case StatusStandBy3to2OneRun:
		return "StandBy3to2_1Run"
	default:
		return "Unknown"
	}
}

// Peer is the slot one controller keeps for one of the other two devices.
type Peer struct {
	ID int

	// Raw is the most recently received payload. Zeroed when the peer is lost.
	Raw frame.Bits

	// Lost is set once no frame arrived for longer than the comm-fault timeout.
	Lost bool

	// Manual is set while the peer reports mode bit 0.
	Manual bool

	// FaultCounter is the time elapsed since the last frame from this peer.
	FaultCounter time.Duration
}

// ErrorFlag reports whether the peer is excluded from redundancy decisions,
// either because it went silent or because it runs in manual mode.
func (p Peer) ErrorFlag() bool {
	return p.Lost || p.Manual
}

// View is the peer buffer the logic reads. All-zero iff ErrorFlag.
func (p Peer) View() frame.Bits {
	if p.ErrorFlag() {
		return frame.Bits{}
	}
	return p.Raw
}

// State is the complete state of one controller.
// Owned by exactly one Controller; never shared across devices.
type State struct {
	// ---- identity ----
	ID    int
	Model string

	// ---- mode / run axis ----
	Run  bool
	Heat bool
	Mode bool // false = Manual, true = StandbyCapable

	// ---- outputs (mirrored into the outbound frame) ----
	StandbyStart  bool
	RunLamp       bool
	Overload      bool
	RunRequest    bool
	ResetButton   bool
	StandbyLamp   bool
	LowPressureTx bool

	StopLamp bool
	HeaterOn bool

	// ---- inputs ----
	OverloadIn     bool
	LowPressureIn  bool
	RunFeedbackIn  bool
	OldLowPressure bool
	OldRun         bool

	// ---- flags ----
	RequestFlag      bool
	StandbyOverload  bool
	StopOverload     bool
	InitFlag         bool
	ComStatusFlag    bool
	Standby31RunFlag bool
	FailoverStart    bool

	// low-pressure coordination
	BuildUpActive  bool
	BuildUpDone    bool
	ParallelStart  bool
	ParallelActive bool

	// ---- timers ----
	BuildUpCounter    time.Duration
	BuildUpTarget     time.Duration
	ParallelCounter   time.Duration
	SequenceCounter   time.Duration
	HeatingCounter    time.Duration
	RunRequestCounter time.Duration
	ResetCounter      time.Duration

	// ---- connectivity ----
	Status ClusterStatus

	// Peers holds the two other devices in ascending id order.
	Peers [2]Peer
}

// newState builds the initial state for a device id.
// Peer slots are fixed at construction from the id.
func newState(id int, model string) State {
	s := State{ID: id, Model: model, StopLamp: true, Status: StatusManual}

	i := 0
	for other := frame.MinDeviceID; other <= frame.MaxDeviceID; other++ {
		if other == id {
			continue
		}
		s.Peers[i] = Peer{ID: other}
		i++
	}
	return s
}

// Peer returns the slot for a peer device id.
func (s *State) Peer(id int) (*Peer, bool) {
	for i := range s.Peers {
		if s.Peers[i].ID == id {
			return &s.Peers[i], true
		}
	}
	return nil, false
}

// PeerBuffer returns the 8-byte buffer the logic holds for a peer.
func (s *State) PeerBuffer(id int) []byte {
	p, ok := s.Peer(id)
	if !ok {
		return nil
	}
	return frame.Encode(id, p.View(), time.Time{}).Data
}

// Bits returns the outbound bit set of this device.
func (s *State) Bits() frame.Bits {
	return frame.Bits{
		StandbyStart: s.StandbyStart,
		RunLamp:      s.RunLamp,
		Overload:     s.Overload,
		Mode:         s.Mode,
		RunRequest:   s.RunRequest,
		ResetButton:  s.ResetButton,
		StandbyLamp:  s.StandbyLamp,
		LowPressure:  s.LowPressureTx,
	}
}

// ---- peer predicates (over the effective views) ----

func (s *State) anyPeer(pred func(frame.Bits) bool) bool {
	for _, p := range s.Peers {
		if pred(p.View()) {
			return true
		}
	}
	return false
}

func (s *State) allPeers(pred func(frame.Bits) bool) bool {
	for _, p := range s.Peers {
		if !pred(p.View()) {
			return false
		}
	}
	return true
}

func (s *State) faultedPeers() int {
	n := 0
	for _, p := range s.Peers {
		if p.ErrorFlag() {
			n++
		}
	}
	return n
}
