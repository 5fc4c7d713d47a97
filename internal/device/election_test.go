// internal/device/election_test.go
package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

func healthy(b frame.Bits) Peer {
	b.Mode = true
	return Peer{Raw: b}
}

func TestDeriveStatus(t *testing.T) {
	lost := Peer{Lost: true}

	tests := []struct {
		name     string
		mode     bool
		run      bool
		peers    [2]Peer
		prev     ClusterStatus
		com      bool
		oneRun   bool
		expected ClusterStatus
	}{
		{name: "manual", mode: false, expected: StatusManual},
		{name: "both lost", mode: true, peers: [2]Peer{lost, lost}, expected: StatusNoConnection},

		{name: "trio two running", mode: true, run: true,
			peers: [2]Peer{healthy(frame.Bits{RunLamp: true}), healthy(frame.Bits{})}, expected: StatusStandBy3},
		{name: "trio one running", mode: true, run: true,
			peers: [2]Peer{healthy(frame.Bits{}), healthy(frame.Bits{})}, expected: StatusStandBy3OneRun},
		{name: "trio none running", mode: true,
			peers: [2]Peer{healthy(frame.Bits{}), healthy(frame.Bits{})}, expected: StatusStandBy3},
		{name: "trio one peer running", mode: true,
			peers: [2]Peer{healthy(frame.Bits{}), healthy(frame.Bits{RunLamp: true})}, expected: StatusStandBy3OneRun},

		{name: "degrade from trio", mode: true, prev: StatusStandBy3,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy3to2},
		{name: "degrade from trio one run", mode: true, prev: StatusStandBy3OneRun,
			peers: [2]Peer{lost, healthy(frame.Bits{})}, expected: StatusStandBy3to2OneRun},
		{name: "pair is sticky", mode: true, prev: StatusStandBy2,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy2},
		{name: "degraded is sticky", mode: true, prev: StatusStandBy3to2,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy3to2},

		{name: "from no connection, never trio", mode: true, prev: StatusNoConnection,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy2},
		{name: "from no connection, was trio", mode: true, prev: StatusNoConnection, com: true,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy3to2},
		{name: "from manual, was trio one run", mode: true, prev: StatusManual, com: true, oneRun: true,
			peers: [2]Peer{healthy(frame.Bits{}), lost}, expected: StatusStandBy3to2OneRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(1, "")
			s.Mode = tt.mode
			s.Run = tt.run
			s.ComStatusFlag = tt.com
			s.Standby31RunFlag = tt.oneRun
			s.Peers[0].Raw, s.Peers[0].Lost = tt.peers[0].Raw, tt.peers[0].Lost
			s.Peers[1].Raw, s.Peers[1].Lost = tt.peers[1].Raw, tt.peers[1].Lost
			s.Peers[0].Manual = !tt.peers[0].Lost && !tt.peers[0].Raw.Mode
			s.Peers[1].Manual = !tt.peers[1].Lost && !tt.peers[1].Raw.Mode

			got := engineFor(&s).deriveStatus(tt.prev)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConnectivity_RemembersTrioMembership(t *testing.T) {
	s := newState(2, "")
	s.Mode = true
	s.Run = true
	s.Peers[0] = Peer{ID: 1, Raw: frame.Bits{Mode: true, RunLamp: true}}
	s.Peers[1] = Peer{ID: 3, Raw: frame.Bits{Mode: true}}

	e := engineFor(&s)
	e.connectivity()
	assert.Equal(t, StatusStandBy3, s.Status)
	assert.True(t, s.ComStatusFlag)
	assert.False(t, s.Standby31RunFlag)

	s.Peers[0].Raw.RunLamp = false
	e.connectivity()
	assert.Equal(t, StatusStandBy3OneRun, s.Status)
	assert.True(t, s.Standby31RunFlag)
}

func stateWithPeers(id int, status ClusterStatus, a, b frame.Bits) State {
	s := newState(id, "")
	s.Mode = true
	s.Status = status
	s.Peers[0].Raw = a
	s.Peers[1].Raw = b
	return s
}

func TestElect_TrioSuppressesClaimNextToOverload(t *testing.T) {
	running := frame.Bits{Mode: true, RunLamp: true, RunRequest: true}
	overloaded := frame.Bits{Mode: true, Overload: true}

	s := stateWithPeers(1, StatusStandBy3OneRun, running, overloaded)
	engineFor(&s).standbyElection()
	assert.False(t, s.StandbyLamp)

	s = stateWithPeers(1, StatusStandBy3to2OneRun, running, overloaded)
	engineFor(&s).standbyElection()
	assert.True(t, s.StandbyLamp)
}

func TestElect_DuplicateStandbyHigherIDYields(t *testing.T) {
	idleStby := frame.Bits{Mode: true, StandbyLamp: true}
	running := frame.Bits{Mode: true, RunLamp: true}

	s := stateWithPeers(2, StatusStandBy3OneRun, idleStby, running)
	s.StandbyLamp = true
	engineFor(&s).standbyElection()
	assert.False(t, s.StandbyLamp, "device 2 yields to device 1")

	s = stateWithPeers(1, StatusStandBy3OneRun, idleStby, running)
	s.StandbyLamp = true
	engineFor(&s).standbyElection()
	assert.True(t, s.StandbyLamp, "device 1 keeps standby")
}

func TestElect_RelinquishWhenNothingRuns(t *testing.T) {
	s := stateWithPeers(1, StatusStandBy3, frame.Bits{Mode: true}, frame.Bits{Mode: true})
	s.StandbyLamp = true
	engineFor(&s).standbyElection()
	assert.False(t, s.StandbyLamp)

	s = stateWithPeers(1, StatusStandBy3, frame.Bits{Mode: true, Overload: true}, frame.Bits{Mode: true})
	s.StandbyLamp = true
	engineFor(&s).standbyElection()
	assert.True(t, s.StandbyLamp, "an overloaded peer still needs backup")
}

func TestElect_ManualAndNoConnectionClearStandby(t *testing.T) {
	for _, st := range []ClusterStatus{StatusManual, StatusNoConnection} {
		s := newState(1, "")
		s.Status = st
		s.StandbyLamp = true
		engineFor(&s).standbyElection()
		assert.False(t, s.StandbyLamp, st.String())
	}
}

func TestClusterStatusString(t *testing.T) {
	assert.Equal(t, "StandBy3_1Run", StatusStandBy3OneRun.String())
	assert.Equal(t, "StandBy3to2_1Run", StatusStandBy3to2OneRun.String())
	assert.Equal(t, "NoConnection", StatusNoConnection.String())
	assert.Equal(t, "Unknown", ClusterStatus(99).String())
}
