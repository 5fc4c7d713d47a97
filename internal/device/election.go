// internal/device/election.go
package device

import "github.com/tamzrod/pumpcluster/internal/frame"

// connectivity derives the cluster status from the peer error flags.
func (e *engine) connectivity() {
	s := e.st

	prev := s.Status
	next := e.deriveStatus(prev)

	// tie-break memory for later degraded states
	switch next {
	case StatusStandBy3:
		s.ComStatusFlag = true
		s.Standby31RunFlag = false
	case StatusStandBy3OneRun:
		s.ComStatusFlag = true
		s.Standby31RunFlag = true
	case StatusStandBy2:
		s.ComStatusFlag = false
		s.Standby31RunFlag = false
	}

	if next != prev {
		e.log.Info("cluster status changed", "device", s.ID, "from", prev.String(), "to", next.String())
	}
	s.Status = next
}

func (e *engine) deriveStatus(prev ClusterStatus) ClusterStatus {
	s := e.st

	if !s.Mode {
		return StatusManual
	}

	switch s.faultedPeers() {
	case 0:
		running := 0
		if s.Run {
			running++
		}
		for _, p := range s.Peers {
			if p.View().RunLamp {
				running++
			}
		}
		if running == 1 {
			return StatusStandBy3OneRun
		}
		return StatusStandBy3

	case 1:
		switch prev {
		case StatusStandBy3:
			return StatusStandBy3to2
		case StatusStandBy3OneRun:
			return StatusStandBy3to2OneRun
		case StatusStandBy2, StatusStandBy3to2, StatusStandBy3to2OneRun:
			return prev
		case StatusNoConnection, StatusManual:
			if !s.ComStatusFlag {
				return StatusStandBy2
			}
			if s.Standby31RunFlag {
				return StatusStandBy3to2OneRun
			}
			return StatusStandBy3to2
		}
		return StatusStandBy2

	default:
		return StatusNoConnection
	}
}

// standbyElection sets standby_lamp from the priority table of the current status.
// Heuristic and not linearizable: short windows with zero or two standby units
// are possible.
func (e *engine) standbyElection() {
	switch e.st.Status {
	case StatusManual:
		e.setStandby(false, "manual mode")
	case StatusNoConnection:
		e.setStandby(false, "no peer connection")
	case StatusStandBy2, StatusStandBy3to2, StatusStandBy3to2OneRun:
		e.elect(false)
	case StatusStandBy3, StatusStandBy3OneRun:
		e.elect(true)
	}
}

// elect applies the rules in priority order; the first match wins.
func (e *engine) elect(trio bool) {
	s := e.st

	// (a) the unit that took over is running on standby and the local reset
	// button was pressed: come back as the standby unit
	if s.ResetButton && !s.Run && !s.StandbyLamp && !s.Overload &&
		s.anyPeer(runningStandby) {
		s.ResetButton = false
		s.ResetCounter = 0
		e.setStandby(true, "recovered after reset")
		return
	}

	// (b) running on standby and a peer has claimed the standby role
	if s.Run && s.StandbyLamp && s.anyPeer(idleStandby) {
		e.setStandby(false, "peer took over standby")
		return
	}

	// (c) a standby-capable peer runs without backup and this unit is idle
	if !s.Run && !s.StandbyLamp && !s.Overload &&
		s.anyPeer(runningCapable) && !s.anyPeer(hasStandby) {
		if trio && s.allPeers(overloadAdjacent) {
			return
		}
		if !e.firstIdleCandidate() {
			return
		}
		e.setStandby(true, "backing up running peer")
		return
	}

	// (d) the backed-up peer stopped without overload
	if s.StandbyLamp && !s.Run &&
		!s.anyPeer(func(b frame.Bits) bool { return b.RunLamp || b.Overload }) {
		e.setStandby(false, "peer stopped")
		return
	}

	// (e) two idle standby units: the higher id yields
	if s.StandbyLamp && !s.Run {
		for _, p := range s.Peers {
			if p.ID < s.ID && idleStandby(p.View()) {
				e.setStandby(false, "duplicate standby")
				return
			}
		}
	}
}

// firstIdleCandidate reports whether no lower-id peer is also an idle candidate.
func (e *engine) firstIdleCandidate() bool {
	s := e.st
	for _, p := range s.Peers {
		v := p.View()
		if p.ID < s.ID && v.Mode && !v.RunLamp && !v.StandbyLamp && !v.Overload {
			return false
		}
	}
	return true
}

func (e *engine) setStandby(on bool, reason string) {
	s := e.st
	if s.StandbyLamp == on {
		return
	}
	s.StandbyLamp = on
	e.log.Info("standby changed", "device", s.ID, "standby", on, "reason", reason, "status", s.Status.String())
}

// ---- peer predicates ----

func runningStandby(b frame.Bits) bool { return b.RunLamp && b.StandbyLamp }

func idleStandby(b frame.Bits) bool { return b.StandbyLamp && !b.RunLamp }

func hasStandby(b frame.Bits) bool { return b.StandbyLamp }

func overloadAdjacent(b frame.Bits) bool { return b.Overload || b.RunRequest }
