// internal/device/recovery.go
package device

import "github.com/tamzrod/pumpcluster/internal/frame"

// powerRecovery sequences the first seconds after a (re)start so that two
// units never claim main at once after a shared power event.
//
// Peer frames are read raw: liveness has not settled this early.
// Unresolved windows fail safe to stop.
func (e *engine) powerRecovery() {
	s := e.st
	if !s.InitFlag {
		return
	}

	s.SequenceCounter += e.elapsed

	// A peer that was running as the standby pump keeps that duty.
	for _, p := range s.Peers {
		if p.Raw.RunLamp && p.Raw.StandbyLamp {
			e.finishRecovery(false, "peer already running as standby", p.ID)
			return
		}
	}

	// Both peers already carry main duty.
	both := true
	for _, p := range s.Peers {
		if !runningCapable(p.Raw) {
			both = false
		}
	}
	if both {
		e.finishRecovery(false, "both peers running", 0)
		return
	}

	// Another unit claimed main during this window: back it up instead.
	for _, p := range s.Peers {
		if runningCapable(p.Raw) {
			e.finishRecovery(false, "peer already running", p.ID)
			return
		}
	}
	if s.StandbyLamp {
		e.finishRecovery(false, "elected standby", 0)
		return
	}

	if s.SequenceCounter >= e.tm.ClaimAt(s.ID) && s.Mode && !s.OverloadIn {
		e.finishRecovery(true, "sequence claim", 0)
		return
	}

	if s.SequenceCounter >= e.tm.RecoveryWindow {
		e.finishRecovery(false, "recovery window expired", 0)
	}
}

func (e *engine) finishRecovery(run bool, reason string, peer int) {
	s := e.st
	s.Run = run
	s.InitFlag = false

	attrs := []any{"device", s.ID, "run", run, "reason", reason, "after", s.SequenceCounter}
	if peer != 0 {
		attrs = append(attrs, "peer", peer)
	}
	e.log.Info("power recovery resolved", attrs...)
}

func runningCapable(b frame.Bits) bool {
	return b.RunLamp && b.Mode
}
