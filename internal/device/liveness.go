// internal/device/liveness.go
package device

import (
	"time"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// advancePeers ages every peer fault counter by the elapsed logic time.
// Called once per pass, before the inbox is drained.
func (e *engine) advancePeers(elapsed time.Duration) {
	for i := range e.st.Peers {
		p := &e.st.Peers[i]
		// saturate just past the timeout
		if p.FaultCounter <= e.tm.CommFaultTimeout {
			p.FaultCounter += elapsed
		}
	}
}

// accept stores a decoded frame into the sender's slot and resets its counter.
func (e *engine) accept(sender int, b frame.Bits) {
	p, ok := e.st.Peer(sender)
	if !ok {
		return
	}
	p.Raw = b
	p.FaultCounter = 0
}

// commFault updates the per-peer error flags.
// A peer that goes silent while running hands its duty to the standby unit.
func (e *engine) commFault() {
	s := e.st

	for i := range s.Peers {
		p := &s.Peers[i]
		timedOut := p.FaultCounter > e.tm.CommFaultTimeout

		switch {
		case timedOut && !p.Lost:
			lastRun := p.Raw.RunLamp

			p.Lost = true
			p.Raw = frame.Bits{}

			e.log.Warn("peer communication lost",
				"device", s.ID,
				"peer", p.ID,
				"last_run", lastRun,
			)

			if s.StandbyLamp && lastRun && !s.Run {
				s.Run = true
				s.FailoverStart = true
				e.log.Warn("fail-over: taking over running duty",
					"device", s.ID,
					"peer", p.ID,
				)
			}

		case !timedOut && p.Lost:
			p.Lost = false
			e.log.Info("peer communication restored", "device", s.ID, "peer", p.ID)
		}

		manual := !p.Lost && !p.Raw.Mode
		if manual != p.Manual && !p.Lost {
			e.log.Debug("peer mode changed", "device", s.ID, "peer", p.ID, "manual", manual)
		}
		p.Manual = manual
	}
}
