// internal/device/pressure.go
package device

import (
	"time"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// lowPressure runs the build-up timer and the bounded parallel operation
// window while the low-pressure input holds.
func (e *engine) lowPressure() {
	s := e.st

	if !s.LowPressureIn {
		if e.edge.lowPressureFall {
			e.log.Info("pressure recovered", "device", s.ID)
		}
		s.clearLowPressure()
		return
	}

	// --------------------
	// Timers advance first; arming below restarts them.
	// --------------------

	if s.BuildUpActive {
		s.BuildUpCounter += e.elapsed
	}
	if s.ParallelActive {
		s.ParallelCounter += e.elapsed
	}

	// --------------------
	// Build-up arming
	// --------------------

	switch {
	case e.edge.runRise:
		// run (re)started under low pressure
		target := e.tm.BuildUp
		if s.StandbyLamp {
			target = e.tm.ShortBuildUp
		}
		s.armBuildUp(target)

	case e.edge.lowPressureRise && s.Run:
		// pressure dropped while running continuously
		s.armBuildUp(e.tm.ShortBuildUp)
	}

	if !s.Run {
		s.BuildUpActive = false
		s.BuildUpCounter = 0
		s.BuildUpDone = false
		s.ParallelActive = false
		s.ParallelCounter = 0
	}

	if !s.ParallelStart && (s.Run || s.anyPeer(mainRunning)) {
		s.ParallelStart = true
	}

	if !s.Run {
		return
	}

	// --------------------
	// Parallel operation
	// --------------------

	if s.BuildUpActive && s.BuildUpCounter >= s.BuildUpTarget {
		s.BuildUpActive = false
		s.BuildUpCounter = 0
		s.BuildUpDone = true

		if s.ParallelStart && !s.ParallelActive {
			s.ParallelActive = true
			s.ParallelCounter = 0
			e.log.Warn("build-up expired, parallel operation", "device", s.ID)
		}
	}

	if s.ParallelStart && !s.ParallelActive && s.anyPeer(runningCapable) {
		s.ParallelActive = true
		s.ParallelCounter = 0
		e.log.Info("parallel operation with running peer", "device", s.ID)
	}

	if s.ParallelActive && s.ParallelCounter >= e.tm.Parallel {
		e.log.Warn("parallel time expired under low pressure, stopping",
			"device", s.ID,
			"parallel", s.ParallelCounter,
		)
		s.Run = false
		s.clearLowPressure()
	}
}

func (s *State) armBuildUp(target time.Duration) {
	s.BuildUpTarget = target
	s.BuildUpCounter = 0
	s.BuildUpActive = true
	s.BuildUpDone = false
}

func (s *State) clearLowPressure() {
	s.BuildUpActive = false
	s.BuildUpCounter = 0
	s.BuildUpDone = false
	s.ParallelStart = false
	s.ParallelActive = false
	s.ParallelCounter = 0
}

// mainRunning matches a peer carrying main duty: running, not on standby.
func mainRunning(b frame.Bits) bool {
	return b.RunLamp && !b.StandbyLamp
}
