// internal/device/request.go
package device

import "github.com/tamzrod/pumpcluster/internal/frame"

// runRequestReceive promotes the standby unit when any peer asks for a pump.
// The latch clears only once every peer has released its request.
func (e *engine) runRequestReceive() {
	s := e.st
	requested := s.anyPeer(func(b frame.Bits) bool { return b.RunRequest })

	if s.RequestFlag {
		if !requested {
			s.RequestFlag = false
			e.log.Debug("run request released", "device", s.ID)
		}
		return
	}

	if !requested || s.Overload || !s.StandbyLamp || !s.Mode {
		return
	}

	s.RequestFlag = true
	if !s.Run {
		s.Run = true
		s.FailoverStart = true
		e.log.Info("run request accepted, starting as standby", "device", s.ID)
	}
}

// runRequestSend drives this unit's own run_request bit.
// Best-effort broadcast: there is no acknowledgment and no retry.
func (e *engine) runRequestSend() {
	s := e.st

	lowPressure := s.LowPressureIn && s.Run && s.BuildUpDone
	overload := s.Overload && s.RunRequestCounter >= e.tm.RunRequestTimeout
	takenOver := s.anyPeer(func(b frame.Bits) bool { return b.RunLamp && b.StandbyLamp })

	want := (lowPressure || overload) && !takenOver && s.Mode
	if want == s.RunRequest {
		return
	}

	s.RunRequest = want
	e.log.Info("run request changed",
		"device", s.ID,
		"asserted", want,
		"low_pressure", lowPressure,
		"overload", overload,
		"taken_over", takenOver,
	)
}
