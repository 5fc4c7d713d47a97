// internal/device/overload.go
package device

// overload reacts to the overload input.
// An overloaded unit neither runs nor offers standby backup.
func (e *engine) overload() {
	s := e.st

	switch {
	case s.OverloadIn && !s.Overload:
		if s.Run {
			s.Run = false
			s.StopOverload = true
		}
		s.Overload = true

		s.ParallelCounter = 0
		s.ParallelActive = false
		s.ResetButton = false
		s.ResetCounter = 0
		s.RunRequestCounter = 0

		if s.StandbyLamp {
			s.StandbyLamp = false
			s.StandbyOverload = true
		}

		e.log.Warn("overload active",
			"device", s.ID,
			"stopped", s.StopOverload,
			"standby_released", s.StandbyOverload,
		)

	case !s.OverloadIn && s.Overload:
		s.Overload = false
		s.StandbyOverload = false
		s.StopOverload = false
		s.RunRequestCounter = 0

		e.log.Info("overload cleared", "device", s.ID)

	case s.Overload:
		// nothing may restart an overloaded pump
		if s.Run {
			s.Run = false
			s.StopOverload = true
		}
		if s.RunRequestCounter < e.tm.RunRequestTimeout {
			s.RunRequestCounter += e.elapsed
		}
	}
}
