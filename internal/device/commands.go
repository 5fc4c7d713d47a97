// internal/device/commands.go
package device

// Operator commands. Each one mutates the state under the controller lock and
// runs one immediate pass. A command that would not change anything is a no-op
// without a pass. Every command returns false once the controller is closed.

// PressStart requests the pump to run.
func (c *Controller) PressStart() bool {
	return c.command(func(s *State) bool {
		if s.Run {
			return false
		}
		if s.OverloadIn || s.Overload {
			c.log.Warn("start refused while overloaded", "device", s.ID)
			return false
		}
		s.Run = true
		return true
	})
}

// PressStop stops the pump.
func (c *Controller) PressStop() bool {
	return c.command(func(s *State) bool {
		if !s.Run {
			return false
		}
		s.Run = false
		return true
	})
}

// ToggleMode switches between Manual and StandbyCapable.
func (c *Controller) ToggleMode() bool {
	return c.command(func(s *State) bool {
		s.Mode = !s.Mode
		return true
	})
}

// ToggleHeat switches the anti-condensation heater request.
func (c *Controller) ToggleHeat() bool {
	return c.command(func(s *State) bool {
		s.Heat = !s.Heat
		return true
	})
}

// InjectOverload sets the overload input.
func (c *Controller) InjectOverload(on bool) bool {
	return c.command(func(s *State) bool {
		if s.OverloadIn == on {
			return false
		}
		s.OverloadIn = on
		return true
	})
}

// InjectLowPressure sets the low-pressure input.
func (c *Controller) InjectLowPressure(on bool) bool {
	return c.command(func(s *State) bool {
		if s.LowPressureIn == on {
			return false
		}
		s.LowPressureIn = on
		return true
	})
}

// SetRunFeedback sets the run feedback input.
func (c *Controller) SetRunFeedback(on bool) bool {
	return c.command(func(s *State) bool {
		if s.RunFeedbackIn == on {
			return false
		}
		s.RunFeedbackIn = on
		return true
	})
}

// PressReset asserts the reset button pulse and acknowledges the standby-start alarm.
func (c *Controller) PressReset() bool {
	return c.command(func(s *State) bool {
		if s.ResetButton && !s.FailoverStart {
			return false
		}
		s.ResetButton = true
		s.ResetCounter = 0
		s.FailoverStart = false
		return true
	})
}

// Inputs is one sample of the field inputs.
type Inputs struct {
	Overload    bool
	LowPressure bool
	RunFeedback bool
}

// SetInputs applies a field input sample in a single pass.
func (c *Controller) SetInputs(in Inputs) bool {
	return c.command(func(s *State) bool {
		if s.OverloadIn == in.Overload && s.LowPressureIn == in.LowPressure && s.RunFeedbackIn == in.RunFeedback {
			return false
		}
		s.OverloadIn = in.Overload
		s.LowPressureIn = in.LowPressure
		s.RunFeedbackIn = in.RunFeedback
		return true
	})
}

func (c *Controller) command(apply func(s *State) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if apply(&c.st) {
		c.passLocked(0)
	}
	return true
}
