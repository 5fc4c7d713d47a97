// internal/cluster/commands.go
package cluster

import "github.com/tamzrod/pumpcluster/internal/device"

// Operator commands by device id. Each returns false when the device is not
// registered (or already closed).

func (r *Registry) with(id int, cmd func(*device.Controller) bool) bool {
	c, ok := r.Controller(id)
	if !ok {
		return false
	}
	return cmd(c)
}

func (r *Registry) PressStart(id int) bool {
	return r.with(id, (*device.Controller).PressStart)
}

func (r *Registry) PressStop(id int) bool {
	return r.with(id, (*device.Controller).PressStop)
}

func (r *Registry) ToggleMode(id int) bool {
	return r.with(id, (*device.Controller).ToggleMode)
}

func (r *Registry) ToggleHeat(id int) bool {
	return r.with(id, (*device.Controller).ToggleHeat)
}

func (r *Registry) PressReset(id int) bool {
	return r.with(id, (*device.Controller).PressReset)
}

func (r *Registry) InjectOverload(id int, on bool) bool {
	return r.with(id, func(c *device.Controller) bool { return c.InjectOverload(on) })
}

func (r *Registry) InjectLowPressure(id int, on bool) bool {
	return r.with(id, func(c *device.Controller) bool { return c.InjectLowPressure(on) })
}

func (r *Registry) SetRunFeedback(id int, on bool) bool {
	return r.with(id, func(c *device.Controller) bool { return c.SetRunFeedback(on) })
}

func (r *Registry) SetInputs(id int, in device.Inputs) bool {
	return r.with(id, func(c *device.Controller) bool { return c.SetInputs(in) })
}
