// internal/status/snapshot.go
package status

import "github.com/tamzrod/pumpcluster/internal/device"

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	Flags          uint16
	ClusterStatus  uint16
	SecondsInAlarm uint16
}

// FromEvent derives health, flags and cluster status from a state-change event.
// SecondsInAlarm is owned by the caller's 1 Hz clock and left zero.
func FromEvent(ev device.Event) Snapshot {
	var f uint16
	set := func(on bool, bit uint16) {
		if on {
			f |= bit
		}
	}
	set(ev.Run, FlagRun)
	set(ev.RunLamp, FlagRunLamp)
	set(ev.StandbyLamp, FlagStandbyLamp)
	set(ev.Overload, FlagOverload)
	set(ev.LowPressure, FlagLowPressure)
	set(ev.RunRequest, FlagRunRequest)
	set(ev.StandbyStart, FlagStandbyStart)
	set(ev.Mode, FlagMode)
	set(ev.Heat, FlagHeat)
	set(ev.HeaterOn, FlagHeaterOn)

	health := HealthOK
	switch {
	case ev.Overload || ev.StandbyStart:
		health = HealthAlarm
	case !ev.Mode:
		health = HealthManual
	}

	return Snapshot{
		Health:        health,
		Flags:         f,
		ClusterStatus: uint16(ev.Status),
	}
}

// InAlarm reports whether the seconds-in-alarm clock should run.
func (s Snapshot) InAlarm() bool {
	return s.Health == HealthAlarm
}
