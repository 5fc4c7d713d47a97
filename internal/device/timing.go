// internal/device/timing.go
package device

import (
	"errors"
	"time"
)

// Timing holds every timer target of the control logic.
type Timing struct {
	LogicTick    time.Duration
	TransmitTick time.Duration

	BuildUp           time.Duration // build-up target for the main pump
	ShortBuildUp      time.Duration // build-up target for a standby start or a running pump
	Parallel          time.Duration
	HeatingOn         time.Duration
	RunRequestTimeout time.Duration
	CommFaultTimeout  time.Duration
	ResetHold         time.Duration

	// Power-recovery window and staggered claim threshold.
	RecoveryWindow    time.Duration
	RecoveryClaimBase time.Duration
	RecoveryClaimStep time.Duration
}

// DefaultTiming returns the reference timer values.
func DefaultTiming() Timing {
	return Timing{
		LogicTick:    100 * time.Millisecond,
		TransmitTick: 300 * time.Millisecond,

		BuildUp:           5 * time.Second,
		ShortBuildUp:      3 * time.Second,
		Parallel:          10 * time.Second,
		HeatingOn:         3 * time.Second,
		RunRequestTimeout: 1 * time.Second,
		CommFaultTimeout:  1 * time.Second,
		ResetHold:         3 * time.Second,

		RecoveryWindow:    6300 * time.Millisecond,
		RecoveryClaimBase: 1 * time.Second,
		RecoveryClaimStep: 1 * time.Second,
	}
}

// ClaimAt returns the sequence time at which a device claims run after power recovery.
func (t Timing) ClaimAt(id int) time.Duration {
	return t.RecoveryClaimBase + time.Duration(id)*t.RecoveryClaimStep
}

// Validate rejects timing sets the pipeline cannot run with.
func (t Timing) Validate() error {
	if t.LogicTick <= 0 || t.TransmitTick <= 0 {
		return errors.New("device: tick intervals must be > 0")
	}
	if t.BuildUp <= 0 || t.ShortBuildUp <= 0 || t.Parallel <= 0 {
		return errors.New("device: build-up and parallel times must be > 0")
	}
	if t.CommFaultTimeout <= 0 || t.RunRequestTimeout <= 0 {
		return errors.New("device: comm-fault and run-request timeouts must be > 0")
	}
	if t.RecoveryWindow <= 0 {
		return errors.New("device: recovery window must be > 0")
	}
	return nil
}
