// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// ReadBlock describes one Modbus read geometry.
// Geometry only: no semantics.
type ReadBlock struct {
	FC       uint8
	Address  uint16
	Quantity uint16
}

// Points maps each field input to its bit address on the I/O module.
type Points struct {
	Overload    uint16
	LowPressure uint16
	RunFeedback *uint16 // optional
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	DeviceID int
	At       time.Time

	Inputs device.Inputs
	Err    error // non-nil means the poll cycle failed; Inputs is zero
}
