// internal/frame/frame.go
package frame

import "time"

// Bus frame layout constants.
// These values define the wire protocol and MUST NOT be configurable.

// ---- GEOMETRY ----

// PayloadLen is the fixed payload length of every cluster frame.
const PayloadLen = 8

// IDStep maps a device id to its bus identifier (id * IDStep).
const IDStep uint32 = 0x100

// MinDeviceID and MaxDeviceID bound the device id space.
const (
	MinDeviceID = 1
	MaxDeviceID = 3
)

// ---- BIT INDICES ----

const (
	BitStandbyStart = 0
	BitRunLamp      = 1
	BitOverload     = 2
	BitMode         = 3
	BitRunRequest   = 4
	BitResetButton  = 5
	BitStandbyLamp  = 6
	BitLowPressure  = 7
)

// Frame is one bus message.
// Extended/remote frame semantics are not used by the cluster logic.
type Frame struct {
	ID        uint32
	Data      []byte
	Timestamp time.Time
}

// Bits is the typed view of the 8-byte payload.
type Bits struct {
	StandbyStart bool
	RunLamp      bool
	Overload     bool
	Mode         bool
	RunRequest   bool
	ResetButton  bool
	StandbyLamp  bool
	LowPressure  bool
}

// IsZero reports whether every bit is clear.
func (b Bits) IsZero() bool {
	return b == Bits{}
}

// IDFor returns the bus identifier owned by a device.
// Returns 0 for ids outside the device range.
func IDFor(deviceID int) uint32 {
	if deviceID < MinDeviceID || deviceID > MaxDeviceID {
		return 0
	}
	return uint32(deviceID) * IDStep
}

// DeviceFor maps a bus identifier back to its device id.
func DeviceFor(id uint32) (int, bool) {
	if id%IDStep != 0 {
		return 0, false
	}
	dev := int(id / IDStep)
	if dev < MinDeviceID || dev > MaxDeviceID {
		return 0, false
	}
	return dev, true
}
