// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotFlags holds the packed output and mode bits (see Flag*).
const SlotFlags = 1

// SlotClusterStatus holds the connectivity classification code.
const SlotClusterStatus = 2

// SlotSecondsInAlarm holds the duration (in seconds) the device has been in alarm.
const SlotSecondsInAlarm = 3

// ---- RESERVED RANGE ----

// Slots 4..11 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 11

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 12

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a device in automatic operation without alarm.
const HealthOK uint16 = 1

// HealthAlarm represents an overload or a standby-start alarm.
const HealthAlarm uint16 = 2

// HealthStale represents a device whose controller is no longer running.
const HealthStale uint16 = 3

// HealthManual represents a device taken out of redundancy by the operator.
const HealthManual uint16 = 4

// ---- FLAG BITS (SlotFlags) ----

const (
	FlagRun uint16 = 1 << iota
	FlagRunLamp
	FlagStandbyLamp
	FlagOverload
	FlagLowPressure
	FlagRunRequest
	FlagStandbyStart
	FlagMode
	FlagHeat
	FlagHeaterOn
)
