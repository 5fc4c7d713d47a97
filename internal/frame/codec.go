// internal/frame/codec.go
package frame

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPayloadLength is returned for payloads that are not exactly PayloadLen bytes.
	ErrPayloadLength = errors.New("frame: payload length must be 8")

	// ErrUnknownID is returned for identifiers that do not map to a device.
	ErrUnknownID = errors.New("frame: identifier does not map to a device")
)

// Encode packs the output bits of one device into a frame.
// No IO. No side effects.
func Encode(deviceID int, b Bits, at time.Time) Frame {
	data := make([]byte, PayloadLen)

	data[BitStandbyStart] = bit(b.StandbyStart)
	data[BitRunLamp] = bit(b.RunLamp)
	data[BitOverload] = bit(b.Overload)
	data[BitMode] = bit(b.Mode)
	data[BitRunRequest] = bit(b.RunRequest)
	data[BitResetButton] = bit(b.ResetButton)
	data[BitStandbyLamp] = bit(b.StandbyLamp)
	data[BitLowPressure] = bit(b.LowPressure)

	return Frame{
		ID:        IDFor(deviceID),
		Data:      data,
		Timestamp: at,
	}
}

// Decode unpacks a frame into the sender's device id and its bits.
// Any non-zero byte reads as a set bit.
func Decode(f Frame) (int, Bits, error) {
	if len(f.Data) != PayloadLen {
		return 0, Bits{}, fmt.Errorf("%w (got %d)", ErrPayloadLength, len(f.Data))
	}

	dev, ok := DeviceFor(f.ID)
	if !ok {
		return 0, Bits{}, fmt.Errorf("%w: 0x%03x", ErrUnknownID, f.ID)
	}

	return dev, PayloadBits(f.Data), nil
}

// PayloadBits reads a raw payload without validating the identifier.
// Short payloads read missing bytes as zero.
func PayloadBits(data []byte) Bits {
	at := func(i int) bool {
		return i < len(data) && data[i] != 0
	}

	return Bits{
		StandbyStart: at(BitStandbyStart),
		RunLamp:      at(BitRunLamp),
		Overload:     at(BitOverload),
		Mode:         at(BitMode),
		RunRequest:   at(BitRunRequest),
		ResetButton:  at(BitResetButton),
		StandbyLamp:  at(BitStandbyLamp),
		LowPressure:  at(BitLowPressure),
	}
}

func bit(v bool) byte {
	if v {
		return 1
	}
	return 0
}
