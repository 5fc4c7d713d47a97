// internal/bus/bus.go
package bus

import (
	"errors"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// Port is the outbound side of one device's bus attachment.
type Port interface {
	Send(f frame.Frame) error
}

// Receiver is the inbound side. Receive must not block.
type Receiver interface {
	ID() int
	Receive(f frame.Frame) bool
}

// Network attaches receivers and hands out their ports.
type Network interface {
	Attach(rx Receiver) (Port, error)
	Detach(id int)
}

var (
	ErrAttached = errors.New("bus: device already attached")
	ErrDetached = errors.New("bus: port detached")
)
