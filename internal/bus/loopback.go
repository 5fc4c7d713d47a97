// internal/bus/loopback.go
package bus

import (
	"fmt"
	"sync"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// Loopback is an in-process broadcast bus.
// Every frame sent on one port is delivered to every other attached receiver.
type Loopback struct {
	mu  sync.RWMutex
	rxs map[int]Receiver
}

func NewLoopback() *Loopback {
	return &Loopback{rxs: make(map[int]Receiver)}
}

var _ Network = (*Loopback)(nil)

func (l *Loopback) Attach(rx Receiver) (Port, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := rx.ID()
	if _, ok := l.rxs[id]; ok {
		return nil, fmt.Errorf("%w: id=%d", ErrAttached, id)
	}
	l.rxs[id] = rx
	return &loopPort{bus: l, id: id}, nil
}

func (l *Loopback) Detach(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rxs, id)
}

// broadcast delivers f to everyone but the sender.
// Receivers never block, so the read lock is held across delivery.
func (l *Loopback) broadcast(from int, f frame.Frame) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.rxs[from]; !ok {
		return fmt.Errorf("%w: id=%d", ErrDetached, from)
	}
	for id, rx := range l.rxs {
		if id == from {
			continue
		}
		// each receiver gets its own payload copy
		cp := f
		cp.Data = append([]byte(nil), f.Data...)
		rx.Receive(cp)
	}
	return nil
}

type loopPort struct {
	bus *Loopback
	id  int
}

func (p *loopPort) Send(f frame.Frame) error {
	return p.bus.broadcast(p.id, f)
}
