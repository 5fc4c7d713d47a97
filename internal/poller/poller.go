// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)          // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error) // FC 2
}

// Factory dials a fresh client. ONE attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID int
	Interval time.Duration
	FC       uint8
	Points   Points
}

// Poller is a dumb, clock-driven reader of one device's field inputs.
type Poller struct {
	cfg     Config
	block   ReadBlock
	client  Client
	factory Factory
	now     func() time.Time
}

// New creates a poller with immutable config.
// client may be nil when factory is set; the first cycle dials.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.DeviceID == 0 {
		return nil, errors.New("poller: device id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.FC != 1 && cfg.FC != 2 {
		return nil, fmt.Errorf("poller: unsupported function code %d", cfg.FC)
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{
		cfg:     cfg,
		block:   geometry(cfg.FC, cfg.Points),
		client:  client,
		factory: factory,
		now:     time.Now,
	}, nil
}

// geometry covers every point with a single contiguous read.
func geometry(fc uint8, p Points) ReadBlock {
	lo, hi := p.Overload, p.Overload
	addrs := []uint16{p.LowPressure}
	if p.RunFeedback != nil {
		addrs = append(addrs, *p.RunFeedback)
	}
	for _, a := range addrs {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	return ReadBlock{FC: fc, Address: lo, Quantity: hi - lo + 1}
}

// Block returns the read geometry.
func (p *Poller) Block() ReadBlock { return p.block }

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle and drops the client,
// so the next cycle reconnects through the factory.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		DeviceID: p.cfg.DeviceID,
		At:       p.now(),
	}

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = fmt.Errorf("poller: connect: %w", err)
			return res
		}
		p.client = c
	}

	var (
		bits []bool
		err  error
	)
	switch p.block.FC {
	case 1:
		bits, err = p.client.ReadCoils(p.block.Address, p.block.Quantity)
	case 2:
		bits, err = p.client.ReadDiscreteInputs(p.block.Address, p.block.Quantity)
	}
	if err == nil && len(bits) < int(p.block.Quantity) {
		err = fmt.Errorf("poller: short read: got %d bits, want %d", len(bits), p.block.Quantity)
	}
	if err != nil {
		p.drop()
		res.Err = err
		return res
	}

	at := func(addr uint16) bool { return bits[addr-p.block.Address] }

	res.Inputs = device.Inputs{
		Overload:    at(p.cfg.Points.Overload),
		LowPressure: at(p.cfg.Points.LowPressure),
	}
	if rf := p.cfg.Points.RunFeedback; rf != nil {
		res.Inputs.RunFeedback = at(*rf)
	}
	return res
}

// drop discards a dead client. Only clients that came from the factory are
// replaceable; an injected client without a factory is kept.
func (p *Poller) drop() {
	if p.factory == nil {
		return
	}
	if c, ok := p.client.(io.Closer); ok {
		_ = c.Close()
	}
	p.client = nil
}

// Close releases the current client, if any.
func (p *Poller) Close() error {
	if c, ok := p.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
