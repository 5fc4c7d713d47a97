// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/pumpcluster/internal/status"
)

var ErrBlockWrite = errors.New("writer modbus: write outside one status block")

// StatusMemory is the holding-register memory that mirrors device status blocks.
// One TCP connection is shared by every device block on the endpoint, so writes
// are serialized (the unit id is set per request).
//
// A write covers either a full block or a single slot of one block; it never
// spans two devices.
type StatusMemory struct {
	endpoint string

	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// DialStatusMemory connects to the status memory endpoint.
func DialStatusMemory(cfg Config) (*StatusMemory, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: status memory endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("writer modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &StatusMemory{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (m *StatusMemory) Endpoint() string { return m.endpoint }

func (m *StatusMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler.Close()
}

// WriteRegisters writes status registers (FC 16) starting at addr.
func (m *StatusMemory) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if err := checkBlockWrite(regs); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.handler.SlaveId = unitID

	if _, err := m.client.WriteMultipleRegisters(addr, uint16(len(regs)), PackRegisters(regs)); err != nil {
		return fmt.Errorf("writer modbus: %s unit=%d addr=%d count=%d: %w", m.endpoint, unitID, addr, len(regs), err)
	}
	return nil
}

func checkBlockWrite(regs []uint16) error {
	if len(regs) == 0 || len(regs) > status.SlotsPerDevice {
		return fmt.Errorf("%w: %d registers", ErrBlockWrite, len(regs))
	}
	return nil
}

// PackRegisters lays registers out big-endian, as the wire expects.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
