// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/pumpcluster/internal/config"
	pmodbus "github.com/tamzrod/pumpcluster/internal/poller/modbus"
)

// Build constructs a Poller for one device and wires Modbus client lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// No retries, no loops, no semantics.
func Build(d cfg.DeviceConfig) (*Poller, func() error, error) {
	ioc := d.IO

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		c, err := pmodbus.New(pmodbus.Config{
			Endpoint: ioc.Endpoint,
			UnitID:   ioc.UnitID,
			Timeout:  ioc.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	p, err := New(
		Config{
			DeviceID: d.ID,
			Interval: ioc.Interval(),
			FC:       ioc.FC,
			Points: Points{
				Overload:    ioc.Overload,
				LowPressure: ioc.LowPressure,
				RunFeedback: ioc.RunFeedback,
			},
		},
		client,
		factory,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, p.Close, nil
}
