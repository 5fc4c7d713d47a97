// internal/writer/builder.go
package writer

import (
	cfg "github.com/tamzrod/pumpcluster/internal/config"
	wmodbus "github.com/tamzrod/pumpcluster/internal/writer/modbus"
)

// BuildStatusWriters creates one status writer per opted-in device, all
// sharing a single connection to status memory.
// Returns an empty map and a no-op closer when no device opted in.
func BuildStatusWriters(c *cfg.Config) (map[int]StatusWriter, func() error, error) {
	writers := make(map[int]StatusWriter)

	optedIn := false
	for _, d := range c.Cluster.Devices {
		if d.StatusSlot != nil {
			optedIn = true
			break
		}
	}
	if !optedIn {
		return writers, func() error { return nil }, nil
	}

	cli, err := wmodbus.DialStatusMemory(wmodbus.Config{
		Endpoint: c.StatusMemory.Endpoint,
		Timeout:  c.StatusMemory.Timeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	for _, d := range c.Cluster.Devices {
		if d.StatusSlot == nil {
			continue
		}
		writers[d.ID] = NewDeviceStatusWriter(StatusPlan{
			Endpoint:   c.StatusMemory.Endpoint,
			UnitID:     c.StatusMemory.UnitID,
			BaseSlot:   *d.StatusSlot,
			DeviceName: d.DeviceName,
		}, cli)
	}

	return writers, cli.Close, nil
}
