// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// Load reads a YAML file over Defaults(). Unknown keys are rejected.
// Load does not validate; callers run Validate then Normalize.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over Defaults().
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Device converts the millisecond fields into the controller timer set.
func (t TimingConfig) Device() device.Timing {
	return device.Timing{
		LogicTick:    ms(t.LogicTickMs),
		TransmitTick: ms(t.TransmitTickMs),

		BuildUp:           ms(t.BuildUpMs),
		ShortBuildUp:      ms(t.ShortBuildUpMs),
		Parallel:          ms(t.ParallelMs),
		HeatingOn:         ms(t.HeatingOnMs),
		RunRequestTimeout: ms(t.RunRequestTimeoutMs),
		CommFaultTimeout:  ms(t.CommFaultTimeoutMs),
		ResetHold:         ms(t.ResetHoldMs),

		RecoveryWindow:    ms(t.RecoveryWindowMs),
		RecoveryClaimBase: ms(t.RecoveryClaimBaseMs),
		RecoveryClaimStep: ms(t.RecoveryClaimStepMs),
	}
}

// Timeout returns the connect/publish timeout.
func (m MQTTConfig) Timeout() time.Duration { return ms(m.TimeoutMs) }

// Timeout returns the Modbus request timeout.
func (io IOConfig) Timeout() time.Duration { return ms(io.TimeoutMs) }

// Interval returns the poll interval.
func (io IOConfig) Interval() time.Duration { return ms(io.IntervalMs) }

// Timeout returns the status memory request timeout.
func (s StatusMemoryConfig) Timeout() time.Duration { return ms(s.TimeoutMs) }
