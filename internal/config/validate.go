// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/pumpcluster/internal/frame"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// CLUSTER MEMBERSHIP
	// ------------------------------------------------------------

	devs := cfg.Cluster.Devices
	if len(devs) == 0 {
		return fmt.Errorf("config: cluster.devices: at least one device required")
	}

	seen := make(map[int]bool)
	maxID := 0
	for _, d := range devs {
		if d.ID < frame.MinDeviceID || d.ID > frame.MaxDeviceID {
			return fmt.Errorf(
				"config: device %d: id out of range %d..%d",
				d.ID,
				frame.MinDeviceID,
				frame.MaxDeviceID,
			)
		}
		if seen[d.ID] {
			return fmt.Errorf("config: device %d: duplicate id", d.ID)
		}
		seen[d.ID] = true
		if d.ID > maxID {
			maxID = d.ID
		}

		if d.InboxSize < 0 {
			return fmt.Errorf("config: device %d: inbox_size must be >= 0", d.ID)
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(d.DeviceName); i++ {
			if d.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"config: device %d: device_name must contain ASCII characters only",
					d.ID,
				)
			}
		}

		if err := validateIO(d); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	tm := cfg.Timing.Device()
	if err := tm.Validate(); err != nil {
		return fmt.Errorf("config: timing: %w", err)
	}
	if cfg.Timing.HeatingOnMs < 0 || cfg.Timing.ResetHoldMs < 0 {
		return fmt.Errorf("config: timing: heating_on_ms and reset_hold_ms must be >= 0")
	}
	if cfg.Timing.RecoveryClaimBaseMs < 0 || cfg.Timing.RecoveryClaimStepMs < 0 {
		return fmt.Errorf("config: timing: recovery claim base/step must be >= 0")
	}
	if claim := tm.ClaimAt(maxID); claim > tm.RecoveryWindow {
		return fmt.Errorf(
			"config: timing: recovery claim of device %d (%s) falls outside recovery window (%s)",
			maxID,
			claim,
			tm.RecoveryWindow,
		)
	}

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	switch cfg.Transport.Kind {
	case TransportLoopback:
	case TransportMQTT:
		if err := validateMQTT("transport.mqtt", cfg.Transport.MQTT); err != nil {
			return err
		}
	default:
		return fmt.Errorf(
			"config: transport.kind %q: must be %q or %q",
			cfg.Transport.Kind,
			TransportLoopback,
			TransportMQTT,
		)
	}

	// ------------------------------------------------------------
	// EVENTS
	// ------------------------------------------------------------

	if cfg.Events.QueueSize <= 0 {
		return fmt.Errorf("config: events.queue_size must be > 0")
	}
	if cfg.Events.MQTT != nil {
		if err := validateMQTT("events.mqtt", *cfg.Events.MQTT); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | unit_id | status_slot
	statusOwner := make(map[string]int)

	for _, d := range devs {
		// status is opt-in
		if d.StatusSlot == nil {
			continue
		}

		if cfg.StatusMemory.Endpoint == "" {
			return fmt.Errorf(
				"config: device %d: status_slot is set but status_memory.endpoint is empty",
				d.ID,
			)
		}

		key := fmt.Sprintf(
			"%s|%d|%d",
			cfg.StatusMemory.Endpoint,
			cfg.StatusMemory.UnitID,
			*d.StatusSlot,
		)

		if prev, exists := statusOwner[key]; exists {
			return fmt.Errorf(
				"config: status_slot collision: endpoint=%s unit_id=%d slot=%d used by devices %d and %d",
				cfg.StatusMemory.Endpoint,
				cfg.StatusMemory.UnitID,
				*d.StatusSlot,
				prev,
				d.ID,
			)
		}

		statusOwner[key] = d.ID
	}

	return nil
}

func validateIO(d DeviceConfig) error {
	io := d.IO
	if io == nil {
		return nil
	}

	if strings.TrimSpace(io.Endpoint) == "" {
		return fmt.Errorf("config: device %d: io.endpoint required", d.ID)
	}
	if io.FC != 0 && io.FC != 1 && io.FC != 2 {
		return fmt.Errorf("config: device %d: io.fc %d: must be 1 (coils) or 2 (discrete inputs)", d.ID, io.FC)
	}
	if io.TimeoutMs < 0 || io.IntervalMs < 0 {
		return fmt.Errorf("config: device %d: io timeout_ms and interval_ms must be >= 0", d.ID)
	}

	// one input per address
	if io.Overload == io.LowPressure {
		return fmt.Errorf("config: device %d: io.overload and io.low_pressure share address %d", d.ID, io.Overload)
	}
	if io.RunFeedback != nil {
		rf := *io.RunFeedback
		if rf == io.Overload || rf == io.LowPressure {
			return fmt.Errorf("config: device %d: io.run_feedback shares address %d", d.ID, rf)
		}
	}
	return nil
}

func validateMQTT(path string, m MQTTConfig) error {
	if strings.TrimSpace(m.Broker) == "" {
		return fmt.Errorf("config: %s.broker required", path)
	}
	if m.QoS > 2 {
		return fmt.Errorf("config: %s.qos %d: must be 0..2", path, m.QoS)
	}
	if strings.ContainsAny(m.TopicPrefix, "+#") {
		return fmt.Errorf("config: %s.topic_prefix %q: wildcards not allowed", path, m.TopicPrefix)
	}
	if m.TimeoutMs < 0 {
		return fmt.Errorf("config: %s.timeout_ms must be >= 0", path)
	}
	return nil
}
