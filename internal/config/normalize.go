// internal/config/normalize.go
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tamzrod/pumpcluster/internal/device"
)

const (
	defaultIOFC         = 2
	defaultIOIntervalMs = 100
	defaultIOTimeoutMs  = 500
	defaultMQTTPrefix   = "pumpcluster"
	defaultMQTTTimeout  = 5000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// devices are registered in id order
	sort.Slice(cfg.Cluster.Devices, func(i, j int) bool {
		return cfg.Cluster.Devices[i].ID < cfg.Cluster.Devices[j].ID
	})

	for di := range cfg.Cluster.Devices {
		d := &cfg.Cluster.Devices[di]

		if d.InboxSize == 0 {
			d.InboxSize = device.DefaultInboxSize
		}
		if d.Model == "" {
			d.Model = fmt.Sprintf("PUMP-%d", d.ID)
		}

		if d.IO != nil {
			if d.IO.FC == 0 {
				d.IO.FC = defaultIOFC
			}
			if d.IO.IntervalMs == 0 {
				d.IO.IntervalMs = defaultIOIntervalMs
			}
			if d.IO.TimeoutMs == 0 {
				d.IO.TimeoutMs = defaultIOTimeoutMs
			}
		}

		// ------------------------------------------------------------
		// DEVICE STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		if d.StatusSlot == nil {
			continue
		}

		// Normalize device_name:
		// - ASCII already validated
		// - falls back to the model
		// - Truncate to max 16 characters
		if d.DeviceName == "" {
			d.DeviceName = d.Model
		}
		if len(d.DeviceName) > 16 {
			d.DeviceName = d.DeviceName[:16]
		}
	}

	normalizeMQTT(&cfg.Transport.MQTT)
	if cfg.Events.MQTT != nil {
		normalizeMQTT(cfg.Events.MQTT)
		// the event publisher holds its own broker session
		if cfg.Events.MQTT.ClientID == "" {
			cfg.Events.MQTT.ClientID = cfg.Transport.MQTT.ClientID + "-events"
		}
	}
}

func normalizeMQTT(m *MQTTConfig) {
	m.TopicPrefix = strings.Trim(m.TopicPrefix, "/")
	if m.TopicPrefix == "" {
		m.TopicPrefix = defaultMQTTPrefix
	}
	if m.TimeoutMs == 0 {
		m.TimeoutMs = defaultMQTTTimeout
	}
}
