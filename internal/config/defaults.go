// internal/config/defaults.go
package config

// Defaults returns the configuration every file is loaded over.
func Defaults() *Config {
	return &Config{
		Timing: TimingConfig{
			LogicTickMs:    100,
			TransmitTickMs: 300,

			BuildUpMs:           5000,
			ShortBuildUpMs:      3000,
			ParallelMs:          10000,
			HeatingOnMs:         3000,
			RunRequestTimeoutMs: 1000,
			CommFaultTimeoutMs:  1000,
			ResetHoldMs:         3000,

			RecoveryWindowMs:    6300,
			RecoveryClaimBaseMs: 1000,
			RecoveryClaimStepMs: 1000,
		},
		Transport: TransportConfig{
			Kind: TransportLoopback,
			MQTT: MQTTConfig{
				ClientID:    "pumpcluster",
				TopicPrefix: "pumpcluster",
				TimeoutMs:   5000,
			},
		},
		Events: EventsConfig{
			QueueSize: 256,
			Log:       true,
		},
		StatusMemory: StatusMemoryConfig{
			UnitID:    1,
			TimeoutMs: 1000,
		},
	}
}
