// internal/config/config.go
package config

type Config struct {
	Cluster      ClusterConfig      `yaml:"cluster"`
	Timing       TimingConfig       `yaml:"timing"`
	Transport    TransportConfig    `yaml:"transport"`
	Events       EventsConfig       `yaml:"events"`
	StatusMemory StatusMemoryConfig `yaml:"status_memory"`
}

type ClusterConfig struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID    int    `yaml:"id"`
	Model string `yaml:"model"`

	StandbyMode      bool `yaml:"standby_mode"`
	PowerRecovery    bool `yaml:"power_recovery"`
	RunFeedbackCheck bool `yaml:"run_feedback_check"`

	InboxSize int `yaml:"inbox_size"`

	// Field I/O module (optional)
	IO *IOConfig `yaml:"io"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- FIELD I/O ----

type IOConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	IntervalMs int    `yaml:"interval_ms"`

	// FC 1 (coils) or FC 2 (discrete inputs)
	FC uint8 `yaml:"fc"`

	Overload    uint16  `yaml:"overload"`
	LowPressure uint16  `yaml:"low_pressure"`
	RunFeedback *uint16 `yaml:"run_feedback"`
}

// ---- TIMING ----

type TimingConfig struct {
	LogicTickMs    int `yaml:"logic_tick_ms"`
	TransmitTickMs int `yaml:"transmit_tick_ms"`

	BuildUpMs           int `yaml:"build_up_ms"`
	ShortBuildUpMs      int `yaml:"short_build_up_ms"`
	ParallelMs          int `yaml:"parallel_ms"`
	HeatingOnMs         int `yaml:"heating_on_ms"`
	RunRequestTimeoutMs int `yaml:"run_request_timeout_ms"`
	CommFaultTimeoutMs  int `yaml:"comm_fault_timeout_ms"`
	ResetHoldMs         int `yaml:"reset_hold_ms"`

	RecoveryWindowMs    int `yaml:"recovery_window_ms"`
	RecoveryClaimBaseMs int `yaml:"recovery_claim_base_ms"`
	RecoveryClaimStepMs int `yaml:"recovery_claim_step_ms"`
}

// ---- TRANSPORT ----

const (
	TransportLoopback = "loopback"
	TransportMQTT     = "mqtt"
)

type TransportConfig struct {
	Kind string     `yaml:"kind"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// ---- EVENTS ----

type EventsConfig struct {
	QueueSize int  `yaml:"queue_size"`
	Log       bool `yaml:"log"`

	// MQTT publisher for state-change events (optional)
	MQTT *MQTTConfig `yaml:"mqtt"`
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}
