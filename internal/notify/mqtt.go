// internal/notify/mqtt.go
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// Payload is the CBOR body published per state change.
// Integer keys keep the message small on constrained links.
type Payload struct {
	DeviceID     int       `cbor:"1,keyasint"`
	Session      string    `cbor:"2,keyasint"`
	Seq          uint64    `cbor:"3,keyasint"`
	At           time.Time `cbor:"4,keyasint"`
	Run          bool      `cbor:"5,keyasint"`
	Mode         bool      `cbor:"6,keyasint"`
	Heat         bool      `cbor:"7,keyasint"`
	StandbyLamp  bool      `cbor:"8,keyasint"`
	RunLamp      bool      `cbor:"9,keyasint"`
	Overload     bool      `cbor:"10,keyasint"`
	LowPressure  bool      `cbor:"11,keyasint"`
	RunRequest   bool      `cbor:"12,keyasint"`
	StandbyStart bool      `cbor:"13,keyasint"`
	HeaterOn     bool      `cbor:"14,keyasint"`
	Status       string    `cbor:"15,keyasint"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("notify: cbor encoder mode: %v", err))
	}
}

// EncodePayload converts an event into its CBOR wire form.
func EncodePayload(ev device.Event) ([]byte, error) {
	return encMode.Marshal(Payload{
		DeviceID:     ev.DeviceID,
		Session:      ev.Session,
		Seq:          ev.Seq,
		At:           ev.At,
		Run:          ev.Run,
		Mode:         ev.Mode,
		Heat:         ev.Heat,
		StandbyLamp:  ev.StandbyLamp,
		RunLamp:      ev.RunLamp,
		Overload:     ev.Overload,
		LowPressure:  ev.LowPressure,
		RunRequest:   ev.RunRequest,
		StandbyStart: ev.StandbyStart,
		HeaterOn:     ev.HeaterOn,
		Status:       ev.Status.String(),
	})
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := cbor.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("notify: decode payload: %w", err)
	}
	return p, nil
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// MQTTPublisher publishes events to <prefix>/event/<device-id>, retained,
// so a late subscriber sees the last known state of every device.
type MQTTPublisher struct {
	client  publisher
	prefix  string
	qos     byte
	timeout time.Duration
	log     *slog.Logger
}

func NewMQTTPublisher(c publisher, prefix string, qos byte, timeout time.Duration, log *slog.Logger) *MQTTPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &MQTTPublisher{
		client:  c,
		prefix:  strings.Trim(prefix, "/"),
		qos:     qos,
		timeout: timeout,
		log:     log,
	}
}

// ConnectMQTTPublisher dials its own broker connection.
func ConnectMQTTPublisher(broker, clientID, prefix string, qos byte, timeout time.Duration, log *slog.Logger) (*MQTTPublisher, func(), error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeout)

	c := paho.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, nil, fmt.Errorf("notify: connect %s: timeout", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, nil, fmt.Errorf("notify: connect %s: %w", broker, err)
	}

	return NewMQTTPublisher(c, prefix, qos, timeout, log), func() { c.Disconnect(250) }, nil
}

// Topic returns the event topic of a device.
func (p *MQTTPublisher) Topic(id int) string {
	return fmt.Sprintf("%s/event/%d", p.prefix, id)
}

func (p *MQTTPublisher) Handle(_ context.Context, ev device.Event) {
	if err := p.Publish(ev); err != nil {
		p.log.Warn("event publish failed", "device", ev.DeviceID, "err", err)
	}
}

// Publish encodes and sends one event.
func (p *MQTTPublisher) Publish(ev device.Event) error {
	body, err := EncodePayload(ev)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}

	topic := p.Topic(ev.DeviceID)
	tok := p.client.Publish(topic, p.qos, true, body)
	if p.timeout > 0 && !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("notify: publish %s: timeout", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("notify: publish %s: %w", topic, err)
	}
	return nil
}
