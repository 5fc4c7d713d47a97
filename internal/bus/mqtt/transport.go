// internal/bus/mqtt/transport.go
package mqtt

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/pumpcluster/internal/bus"
	"github.com/tamzrod/pumpcluster/internal/frame"
)

// Transport carries bus frames over MQTT.
// Each frame is published on <prefix>/frame/<id-hex> with the raw 8-byte payload;
// the transport subscribes to <prefix>/frame/+ once and fans inbound frames
// out to every attached receiver except the sender.
type Transport struct {
	client  client
	prefix  string
	qos     byte
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time

	mu         sync.RWMutex
	rxs        map[int]bus.Receiver
	subscribed bool
}

// client is the subset of paho.Client the transport uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Connect dials the broker and returns a transport bound to it.
func Connect(cfg Config) (*Transport, func(), error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(cfg.Timeout)

	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect", "broker", cfg.Broker, "err", err)
	}

	c := paho.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, nil, fmt.Errorf("bus/mqtt: connect %s: timeout", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, nil, fmt.Errorf("bus/mqtt: connect %s: %w", cfg.Broker, err)
	}
	log.Info("mqtt bus connected", "broker", cfg.Broker, "client_id", cfg.ClientID)

	t := New(c, cfg.TopicPrefix, cfg.QoS, cfg.Timeout, log)
	closeFn := func() { c.Disconnect(250) }
	return t, closeFn, nil
}

// New wraps an already connected client.
func New(c client, prefix string, qos byte, timeout time.Duration, log *slog.Logger) *Transport {
	if log == nil {
		log = slog.Default()
	}
	return &Transport{
		client:  c,
		prefix:  strings.Trim(prefix, "/"),
		qos:     qos,
		timeout: timeout,
		log:     log,
		now:     time.Now,
		rxs:     make(map[int]bus.Receiver),
	}
}

var _ bus.Network = (*Transport)(nil)

// Topic returns the publish topic for a frame identifier.
func (t *Transport) Topic(id uint32) string {
	return fmt.Sprintf("%s/frame/%03x", t.prefix, id)
}

func (t *Transport) Attach(rx bus.Receiver) (bus.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := rx.ID()
	if _, ok := t.rxs[id]; ok {
		return nil, fmt.Errorf("%w: id=%d", bus.ErrAttached, id)
	}

	if !t.subscribed {
		filter := t.prefix + "/frame/+"
		tok := t.client.Subscribe(filter, t.qos, t.onMessage)
		if err := t.wait(tok, "subscribe "+filter); err != nil {
			return nil, err
		}
		t.subscribed = true
	}

	t.rxs[id] = rx
	return &port{t: t, id: id}, nil
}

func (t *Transport) Detach(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rxs, id)
}

func (t *Transport) onMessage(_ paho.Client, msg paho.Message) {
	t.deliver(msg.Topic(), msg.Payload())
}

// deliver routes one inbound publish to the local receivers.
func (t *Transport) deliver(topic string, payload []byte) {
	i := strings.LastIndexByte(topic, '/')
	if i < 0 {
		return
	}
	id, err := strconv.ParseUint(topic[i+1:], 16, 32)
	if err != nil {
		t.log.Debug("mqtt frame with bad topic", "topic", topic, "err", err)
		return
	}
	sender, _ := frame.DeviceFor(uint32(id))

	f := frame.Frame{ID: uint32(id), Timestamp: t.now()}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for rid, rx := range t.rxs {
		// the broker echoes our own publishes
		if rid == sender {
			continue
		}
		f.Data = append([]byte(nil), payload...)
		rx.Receive(f)
	}
}

func (t *Transport) publish(id int, f frame.Frame) error {
	t.mu.RLock()
	_, ok := t.rxs[id]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: id=%d", bus.ErrDetached, id)
	}

	topic := t.Topic(f.ID)
	tok := t.client.Publish(topic, t.qos, false, f.Data)
	return t.wait(tok, "publish "+topic)
}

func (t *Transport) wait(tok paho.Token, what string) error {
	if t.timeout > 0 && !tok.WaitTimeout(t.timeout) {
		return fmt.Errorf("bus/mqtt: %s: timeout", what)
	}
	if t.timeout <= 0 {
		tok.Wait()
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("bus/mqtt: %s: %w", what, err)
	}
	return nil
}

type port struct {
	t  *Transport
	id int
}

func (p *port) Send(f frame.Frame) error {
	return p.t.publish(p.id, f)
}
