// cmd/pumpcluster/main.go
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/tamzrod/pumpcluster/internal/bus"
	busmqtt "github.com/tamzrod/pumpcluster/internal/bus/mqtt"
	"github.com/tamzrod/pumpcluster/internal/cluster"
	"github.com/tamzrod/pumpcluster/internal/config"
	"github.com/tamzrod/pumpcluster/internal/device"
	"github.com/tamzrod/pumpcluster/internal/notify"
	"github.com/tamzrod/pumpcluster/internal/poller"
	"github.com/tamzrod/pumpcluster/internal/writer"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	interactive := flag.Bool("interactive", false, "Enable the operator console")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: pumpcluster [-interactive] [-log-level info] <config.yaml>")
	}

	cfgPath := flag.Arg(0)

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	// --------------------
	// Logging (through readline when interactive)
	// --------------------

	var rl *readline.Instance
	var out io.Writer = os.Stderr
	if *interactive {
		rl, err = readline.NewEx(&readline.Config{
			Prompt:          "pumps> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			log.Fatalf("console init failed: %v", err)
		}
		out = rl.Stdout()
		log.SetOutput(out)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("invalid log level %q: %v", *logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Bus
	// --------------------

	network, closeNetwork, err := buildNetwork(cfg, logger)
	if err != nil {
		log.Fatalf("transport init failed (kind=%s): %v", cfg.Transport.Kind, err)
	}
	defer closeNetwork()

	// --------------------
	// Event fan-out
	// --------------------

	writers, closeWriters, err := writer.BuildStatusWriters(cfg)
	if err != nil {
		log.Fatalf("status memory init failed (endpoint=%s): %v", cfg.StatusMemory.Endpoint, err)
	}
	defer closeWriters()

	statusPub := writer.NewStatusPublisher(writers, logger)
	statusPub.Start()

	handlers := []notify.Handler{statusPub}
	if cfg.Events.Log {
		handlers = append(handlers, notify.OnChange(notify.LogSink{Logger: logger}))
	}
	if m := cfg.Events.MQTT; m != nil {
		pub, closePub, err := notify.ConnectMQTTPublisher(m.Broker, m.ClientID, m.TopicPrefix, m.QoS, m.Timeout(), logger)
		if err != nil {
			log.Fatalf("event publisher init failed (broker=%s): %v", m.Broker, err)
		}
		defer closePub()
		handlers = append(handlers, notify.OnChange(pub))
	}

	dispatcher := notify.NewDispatcher(cfg.Events.QueueSize, logger, handlers...)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		dispatcher.Run(ctx)
	}()
	go statusPub.Run(ctx)

	// --------------------
	// Devices
	// --------------------

	reg := cluster.New(cluster.Config{
		Network:      network,
		Timing:       cfg.Timing.Device(),
		Sink:         dispatcher,
		Logger:       logger,
		OnUnregister: statusPub.MarkStale,
	})

	for _, d := range cfg.Cluster.Devices {
		dev := cluster.Device{
			ID:               d.ID,
			Model:            d.Model,
			StandbyMode:      d.StandbyMode,
			PowerRecovery:    d.PowerRecovery,
			RunFeedbackCheck: d.RunFeedbackCheck,
			InboxSize:        d.InboxSize,
		}

		// ---- field inputs ----
		if d.IO != nil {
			p, closePoller, err := poller.Build(d)
			if err != nil {
				log.Fatalf("poller build failed (device=%d): %v", d.ID, err)
			}
			defer closePoller()
			dev.Workers = append(dev.Workers, pollInputs(p, logger))
		}

		if _, err := reg.Register(ctx, dev); err != nil {
			log.Fatalf("device register failed (device=%d): %v", d.ID, err)
		}
	}

	// --------------------
	// Console or wait
	// --------------------

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if rl != nil {
		con := NewConsole(reg, rl.Stdout())
		go con.Run(runCtx, rl, cancel)
	}

	<-runCtx.Done()
	logger.Info("shutting down")

	reg.Close()
	stop()
	<-dispatched
	logger.Info("events", "delivered", dispatcher.Delivered(), "dropped", dispatcher.Dropped())
}

func buildNetwork(cfg *config.Config, logger *slog.Logger) (bus.Network, func(), error) {
	switch cfg.Transport.Kind {
	case config.TransportMQTT:
		m := cfg.Transport.MQTT
		t, closeT, err := busmqtt.Connect(busmqtt.Config{
			Broker:      m.Broker,
			ClientID:    m.ClientID,
			TopicPrefix: m.TopicPrefix,
			QoS:         m.QoS,
			Timeout:     m.Timeout(),
			Logger:      logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return t, closeT, nil
	default:
		return bus.NewLoopback(), func() {}, nil
	}
}

// pollInputs feeds field input samples into the controller.
// A failed poll keeps the last applied inputs; only transitions are logged.
func pollInputs(p *poller.Poller, logger *slog.Logger) func(context.Context, *device.Controller) {
	return func(ctx context.Context, c *device.Controller) {
		failing := false
		p.Run(ctx, func(res poller.PollResult) {
			if res.Err != nil {
				if !failing {
					logger.Warn("field input poll failed, holding last inputs", "device", res.DeviceID, "err", res.Err)
					failing = true
				}
				return
			}
			if failing {
				logger.Info("field input poll recovered", "device", res.DeviceID)
				failing = false
			}
			c.SetInputs(res.Inputs)
		})
	}
}
