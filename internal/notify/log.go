// internal/notify/log.go
package notify

import (
	"context"
	"log/slog"

	"github.com/tamzrod/pumpcluster/internal/device"
)

// LogSink writes one structured line per event.
// Wrap it in OnChange to log transitions only.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Handle(ctx context.Context, ev device.Event) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log.LogAttrs(ctx, slog.LevelInfo, "device state",
		slog.Int("device", ev.DeviceID),
		slog.String("session", ev.Session),
		slog.Uint64("seq", ev.Seq),
		slog.Bool("run", ev.Run),
		slog.Bool("mode", ev.Mode),
		slog.Bool("heat", ev.Heat),
		slog.Bool("standby", ev.StandbyLamp),
		slog.Bool("run_lamp", ev.RunLamp),
		slog.Bool("overload", ev.Overload),
		slog.Bool("low_pressure", ev.LowPressure),
		slog.Bool("run_request", ev.RunRequest),
		slog.Bool("standby_start", ev.StandbyStart),
		slog.String("status", ev.Status.String()),
	)
}
