// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and hands every PollResult to apply.
// One goroutine per device. No overlap. No retries.
func (p *Poller) Run(ctx context.Context, apply func(PollResult)) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			apply(p.PollOnce())
		}
	}
}
