package monitor

import (
	"context"
	"log/slog"
	"redditslacker/internal/app/adapters/metrics"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/pkg/logger"
	"time"
)

// Poller runs fn right away and then every interval until ctx is done. The
// enabled flag and interval are re-read before each tick so configuration
// changes apply without a restart.
type Poller struct {
	log      logger.Logger
	name     string
	settings func() config.Poller
	fn       func(ctx context.Context) error
}

func NewPoller(log logger.Logger, name string, settings func() config.Poller, fn func(ctx context.Context) error) *Poller {
	return &Poller{
		log:      logger.NewPrefixedLogger(log, name),
		name:     name,
		settings: settings,
		fn:       fn,
	}
}

func (p *Poller) Name() string {
	return p.name
}

// Run blocks until ctx is cancelled. Iteration errors are logged and never
// stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("Poller started", slog.Duration("interval", p.interval()))
	defer p.log.Info("Poller stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if p.settings().Enabled {
			p.tick(ctx)
		}
		timer.Reset(p.interval())
	}
}

func (p *Poller) tick(ctx context.Context) {
	start := time.Now()
	err := p.fn(ctx)
	metrics.PollerRuns.WithLabelValues(p.name, metrics.Status(err)).Inc()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Error("Poll failed", err, slog.Duration("took", time.Since(start)))
		return
	}

	metrics.PollerLastSuccess.WithLabelValues(p.name).SetToCurrentTime()
	p.log.Trace("Poll finished", slog.Duration("took", time.Since(start)))
}

func (p *Poller) interval() time.Duration {
	return time.Duration(p.settings().IntervalSecs) * time.Second
}
