package registry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller refreshes a registry on a fixed interval.
type Poller struct {
	registry *Registry
	interval time.Duration
	log      logrus.FieldLogger
}

// NewPoller creates a poller. A non-positive interval disables it.
func NewPoller(r *Registry, interval time.Duration, log logrus.FieldLogger) *Poller {
	return &Poller{registry: r, interval: interval, log: log}
}

// Run refreshes once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.log.Info("registry polling is disabled")
		return
	}
	p.log.WithField("interval", p.interval.String()).Info("starting registry poller")

	p.refreshOnce(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("registry poller shutting down")
			return
		case <-timer.C:
			p.refreshOnce(ctx)
			timer.Reset(p.interval)
		}
	}
}

func (p *Poller) refreshOnce(ctx context.Context) {
	if err := p.registry.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.WithError(err).WithFields(logrus.Fields{
			"last_refreshed": p.registry.LastRefreshed(),
		}).Warn("registry refresh failed, keeping previous snapshot")
	}
}
