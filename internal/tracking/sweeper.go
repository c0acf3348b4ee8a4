package tracking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StaleMarker flips running buses whose last accepted update is older than cutoff back to stopped.
type StaleMarker interface {
	MarkStaleStopped(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper derives trackingStatus=stopped from inactivity, so the next accepted update of a
// quiet bus counts as a start.
type Sweeper struct {
	store      StaleMarker
	staleAfter time.Duration
	interval   time.Duration
	now        func() time.Time
}

func NewSweeper(store StaleMarker, staleAfter, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		staleAfter: staleAfter,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.staleAfter <= 0 || s.interval <= 0 {
		logrus.Info("Stale bus sweeper disabled.")
		return
	}
	logrus.WithFields(logrus.Fields{
		"stale_after": s.staleAfter.String(),
		"interval":    s.interval.String(),
	}).Info("Starting stale bus sweeper.")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stale bus sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce performs a single pass and returns how many buses were stopped.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.staleAfter)
	n, err := s.store.MarkStaleStopped(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Failed to mark stale buses as stopped.")
		return 0
	}
	if n > 0 {
		logrus.WithField("count", n).Info("Marked stale buses as stopped.")
	}
	return n
}
