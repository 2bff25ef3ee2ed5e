package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/logging"
	"github.com/video-stream/editor/internal/store"
)

// Sweeper periodically removes expired sessions.
type Sweeper struct {
	cron  *cron.Cron
	store store.Store
	log   *logrus.Entry
}

// NewSweeper schedules Sweep on the given cron spec, e.g. "@every 15m".
func NewSweeper(st store.Store, spec string, log logrus.FieldLogger) (*Sweeper, error) {
	s := &Sweeper{
		cron:  cron.New(),
		store: st,
		log:   logging.WithComponent(log, "session-sweeper"),
	}
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Sweep(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	return s, nil
}

// Sweep deletes every session that has expired by now.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		s.log.WithError(err).Error("session sweep failed")
		return 0, err
	}
	if n > 0 {
		s.log.WithField("removed", n).Info("expired sessions removed")
	}
	return n, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
