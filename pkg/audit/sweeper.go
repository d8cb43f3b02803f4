package audit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// Sweeper periodically removes audit entries past the retention period
type Sweeper struct {
	logger Logger
	policy RetentionPolicy
	cron   *cron.Cron
	log    *observability.Logger
}

// NewSweeper creates a retention sweeper on the given cron schedule
// (e.g. "@daily" or "0 3 * * *").
func NewSweeper(logger Logger, policy RetentionPolicy, schedule string, log *observability.Logger) (*Sweeper, error) {
	s := &Sweeper{
		logger: logger,
		policy: policy,
		cron:   cron.New(),
		log:    log,
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the sweep schedule
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the sweep schedule, waiting for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	removed, err := s.logger.Cleanup(context.Background(), s.policy)
	if err != nil {
		s.log.WithError(err).Warn("audit retention sweep failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Info("audit retention sweep completed")
	}
}
