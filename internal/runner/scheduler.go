package runner

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Scheduler repeats a cycle on a cron spec. A tick that fires while the
// previous cycle is still running is skipped, so cycles never overlap.
type Scheduler struct {
	spec   string
	cycle  func(ctx context.Context) error
	logger zerolog.Logger
}

// NewScheduler validates spec (standard five-field cron or a descriptor such
// as "@every 1m").
func NewScheduler(spec string, cycle func(ctx context.Context) error) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		spec:   spec,
		cycle:  cycle,
		logger: log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run blocks until ctx is cancelled, then waits for a running cycle to finish.
// Cycle errors are logged and do not stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl))

	if _, err := c.AddFunc(s.spec, func() {
		if err := s.cycle(ctx); err != nil {
			s.logger.Error().Err(err).Msg("cycle failed")
		}
	}); err != nil {
		return err
	}

	s.logger.Info().Str("schedule", s.spec).Msg("scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
