package worker

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

var _ ports.Scheduler = (*Scheduler)(nil)

// Scheduler fires a cycle every Interval. A tick that arrives while the
// previous cycle is still running is skipped.
type Scheduler struct {
	Runner     CycleRunner
	Interval   time.Duration
	RunOnStart bool
}

func NewScheduler(r CycleRunner, interval time.Duration) *Scheduler {
	return &Scheduler{Runner: r, Interval: interval}
}

// Run blocks until ctx is done, then waits for the in-flight cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	// cycles are not cancelled by shutdown, only no new ones start
	jobCtx := context.WithoutCancel(ctx)

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(s.Interval), cron.FuncJob(func() { s.tick(jobCtx) }))

	if s.RunOnStart {
		s.tick(jobCtx)
	}

	c.Start()
	log.Ctx(ctx).Info().Dur("interval", s.Interval).Msg("scheduler started")

	<-ctx.Done()
	log.Ctx(ctx).Info().Msg("scheduler stopping, waiting for in-flight cycle")
	<-c.Stop().Done()
	log.Ctx(ctx).Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	_, err := s.Runner.RunCycle(ctx)
	switch {
	case errors.Is(err, domain.ErrCycleInFlight):
		log.Ctx(ctx).Warn().Msg("previous cycle still running, tick skipped")
	case err != nil:
		log.Ctx(ctx).Error().Err(err).Msg("cycle failed")
	}
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
