package usecase

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Runner executes dispatch cycles. At most one cycle runs at a time per
// Runner, and per Lock when one is configured.
type Runner struct {
	Gateway     ports.Gateway
	Dispatcher  Dispatcher
	Concurrency int
	Clock       func() time.Time

	// Optional.
	Lock    ports.CycleLock
	LockTTL time.Duration
	Reports ports.ReportStore

	running atomic.Bool
}

func NewRunner(gw ports.Gateway, concurrency int) *Runner {
	return &Runner{
		Gateway:     gw,
		Dispatcher:  NewDispatcher(gw),
		Concurrency: concurrency,
		Clock:       time.Now,
	}
}

// RunCycle fetches every pending task, groups them by user and processes the
// groups concurrently. It returns domain.ErrCycleInFlight when another cycle
// holds the guard.
func (r *Runner) RunCycle(ctx context.Context) (domain.CycleReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return domain.CycleReport{}, domain.ErrCycleInFlight
	}
	defer r.running.Store(false)

	if r.Lock != nil {
		release, ok, err := r.Lock.Acquire(ctx, r.LockTTL)
		if err != nil {
			return domain.CycleReport{}, fmt.Errorf("acquire cycle lock: %w", err)
		}
		if !ok {
			return domain.CycleReport{}, domain.ErrCycleInFlight
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("release cycle lock")
			}
		}()
	}

	report := domain.CycleReport{ID: uuid.NewString(), StartedAt: r.now().UTC()}
	logger := log.Ctx(ctx).With().Str("cycle_id", report.ID).Logger()
	ctx = logger.WithContext(ctx)

	tasks := r.fetchAll(ctx, &report)
	groups := GroupByUser(tasks)
	report.Tasks = len(tasks)
	report.Users = len(groups)

	results := make([]Classified, len(groups))
	outcomes := make([]map[domain.Outcome]int, len(groups))

	var g errgroup.Group
	g.SetLimit(max(r.Concurrency, 1))
	for i, group := range groups {
		g.Go(func() error {
			results[i], outcomes[i] = r.processUser(ctx, group, report.StartedAt)
			return nil
		})
	}
	_ = g.Wait()

	for i := range groups {
		report.Dropped += results[i].Invalid
		for o, n := range outcomes[i] {
			report.Add(o, n)
		}
	}
	report.FinishedAt = r.now().UTC()

	logger.Info().
		Int("users", report.Users).
		Int("tasks", report.Tasks).
		Int("dropped", report.Dropped).
		Int("fetch_errors", report.FetchErrors).
		Int("delivered", report.Outcomes[domain.OutcomeDelivered]).
		Int("failed", report.Outcomes[domain.OutcomeFailed]).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("cycle finished")

	if r.Reports != nil {
		if err := r.Reports.Save(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn().Err(err).Msg("save cycle report")
		}
	}
	return report, nil
}

// fetchAll lists both kinds concurrently. A failing kind is logged and
// skipped for this cycle.
func (r *Runner) fetchAll(ctx context.Context, report *domain.CycleReport) []domain.Task {
	kinds := []domain.Kind{domain.KindMessage, domain.KindMail}
	batches := make([]domain.Batch, len(kinds))
	errs := make([]error, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			batches[i], errs[i] = r.Gateway.FetchPending(ctx, kind)
			return nil
		})
	}
	_ = g.Wait()

	var tasks []domain.Task
	for i, kind := range kinds {
		if errs[i] != nil {
			report.FetchErrors++
			log.Ctx(ctx).Error().Err(errs[i]).Str("kind", string(kind)).Msg("fetch pending tasks failed")
			continue
		}
		report.Dropped += batches[i].Dropped
		tasks = append(tasks, batches[i].Tasks...)
	}
	return tasks
}

// processUser handles one user's tasks sequentially against a single
// presence snapshot.
func (r *Runner) processUser(ctx context.Context, group UserTasks, now time.Time) (Classified, map[domain.Outcome]int) {
	logger := log.Ctx(ctx).With().Int64("user_id", group.UserID).Logger()

	outcomes := map[domain.Outcome]int{}
	c := Classify(group.Tasks)
	if len(c.Inert) > 0 {
		outcomes[domain.OutcomeInert] += len(c.Inert)
		logger.Warn().Int("count", len(c.Inert)).Msg("skipping tasks with neither online_only nor send_at")
	}

	presence := domain.Presence{}
	if len(c.PresenceGated) > 0 {
		presence = r.Gateway.FetchPresence(ctx, group.UserID, RecipientsByPersona(c.PresenceGated))
	}

	for _, t := range c.PresenceGated {
		outcomes[r.Dispatcher.Handle(ctx, t, presence, now)]++
	}
	for _, t := range c.TimeGated {
		outcomes[r.Dispatcher.Handle(ctx, t, presence, now)]++
	}

	logger.Debug().Interface("outcomes", outcomes).Msg("user processed")
	return c, outcomes
}

func (r *Runner) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock()
}
