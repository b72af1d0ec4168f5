// internal/worker/server.go
package worker

import (
	"context"
	"dispatcher/internal/config"
	"dispatcher/internal/infra/redisstore"
	"dispatcher/internal/infra/upstream"
	"dispatcher/internal/usecase"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Interval    time.Duration
	Concurrency int
	RunOnStart  bool
}

// NewRunner wires the upstream gateway and, when Redis is configured, the
// cycle lock and report store. The returned close func is never nil.
func NewRunner(ctx context.Context, appCfg *config.Config) (*usecase.Runner, *redisstore.Client, func(), error) {
	gw := upstream.New(appCfg.Upstream)
	runner := usecase.NewRunner(gw, appCfg.Worker.Concurrency)

	if !appCfg.Redis.Enabled() {
		log.Ctx(ctx).Warn().Msg("redis not configured: no cross-process cycle lock, no report history")
		return runner, nil, func() {}, nil
	}

	cli := redisstore.New(appCfg.Redis)
	if err := cli.Init(ctx, 5, 500*time.Millisecond, 10*time.Second); err != nil {
		_ = cli.Close()
		return nil, nil, func() {}, err
	}
	runner.Lock = cli
	runner.LockTTL = appCfg.Redis.LockTTL
	runner.Reports = cli

	return runner, cli, func() { _ = cli.Close() }, nil
}

func Run(appCfg *config.Config, cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if cfg.Concurrency > 0 {
		appCfg.Worker.Concurrency = cfg.Concurrency
	}
	if cfg.Interval <= 0 {
		cfg.Interval = appCfg.Worker.Interval
	}

	runner, _, closeFn, err := NewRunner(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeFn()

	sched := NewScheduler(runner, cfg.Interval)
	sched.RunOnStart = cfg.RunOnStart

	return sched.Run(ctx)
}
