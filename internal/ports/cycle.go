package ports

import (
	"context"
	"dispatcher/internal/domain"
	"time"
)

type CycleLock interface {
	// Acquire returns ok=false when another process holds the lock.
	Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type ReportStore interface {
	Save(ctx context.Context, r domain.CycleReport) error
	Last(ctx context.Context) (*domain.CycleReport, error)
	Recent(ctx context.Context, limit int) ([]domain.CycleReport, error)
}

type Scheduler interface {
	// Run invokes a cycle on every tick until ctx is done.
	Run(ctx context.Context) error
}
