package redisstore

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ ports.ReportStore = (*Client)(nil)

// Save pushes the report to the head of the history list and trims it.
func (c *Client) Save(ctx context.Context, r domain.CycleReport) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	keep := max(c.Cfg.ReportHistory, 1)
	_, err = c.Rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, c.Cfg.ReportKey, b)
		p.LTrim(ctx, c.Cfg.ReportKey, 0, int64(keep-1))
		return nil
	})
	return err
}

func (c *Client) Last(ctx context.Context) (*domain.CycleReport, error) {
	raw, err := c.Rdb.LIndex(ctx, c.Cfg.ReportKey, 0).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r domain.CycleReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// Recent returns up to limit reports, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]domain.CycleReport, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := c.Rdb.LRange(ctx, c.Cfg.ReportKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.CycleReport, 0, len(items))
	for _, raw := range items {
		var r domain.CycleReport
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
