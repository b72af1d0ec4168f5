package upstream

import (
	"bytes"
	"context"
	"dispatcher/internal/domain"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
)

// PresenceBatchSize is the largest recipient list the presence service accepts.
const PresenceBatchSize = 49

type presenceRequest struct {
	UserID int64              `json:"user_id"`
	Data   map[string][]int64 `json:"data"`
}

func chunk(ids []int64, size int) [][]int64 {
	var out [][]int64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// truthy mirrors how the presence service encodes status: true, a non-zero
// number, or any non-empty value means online.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("false")):
		return false
	case bytes.Equal(raw, []byte("true")):
		return true
	case bytes.Equal(raw, []byte(`""`)), bytes.Equal(raw, []byte("{}")), bytes.Equal(raw, []byte("[]")):
		return false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	return true
}

// FetchPresence asks for recipient status persona by persona, in batches of
// at most PresenceBatchSize. A failed batch is logged and its recipients stay
// unknown; the remaining batches are still issued.
func (c *Client) FetchPresence(ctx context.Context, userID int64, byPersona map[int64][]int64) domain.Presence {
	result := domain.Presence{}

	personas := make([]int64, 0, len(byPersona))
	for persona := range byPersona {
		personas = append(personas, persona)
	}
	slices.Sort(personas)

	for _, persona := range personas {
		for _, batch := range chunk(dedupe(byPersona[persona]), PresenceBatchSize) {
			req := presenceRequest{
				UserID: userID,
				Data:   map[string][]int64{strconv.FormatInt(persona, 10): batch},
			}

			var resp map[string]json.RawMessage
			if err := c.do(ctx, "fetch presence", http.MethodPost, "/internal-scheduled/online", nil, req, &resp); err != nil {
				log.Ctx(ctx).Warn().Err(err).
					Int64("user_id", userID).
					Int64("persona_id", persona).
					Int("batch_size", len(batch)).
					Msg("presence batch failed, recipients treated as offline")
				continue
			}

			for key, flag := range resp {
				id, err := strconv.ParseInt(key, 10, 64)
				if err != nil {
					continue
				}
				result[id] = truthy(flag)
			}
		}
	}
	return result
}
