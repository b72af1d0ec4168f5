package upstream

import (
	"context"
	"dispatcher/internal/domain"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

type taskRecord struct {
	ID          *int64        `json:"id"`
	UserID      *int64        `json:"user_id"`
	SenderID    *int64        `json:"talky_user_id"`
	RecipientID *int64        `json:"recipient_id"`
	Text        string        `json:"text"`
	OnlineOnly  bool          `json:"online_only"`
	SendAt      *string       `json:"send_at"`
	Media       *domain.Media `json:"media"`
}

var sendAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseSendAt returns the instant in UTC. Timestamps without an offset are
// taken as UTC.
func parseSendAt(s string) (time.Time, error) {
	for _, layout := range sendAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: send_at %q", domain.ErrInvalidTaskShape, s)
}

func (r taskRecord) toTask(kind domain.Kind) (domain.Task, error) {
	if r.ID == nil || r.UserID == nil || r.SenderID == nil || r.RecipientID == nil {
		return domain.Task{}, fmt.Errorf("%w: missing identifiers", domain.ErrInvalidTaskShape)
	}

	t := domain.Task{
		ID:          *r.ID,
		UserID:      *r.UserID,
		SenderID:    *r.SenderID,
		RecipientID: *r.RecipientID,
		Kind:        kind,
		Text:        r.Text,
		OnlineOnly:  r.OnlineOnly,
		Media:       domain.Media{Photos: []domain.MediaRef{}, Videos: []domain.MediaRef{}},
	}
	if r.Media != nil && kind == domain.KindMail {
		if r.Media.Photos != nil {
			t.Media.Photos = r.Media.Photos
		}
		if r.Media.Videos != nil {
			t.Media.Videos = r.Media.Videos
		}
	}
	if r.SendAt != nil && *r.SendAt != "" {
		at, err := parseSendAt(*r.SendAt)
		if err != nil {
			return domain.Task{}, err
		}
		t.SendAt = &at
	}
	if err := t.Validate(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func pendingPath(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindMessage:
		return "/internal-scheduled/messages", nil
	case domain.KindMail:
		return "/internal-scheduled/mails", nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
}

func deletePath(id int64, kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindMessage:
		return fmt.Sprintf("/internal-scheduled/message/%d", id), nil
	case domain.KindMail:
		return fmt.Sprintf("/internal-scheduled/mail/%d", id), nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
}

// FetchPending lists unsent tasks of one kind. Records that do not decode
// into a dispatchable task are dropped and counted.
func (c *Client) FetchPending(ctx context.Context, kind domain.Kind) (domain.Batch, error) {
	path, err := pendingPath(kind)
	if err != nil {
		return domain.Batch{}, err
	}

	var raw []json.RawMessage
	q := url.Values{"is_sent": {"0"}}
	if err := c.do(ctx, "fetch pending "+string(kind), http.MethodGet, path, q, nil, &raw); err != nil {
		return domain.Batch{}, err
	}

	batch := domain.Batch{Kind: kind, Tasks: make([]domain.Task, 0, len(raw))}
	for i, item := range raw {
		var rec taskRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			batch.Dropped++
			log.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Int("index", i).Msg("dropping undecodable task record")
			continue
		}
		t, err := rec.toTask(kind)
		if err != nil {
			batch.Dropped++
			log.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Int("index", i).Msg("dropping task record")
			continue
		}
		batch.Tasks = append(batch.Tasks, t)
	}
	return batch, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64, kind domain.Kind) error {
	path, err := deletePath(id, kind)
	if err != nil {
		return err
	}
	return c.do(ctx, "delete "+string(kind), http.MethodDelete, path, nil, nil, nil)
}
