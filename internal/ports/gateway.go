package ports

import (
	"context"
	"dispatcher/internal/domain"
	"time"
)

type TaskStore interface {
	FetchPending(ctx context.Context, kind domain.Kind) (domain.Batch, error)
	DeleteTask(ctx context.Context, id int64, kind domain.Kind) error
}

type PresenceService interface {
	// FetchPresence looks up recipients grouped by persona. Failed batches are
	// left out of the result rather than failing the call.
	FetchPresence(ctx context.Context, userID int64, byPersona map[int64][]int64) domain.Presence
}

type DeliveryService interface {
	SendDelivery(ctx context.Context, t domain.Task) (domain.DeliveryResult, error)
	TriggerFollowUp(ctx context.Context, f domain.FollowUp, sentAt time.Time) error
}

type RestrictionService interface {
	FetchPairState(ctx context.Context, userID, senderID, recipientID int64) (domain.PairState, error)
	FetchRestriction(ctx context.Context, userID, senderID, recipientID int64) (domain.RestrictionSnapshot, error)
}

// Gateway is everything the dispatch engine needs from upstream.
type Gateway interface {
	TaskStore
	PresenceService
	DeliveryService
	RestrictionService
}
