package usecase

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Dispatcher struct {
	Tasks       ports.TaskStore
	Delivery    ports.DeliveryService
	Eligibility Eligibility
	Clock       func() time.Time
}

func NewDispatcher(gw ports.Gateway) Dispatcher {
	return Dispatcher{
		Tasks:       gw,
		Delivery:    gw,
		Eligibility: Eligibility{Restrictions: gw},
		Clock:       time.Now,
	}
}

// Handle runs one task through gate, eligibility, delivery, follow-up and
// delete. Anything but OutcomeDelivered leaves the task upstream for a later
// cycle.
func (d Dispatcher) Handle(ctx context.Context, t domain.Task, presence domain.Presence, now time.Time) (outcome domain.Outcome) {
	logger := log.Ctx(ctx).With().
		Int64("task_id", t.ID).
		Str("kind", string(t.Kind)).
		Int64("user_id", t.UserID).
		Int64("persona_id", t.SenderID).
		Int64("recipient_id", t.RecipientID).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Err(fmt.Errorf("panic: %v", p)).Msg("task aborted")
			outcome = domain.OutcomeFailed
		}
	}()

	switch {
	case t.OnlineOnly:
		if !presence.Online(t.RecipientID) {
			return domain.OutcomeOffline
		}
	case t.SendAt != nil:
		if !t.Due(now) {
			return domain.OutcomeNotDue
		}
	default:
		return domain.OutcomeInert
	}

	if !d.Eligibility.IsEligible(ctx, t.UserID, t.SenderID, t.RecipientID, t.Kind) {
		return domain.OutcomeIneligible
	}
	return d.deliver(ctx, t, logger)
}

func (d Dispatcher) deliver(ctx context.Context, t domain.Task, logger zerolog.Logger) domain.Outcome {
	res, err := d.Delivery.SendDelivery(ctx, t)
	if err != nil {
		logger.Error().Err(err).Msg("delivery failed, task kept")
		return domain.OutcomeFailed
	}

	f := domain.FollowUp{
		Kind:        t.Kind,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
		Text:        t.Text,
		MessageID:   res.MessageID,
	}
	if t.Kind == domain.KindMail {
		media := t.Media
		f.Media = &media
	}
	// The send already happened, so the task is deleted even if tracking fails.
	if err := d.Delivery.TriggerFollowUp(ctx, f, d.now()); err != nil {
		logger.Warn().Err(err).Msg("follow-up trigger failed")
	}

	if err := d.Tasks.DeleteTask(ctx, t.ID, t.Kind); err != nil {
		logger.Error().Err(err).Msg("delete after delivery failed, task may be sent again")
		return domain.OutcomeFailed
	}

	logger.Info().Msg("task delivered")
	return domain.OutcomeDelivered
}

func (d Dispatcher) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}
