package usecase

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"

	"github.com/rs/zerolog/log"
)

// Eligibility decides whether a persona may write to a recipient right now.
// It fails closed: any upstream error means "not eligible".
type Eligibility struct {
	Restrictions ports.RestrictionService
}

func (e Eligibility) IsEligible(ctx context.Context, userID, senderID, recipientID int64, kind domain.Kind) bool {
	logger := log.Ctx(ctx)

	if !kind.Valid() {
		logger.Debug().Msg("not eligible: unsupported kind")
		return false
	}

	pair, err := e.Restrictions.FetchPairState(ctx, userID, senderID, recipientID)
	if err != nil {
		logger.Warn().Err(err).Msg("not eligible: dialog lookup failed")
		return false
	}
	if !pair.Exists {
		logger.Debug().Msg("not eligible: no dialog for persona")
		return false
	}
	if pair.IsBlocked {
		logger.Debug().Msg("not eligible: dialog blocked")
		return false
	}

	if kind == domain.KindMessage {
		if pair.MessagesLeft <= 0 {
			logger.Debug().Msg("not eligible: no messages left")
			return false
		}
		return true
	}

	snap, err := e.Restrictions.FetchRestriction(ctx, userID, senderID, recipientID)
	if err != nil {
		logger.Warn().Err(err).Msg("not eligible: restriction lookup failed")
		return false
	}
	if snap.LettersLeft <= 0 {
		logger.Debug().Msg("not eligible: no letters left")
		return false
	}
	return true
}
