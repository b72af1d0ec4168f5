package upstream

import (
	"context"
	"dispatcher/internal/domain"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

type dialogsResponse struct {
	Dialogs []struct {
		PersonaID    int64 `json:"idUser"`
		IsBlocked    bool  `json:"isBlocked"`
		MessagesLeft *int  `json:"messagesLeft"`
	} `json:"dialogs"`
}

type restrictionResponse struct {
	Data *struct {
		LettersLeft *int `json:"lettersLeft"`
	} `json:"data"`
}

func pairQuery(userID, senderID, recipientID int64, recipientParam string) url.Values {
	return url.Values{
		recipientParam: {strconv.FormatInt(recipientID, 10)},
		"idUser":       {strconv.FormatInt(senderID, 10)},
		"user_id":      {strconv.FormatInt(userID, 10)},
	}
}

// FetchPairState returns the dialog between senderID and recipientID. Dialogs
// belonging to other personas are ignored; Exists is false when none match.
func (c *Client) FetchPairState(ctx context.Context, userID, senderID, recipientID int64) (domain.PairState, error) {
	var resp dialogsResponse
	q := pairQuery(userID, senderID, recipientID, "idsRegularUser")
	if err := c.do(ctx, "fetch dialogs", http.MethodGet, "/internal-scheduled/dialogs/by-pairs", q, nil, &resp); err != nil {
		return domain.PairState{}, err
	}

	for _, d := range resp.Dialogs {
		if d.PersonaID != senderID {
			continue
		}
		state := domain.PairState{Exists: true, IsBlocked: d.IsBlocked}
		if d.MessagesLeft != nil {
			state.MessagesLeft = *d.MessagesLeft
		}
		return state, nil
	}
	return domain.PairState{}, nil
}

func (c *Client) FetchRestriction(ctx context.Context, userID, senderID, recipientID int64) (domain.RestrictionSnapshot, error) {
	const op = "fetch restriction"

	var resp restrictionResponse
	q := pairQuery(userID, senderID, recipientID, "idRegularUser")
	if err := c.do(ctx, op, http.MethodGet, "/internal-engage-tracker/chat/restriction", q, nil, &resp); err != nil {
		return domain.RestrictionSnapshot{}, err
	}
	if resp.Data == nil {
		return domain.RestrictionSnapshot{}, malformed(op, errors.New("missing data"))
	}

	var snap domain.RestrictionSnapshot
	if resp.Data.LettersLeft != nil {
		snap.LettersLeft = *resp.Data.LettersLeft
	}
	return snap, nil
}
