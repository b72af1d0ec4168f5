package upstream

import (
	"context"
	"dispatcher/internal/domain"
	"fmt"
	"net/http"
	"time"
)

// TriggerTimeLayout is UTC with millisecond precision and a literal Z.
const TriggerTimeLayout = "2006-01-02T15:04:05.000Z"

type textRequest struct {
	UserID      int64  `json:"user_id"`
	SenderID    int64  `json:"idUser"`
	RecipientID int64  `json:"idRegularUser"`
	Message     string `json:"message"`
}

type photoRef struct {
	ID int64 `json:"idPhoto"`
}

type videoRef struct {
	ID int64 `json:"idVideo"`
}

type letterRequest struct {
	UserID      int64      `json:"user_id"`
	SenderID    int64      `json:"idUser"`
	RecipientID int64      `json:"idUserTo"`
	Content     string     `json:"content"`
	Images      []photoRef `json:"images"`
	Videos      []videoRef `json:"videos"`
}

type deliveryResponse struct {
	MessageID *int64 `json:"idMessage"`
}

type triggerRequest struct {
	GirlID         int64         `json:"girl_id"`
	InterlocutorID int64         `json:"id_interlocutor"`
	Date           string        `json:"date"`
	MessageText    string        `json:"message_text"`
	MessageID      *int64        `json:"message_id"`
	Media          *domain.Media `json:"media,omitempty"`
}

func newLetterRequest(t domain.Task) letterRequest {
	req := letterRequest{
		UserID:      t.UserID,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
		Content:     t.Text,
		Images:      make([]photoRef, 0, len(t.Media.Photos)),
		Videos:      make([]videoRef, 0, len(t.Media.Videos)),
	}
	for _, p := range t.Media.Photos {
		req.Images = append(req.Images, photoRef{ID: p.ID})
	}
	for _, v := range t.Media.Videos {
		req.Videos = append(req.Videos, videoRef{ID: v.ID})
	}
	return req
}

func (c *Client) SendDelivery(ctx context.Context, t domain.Task) (domain.DeliveryResult, error) {
	var (
		op   string
		path string
		body any
	)
	switch t.Kind {
	case domain.KindMessage:
		op, path = "send text", "/internal-scheduled/chat/send/text"
		body = textRequest{UserID: t.UserID, SenderID: t.SenderID, RecipientID: t.RecipientID, Message: t.Text}
	case domain.KindMail:
		op, path = "send letter", "/internal-scheduled/send-letter"
		body = newLetterRequest(t)
	default:
		return domain.DeliveryResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, t.Kind)
	}

	var resp deliveryResponse
	if err := c.do(ctx, op, http.MethodPost, path, nil, body, &resp); err != nil {
		return domain.DeliveryResult{}, err
	}
	return domain.DeliveryResult{MessageID: resp.MessageID}, nil
}

func (c *Client) TriggerFollowUp(ctx context.Context, f domain.FollowUp, sentAt time.Time) error {
	req := triggerRequest{
		GirlID:         f.SenderID,
		InterlocutorID: f.RecipientID,
		Date:           sentAt.UTC().Format(TriggerTimeLayout),
		MessageText:    f.Text,
		MessageID:      f.MessageID,
	}

	var path string
	switch f.Kind {
	case domain.KindMessage:
		path = "/internal-scheduled/trigger/message"
	case domain.KindMail:
		path = "/internal-scheduled/trigger/mail"
		req.Media = f.Media
		if req.Media == nil {
			req.Media = &domain.Media{Photos: []domain.MediaRef{}, Videos: []domain.MediaRef{}}
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, f.Kind)
	}

	return c.do(ctx, "trigger "+string(f.Kind), http.MethodPost, path, nil, req, nil)
}
