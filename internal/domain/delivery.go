package domain

type DeliveryResult struct {
	MessageID *int64
}

type PairState struct {
	Exists       bool
	IsBlocked    bool
	MessagesLeft int
}

type RestrictionSnapshot struct {
	LettersLeft int
}

// Presence maps recipient id to online state. Missing recipients are offline.
type Presence map[int64]bool

func (p Presence) Online(recipientID int64) bool {
	return p[recipientID]
}

// FollowUp is the tracking notification sent after a successful delivery.
type FollowUp struct {
	Kind        Kind
	SenderID    int64
	RecipientID int64
	Text        string
	MessageID   *int64
	Media       *Media
}
