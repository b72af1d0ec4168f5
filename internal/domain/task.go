package domain

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindMessage Kind = "message"
	KindMail    Kind = "mail"
)

// ParseKind accepts only the two delivery modes.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMessage, KindMail:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

func (k Kind) Valid() bool {
	return k == KindMessage || k == KindMail
}

type MediaRef struct {
	ID int64 `json:"id"`
}

type Media struct {
	Photos []MediaRef `json:"photos"`
	Videos []MediaRef `json:"videos"`
}

type Task struct {
	ID          int64
	UserID      int64
	SenderID    int64
	RecipientID int64
	Kind        Kind
	Text        string
	Media       Media
	OnlineOnly  bool
	SendAt      *time.Time
}

// Validate reports whether the task carries everything dispatch needs.
func (t Task) Validate() error {
	switch {
	case t.ID == 0:
		return fmt.Errorf("%w: missing id", ErrInvalidTaskShape)
	case t.UserID == 0:
		return fmt.Errorf("%w: task %d missing user id", ErrInvalidTaskShape, t.ID)
	case t.SenderID == 0:
		return fmt.Errorf("%w: task %d missing sender id", ErrInvalidTaskShape, t.ID)
	case t.RecipientID == 0:
		return fmt.Errorf("%w: task %d missing recipient id", ErrInvalidTaskShape, t.ID)
	case !t.Kind.Valid():
		return fmt.Errorf("%w: task %d kind %q", ErrUnsupportedKind, t.ID, t.Kind)
	}
	return nil
}

// Due reports whether a time-gated task may go out at now. The boundary is inclusive.
func (t Task) Due(now time.Time) bool {
	return t.SendAt != nil && !t.SendAt.After(now)
}
