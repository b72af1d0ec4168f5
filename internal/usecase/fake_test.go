package usecase

import (
	"context"
	"dispatcher/internal/domain"
	"errors"
	"sync"
	"time"
)

type pairKey struct {
	sender, recipient int64
}

// fakeGateway is an in-memory ports.Gateway that records every side effect.
type fakeGateway struct {
	mu sync.Mutex

	batches    map[domain.Kind]domain.Batch
	fetchErr   map[domain.Kind]error
	online     map[int64]bool
	pairs      map[pairKey]domain.PairState
	pairErr    error
	letters    map[pairKey]int
	restrErr   error
	sendErr    error
	triggerErr error
	deleteErr  error

	presenceCalls    []map[int64][]int64
	pairCalls        []pairKey
	restrictionCalls []pairKey
	sent             []int64
	triggered        []domain.FollowUp
	deleted          []int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		batches:  map[domain.Kind]domain.Batch{},
		fetchErr: map[domain.Kind]error{},
		online:   map[int64]bool{},
		pairs:    map[pairKey]domain.PairState{},
		letters:  map[pairKey]int{},
	}
}

var errFake = errors.New("fake upstream failure")

func (f *fakeGateway) FetchPending(ctx context.Context, kind domain.Kind) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[kind]; err != nil {
		return domain.Batch{}, err
	}
	b := f.batches[kind]
	b.Kind = kind
	return b, nil
}

func (f *fakeGateway) DeleteTask(ctx context.Context, id int64, kind domain.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) FetchPresence(ctx context.Context, userID int64, byPersona map[int64][]int64) domain.Presence {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presenceCalls = append(f.presenceCalls, byPersona)
	out := domain.Presence{}
	for _, recipients := range byPersona {
		for _, id := range recipients {
			if on, ok := f.online[id]; ok {
				out[id] = on
			}
		}
	}
	return out
}

func (f *fakeGateway) SendDelivery(ctx context.Context, t domain.Task) (domain.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return domain.DeliveryResult{}, f.sendErr
	}
	f.sent = append(f.sent, t.ID)
	id := t.ID * 100
	return domain.DeliveryResult{MessageID: &id}, nil
}

func (f *fakeGateway) TriggerFollowUp(ctx context.Context, fu domain.FollowUp, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggered = append(f.triggered, fu)
	return nil
}

func (f *fakeGateway) FetchPairState(ctx context.Context, userID, senderID, recipientID int64) (domain.PairState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{senderID, recipientID}
	f.pairCalls = append(f.pairCalls, key)
	if f.pairErr != nil {
		return domain.PairState{}, f.pairErr
	}
	return f.pairs[key], nil
}

func (f *fakeGateway) FetchRestriction(ctx context.Context, userID, senderID, recipientID int64) (domain.RestrictionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{senderID, recipientID}
	f.restrictionCalls = append(f.restrictionCalls, key)
	if f.restrErr != nil {
		return domain.RestrictionSnapshot{}, f.restrErr
	}
	return domain.RestrictionSnapshot{LettersLeft: f.letters[key]}, nil
}

func (f *fakeGateway) allow(sender, recipient int64, messages, letters int) {
	f.pairs[pairKey{sender, recipient}] = domain.PairState{Exists: true, MessagesLeft: messages}
	f.letters[pairKey{sender, recipient}] = letters
}

func msgTask(id, user, sender, recipient int64) domain.Task {
	return domain.Task{ID: id, UserID: user, SenderID: sender, RecipientID: recipient, Kind: domain.KindMessage, Text: "hi"}
}

func mailTask(id, user, sender, recipient int64) domain.Task {
	return domain.Task{
		ID: id, UserID: user, SenderID: sender, RecipientID: recipient, Kind: domain.KindMail, Text: "letter",
		Media: domain.Media{Photos: []domain.MediaRef{{ID: 1}}, Videos: []domain.MediaRef{}},
	}
}

func online(t domain.Task) domain.Task {
	t.OnlineOnly = true
	return t
}

func at(t domain.Task, when time.Time) domain.Task {
	t.SendAt = &when
	return t
}
