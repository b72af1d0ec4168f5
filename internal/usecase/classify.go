package usecase

import "dispatcher/internal/domain"

// Classified holds a user's tasks by gating path. Inert tasks have neither
// online_only nor send_at; they are never dispatched and never deleted.
type Classified struct {
	PresenceGated []domain.Task
	TimeGated     []domain.Task
	Inert         []domain.Task
	Invalid       int
}

// Classify splits tasks by gating path, keeping input order in each bucket.
func Classify(tasks []domain.Task) Classified {
	var c Classified
	for _, t := range tasks {
		switch {
		case t.Validate() != nil:
			c.Invalid++
		case t.OnlineOnly:
			c.PresenceGated = append(c.PresenceGated, t)
		case t.SendAt != nil:
			c.TimeGated = append(c.TimeGated, t)
		default:
			c.Inert = append(c.Inert, t)
		}
	}
	return c
}

type UserTasks struct {
	UserID int64
	Tasks  []domain.Task
}

// GroupByUser groups valid tasks by user, users in order of first appearance.
func GroupByUser(tasks []domain.Task) []UserTasks {
	index := map[int64]int{}
	var groups []UserTasks
	for _, t := range tasks {
		if t.Validate() != nil {
			continue
		}
		i, ok := index[t.UserID]
		if !ok {
			i = len(groups)
			index[t.UserID] = i
			groups = append(groups, UserTasks{UserID: t.UserID})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

// RecipientsByPersona is the presence lookup input for a user's tasks.
func RecipientsByPersona(tasks []domain.Task) map[int64][]int64 {
	out := map[int64][]int64{}
	for _, t := range tasks {
		out[t.SenderID] = append(out[t.SenderID], t.RecipientID)
	}
	return out
}
