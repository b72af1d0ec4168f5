package domain

import "time"

type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeOffline    Outcome = "offline"
	OutcomeNotDue     Outcome = "not_due"
	OutcomeIneligible Outcome = "ineligible"
	OutcomeFailed     Outcome = "failed"
	OutcomeInert      Outcome = "inert"
)

// Batch is one pending-task listing after ingestion. Dropped counts records
// that were rejected for their shape.
type Batch struct {
	Kind    Kind
	Tasks   []Task
	Dropped int
}

type CycleReport struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Users       int             `json:"users"`
	Tasks       int             `json:"tasks"`
	Dropped     int             `json:"dropped"`
	FetchErrors int             `json:"fetch_errors"`
	Outcomes    map[Outcome]int `json:"outcomes"`
}

func (r *CycleReport) Add(o Outcome, n int) {
	if n == 0 {
		return
	}
	if r.Outcomes == nil {
		r.Outcomes = make(map[Outcome]int)
	}
	r.Outcomes[o] += n
}
