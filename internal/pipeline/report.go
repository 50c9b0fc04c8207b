package pipeline

import (
	"sync"

	"github.com/google/uuid"
)

// ItemError records one per-answer failure and the phase it occurred in.
type ItemError struct {
	AnswerID uuid.UUID `json:"answer_id"`
	Phase    string    `json:"phase"`
	Message  string    `json:"message"`
}

// Report summarizes one ProcessBacklog run.
type Report struct {
	Processed         int         `json:"processed"`
	PositionsWritten  int         `json:"positions_written"`
	SentimentsWritten int         `json:"sentiments_written"`
	CitationsWritten  int         `json:"citations_written"`
	Errors            []ItemError `json:"errors"`

	mu sync.Mutex
}

func (r *Report) addProcessed() {
	r.mu.Lock()
	r.Processed++
	r.mu.Unlock()
}

func (r *Report) addPositions(n int) {
	r.mu.Lock()
	r.PositionsWritten += n
	r.mu.Unlock()
}

func (r *Report) addSentiments(n int) {
	r.mu.Lock()
	r.SentimentsWritten += n
	r.mu.Unlock()
}

func (r *Report) addCitations(n int) {
	r.mu.Lock()
	r.CitationsWritten += n
	r.mu.Unlock()
}

func (r *Report) addError(id uuid.UUID, phase string, err error) {
	r.mu.Lock()
	r.Errors = append(r.Errors, ItemError{
		AnswerID: id,
		Phase:    phase,
		Message:  err.Error(),
	})
	r.mu.Unlock()
}
