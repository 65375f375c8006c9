package capture

import (
	"sync"
	"time"
)

// Status is the terminal state of one question.
type Status string

const (
	StatusSaved   Status = "saved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Failure records one question left without an image.
type Failure struct {
	Course  string `json:"course"`
	Topic   string `json:"topic"`
	Number  int    `json:"number"`
	URL     string `json:"url"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report summarises one run of the capture loop.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Saved      int       `json:"saved"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Failures   []Failure `json:"failures,omitempty"`

	mu sync.Mutex
}

func (r *Report) record(st Status, f *Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch st {
	case StatusSaved:
		r.Saved++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
		if f != nil {
			r.Failures = append(r.Failures, *f)
		}
	}
}

// Attempted returns how many questions triggered a page load.
func (r *Report) Attempted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Saved + r.Failed
}
