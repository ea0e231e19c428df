package domain

import "time"

// SourceReport is the per-source outcome of one run.
type SourceReport struct {
	SourceID   string        `json:"source_id"`
	Candidates int           `json:"candidates"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

type Rejection struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// RunSummary holds statistics about one ingestion run.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	Job        string          `json:"job"`
	Kind       Kind            `json:"kind"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
	Sources    []SourceReport  `json:"sources"`
	Fetched    int             `json:"fetched"`
	Rejected   int             `json:"rejected"`
	Duplicates int             `json:"duplicates"`
	Inserted   int             `json:"inserted"`
	Updated    int             `json:"updated"`
	Skipped    int             `json:"skipped"`
	Published  int             `json:"published"`
	Failures   []CommitFailure `json:"failures,omitempty"`
	Samples    []Rejection     `json:"rejected_samples,omitempty"`
}

// SourceFailures counts sources that contributed nothing because of an error.
func (s *RunSummary) SourceFailures() int {
	n := 0
	for _, src := range s.Sources {
		if src.Error != "" {
			n++
		}
	}
	return n
}

type RunState struct {
	ID             int64     `db:"id"`
	Job            string    `db:"job"`
	LastRunAt      time.Time `db:"last_run_at"`
	LastRunID      string    `db:"last_run_id"`
	TotalCommitted int64     `db:"total_committed"`
}
