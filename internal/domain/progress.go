package domain

import "time"

// RunState enumerates pipeline milestones.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateFetching  RunState = "fetching"
	StateAnalyzing RunState = "analyzing"
	StateMutating  RunState = "mutating"
	StateReporting RunState = "reporting"
	StateDone      RunState = "done"
	StateFailed    RunState = "failed"
)

// Progress is the persisted run state. It is created at run start (or loaded
// from a prior checkpoint), mutated by the owning pipeline only, removed on
// clean completion and retained on failure for resumption.
type Progress struct {
	RunID             string    `json:"runId"`
	Operation         string    `json:"operation"`
	State             RunState  `json:"state"`
	TotalRecords      int       `json:"totalRecords"`
	ProcessedRecords  int       `json:"processedRecords"`
	DuplicatesFound   int       `json:"duplicatesFound"`
	DuplicatesRemoved int       `json:"duplicatesRemoved"`
	Errors            int       `json:"errors"`
	CurrentBatch      int       `json:"currentBatch"`
	TotalBatches      int       `json:"totalBatches"`
	NextCursor        string    `json:"nextCursor"`
	StartedAt         time.Time `json:"startedAt"`
	LastSavedAt       time.Time `json:"lastSavedAt"`
}

// RunRecord is the audit-log row written for one finished (or failed) run.
type RunRecord struct {
	RunID           string
	Operation       string
	State           RunState
	Processed       int
	DuplicatesFound int
	Removed         int
	Errors          int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Removal is one audit-log row for a record the pipeline archived or rewrote.
type Removal struct {
	RecordID string
	Key      string
	Reason   string
}
