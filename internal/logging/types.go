package logging

import "time"

// Run kinds.
const (
	KindBuild  = "build"
	KindVerify = "verify"
	KindReplay = "replay"
)

// #region run-entry
// RunEntry is a single row in the run_log table.
type RunEntry struct {
	TableID     string
	Kind        string
	Population  int
	Decision    string // "saved" | "rejected" | "passed" | "failed"
	Reason      string
	DetailsJSON string
	Duration    time.Duration
	CreatedAt   time.Time
}

// #endregion run-entry

// #region run-details
// RunDetails is serialized into run_log.details_json.
type RunDetails struct {
	Signatures int      `json:"signatures,omitempty"`
	Layouts    int      `json:"layouts,omitempty"`
	Predicted  int      `json:"predicted,omitempty"`
	MaxSteps   int      `json:"max_steps,omitempty"`
	Runs       int      `json:"runs,omitempty"`
	Failures   []string `json:"failures,omitempty"`
}

// #endregion run-details
