package validate

import (
	"encoding/json"
	"time"
)

// Report is the outcome of one validation run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Categories int       `json:"categories"`
	LeafSkills int       `json:"leaf_skills"`
	Files      int       `json:"files"`
	Issues     []Issue   `json:"issues"`
}

func newReport(runID string, started time.Time, vctx *Context) *Report {
	issues := vctx.Issues
	if issues == nil {
		issues = []Issue{}
	}
	return &Report{
		RunID:      runID,
		StartedAt:  started.UTC(),
		Categories: len(vctx.Categories),
		LeafSkills: vctx.Registry.Len(),
		Files:      vctx.Files,
		Issues:     issues,
	}
}

// Passed reports whether the run found no issues.
func (r *Report) Passed() bool {
	return len(r.Issues) == 0
}

// Lines returns every issue rendered as a report line, in discovery order.
func (r *Report) Lines() []string {
	lines := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		lines[i] = issue.String()
	}
	return lines
}

// MarshalJSON adds the pass/fail outcome.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		Passed bool `json:"passed"`
	}{
		alias:  (*alias)(r),
		Passed: r.Passed(),
	})
}
