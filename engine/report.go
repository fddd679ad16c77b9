package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// StepResult is the outcome of one step of a run.
type StepResult struct {
	Site   string
	Step   string
	Detail string
	Err    error
}

func (s StepResult) Failed() bool {
	return s.Err != nil
}

func (s StepResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("site", s.Site)
	e.Str("step", s.Step)
	if s.Detail != "" {
		e.Str("detail", s.Detail)
	}
	if s.Err != nil {
		e.AnErr("error", s.Err)
	}
}

// RunReport aggregates step outcomes of one backup or restore run. It is an
// ephemeral record: it feeds the run log and the catalog, nothing else.
type RunReport struct {
	Kind      string
	StartedAt time.Time
	Seconds   float64
	Steps     []StepResult
	// Commits maps site label to the commit a step produced or resolved.
	Commits map[string]string
}

func NewReport(kind string) *RunReport {
	return &RunReport{
		Kind:      kind,
		StartedAt: time.Now(),
		Commits:   map[string]string{},
	}
}

func (r *RunReport) Add(site, step, detail string, err error) {
	r.Steps = append(r.Steps, StepResult{Site: site, Step: step, Detail: detail, Err: err})
}

// FailedSteps counts steps that ended in error.
func (r *RunReport) FailedSteps() int {
	var n int
	for _, s := range r.Steps {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Err summarizes the run: nil when every step succeeded.
func (r *RunReport) Err() error {
	failed := r.FailedSteps()
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%s run: %d of %d steps failed", r.Kind, failed, len(r.Steps))
}

// Sites lists site labels in order of first appearance.
func (r *RunReport) Sites() []string {
	seen := map[string]struct{}{}
	var sites []string
	for _, s := range r.Steps {
		if _, ok := seen[s.Site]; ok {
			continue
		}
		seen[s.Site] = struct{}{}
		sites = append(sites, s.Site)
	}
	return sites
}

// SiteSteps counts the steps recorded for site.
func (r *RunReport) SiteSteps(site string) int {
	var n int
	for _, s := range r.Steps {
		if s.Site == site {
			n++
		}
	}
	return n
}

// SiteFailed counts the failed steps recorded for site.
func (r *RunReport) SiteFailed(site string) int {
	var n int
	for _, s := range r.Steps {
		if s.Site == site && s.Failed() {
			n++
		}
	}
	return n
}

// SiteError returns the first error recorded for site, as text.
func (r *RunReport) SiteError(site string) string {
	for _, s := range r.Steps {
		if s.Site == site && s.Failed() {
			return s.Err.Error()
		}
	}
	return ""
}
