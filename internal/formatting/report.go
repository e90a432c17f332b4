package formatting

import (
	"sort"

	"wikisync/internal/reconciler"
)

// PendingRow is one pending page of a plan.
type PendingRow struct {
	Title    string `json:"title" yaml:"title"`
	OldTitle string `json:"oldTitle,omitempty" yaml:"oldTitle,omitempty"`
	Minor    bool   `json:"minor" yaml:"minor"`
}

// MoveRow is one move of a plan.
type MoveRow struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// UploadRow is one file upload seen in the window.
type UploadRow struct {
	Title  string `json:"title" yaml:"title"`
	PageID int64  `json:"pageId" yaml:"pageId"`
}

// PlanReport is the printable form of a reconciler.Plan.
type PlanReport struct {
	Since    string       `json:"since" yaml:"since"`
	Until    string       `json:"until" yaml:"until"`
	Events   int          `json:"events" yaml:"events"`
	Pending  []PendingRow `json:"pending" yaml:"pending"`
	Moves    []MoveRow    `json:"moves" yaml:"moves"`
	Excluded []string     `json:"excluded" yaml:"excluded"`
	Uploads  []UploadRow  `json:"uploads" yaml:"uploads"`
}

// NewPlanReport flattens a plan into sorted rows.
func NewPlanReport(since, until string, events int, plan reconciler.Plan) PlanReport {
	r := PlanReport{
		Since:    since,
		Until:    until,
		Events:   events,
		Pending:  make([]PendingRow, 0, len(plan.Pending)),
		Moves:    make([]MoveRow, 0, len(plan.Moves)),
		Excluded: append([]string{}, plan.Excluded...),
		Uploads:  make([]UploadRow, 0, len(plan.Uploads)),
	}

	for _, title := range plan.Titles {
		a := plan.Pending[title]
		r.Pending = append(r.Pending, PendingRow{Title: title, OldTitle: a.OldTitle, Minor: a.Minor})
	}
	for _, m := range plan.Moves {
		r.Moves = append(r.Moves, MoveRow{From: m.From, To: m.To})
	}
	for _, title := range plan.UploadTitles() {
		r.Uploads = append(r.Uploads, UploadRow{Title: title, PageID: plan.Uploads[title]})
	}
	sort.Strings(r.Excluded)
	return r
}

// ResultReport summarizes a completed sync run.
type ResultReport struct {
	RunID          string   `json:"runId" yaml:"runId"`
	Since          string   `json:"since" yaml:"since"`
	Until          string   `json:"until" yaml:"until"`
	Events         int      `json:"events" yaml:"events"`
	PagesImported  int      `json:"pagesImported" yaml:"pagesImported"`
	MovesApplied   int      `json:"movesApplied" yaml:"movesApplied"`
	MovesFailed    int      `json:"movesFailed" yaml:"movesFailed"`
	Excluded       int      `json:"excluded" yaml:"excluded"`
	UploadsSkipped int      `json:"uploadsSkipped" yaml:"uploadsSkipped"`
	Imported       []string `json:"imported,omitempty" yaml:"imported,omitempty"`
	DryRun         bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	WatermarkSaved bool     `json:"watermarkSaved" yaml:"watermarkSaved"`
}
