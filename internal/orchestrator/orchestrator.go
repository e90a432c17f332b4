package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wikisync/internal/dump"
	"wikisync/internal/mediawiki"
	"wikisync/internal/reconciler"
	"wikisync/internal/state"
	"wikisync/internal/template"
	"wikisync/pkg/logging"
)

const subsystem = "Orchestrator"

// SourceWiki is the read side of a sync run.
type SourceWiki interface {
	RecentChanges(ctx context.Context, since string) (*mediawiki.RecentChanges, error)
	CategoryMembers(ctx context.Context, category string) ([]string, error)
	Export(ctx context.Context, titles []string) (string, error)
}

// TargetWiki is the write side of a sync run.
type TargetWiki interface {
	Login(ctx context.Context, username, password string) error
	CSRFToken(ctx context.Context) (string, error)
	Move(ctx context.Context, req mediawiki.MoveRequest) error
	Import(ctx context.Context, req mediawiki.ImportRequest) ([]mediawiki.ImportedPage, error)
}

// WatermarkStore persists the timestamp a run resumes from.
type WatermarkStore interface {
	Load() (string, error)
	Save(ts string) error
}

// Progress receives the step currently running. cli.Progress implements it.
type Progress interface {
	Step(msg string)
	Done(msg string)
	Fail(msg string)
}

// Options tune a sync run.
type Options struct {
	// ExcludeCategory names the category whose members are never synced.
	// Empty disables the exclusion fetch.
	ExcludeCategory string
	// ExportBatchSize is the number of titles per export request.
	ExportBatchSize int

	// Summary renders the import log comment.
	Summary         *template.Engine
	Tags            []string
	InterwikiPrefix string
	// AssignKnownUsers attributes revisions to local users of the same name.
	AssignKnownUsers bool

	MoveReason string
	NoRedirect bool

	// TargetUsername and TargetPassword log in to the target. When the
	// username is empty the target client is expected to carry an OAuth
	// token instead.
	TargetUsername string
	TargetPassword string

	// Since overrides the stored watermark as the start of the window.
	Since string
	// DryRun exports and patches but writes nothing to the target and
	// leaves the watermark alone.
	DryRun bool

	// SourceName and RunID are passed to the summary template.
	SourceName string
	RunID      string
}

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Source    SourceWiki
	Target    TargetWiki // Optional: only needed by Run
	Watermark WatermarkStore
	Progress  Progress // Optional
	Options   Options
}

// Orchestrator drives one sync run: fetch, reduce, export, replay, import
// and commit, strictly in that order.
type Orchestrator struct {
	source   SourceWiki
	target   TargetWiki
	store    WatermarkStore
	progress Progress
	opts     Options
}

// Window is the reduced view of one recent-changes window.
type Window struct {
	Since  string
	Until  string
	Events []reconciler.ChangeEvent
	// ExcludedTitles is the size of the exclusion set fetched for the run.
	ExcludedTitles int
	Plan           reconciler.Plan
}

// Result is the outcome of a sync run.
type Result struct {
	Since          string
	Until          string
	Events         int
	PagesImported  int
	MovesApplied   int
	MovesFailed    int
	Excluded       int
	UploadsSkipped int
	// Imported lists the titles the target reported as imported. In a dry
	// run it lists the titles that would have been imported.
	Imported       []string
	DryRun         bool
	WatermarkSaved bool
	Duration       time.Duration
	Plan           reconciler.Plan
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	opts := cfg.Options
	if opts.ExportBatchSize <= 0 {
		opts.ExportBatchSize = 50
	}
	if opts.Summary == nil {
		// The default template always parses.
		opts.Summary, _ = template.New(template.DefaultSummary)
	}

	progress := cfg.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	return &Orchestrator{
		source:   cfg.Source,
		target:   cfg.Target,
		store:    cfg.Watermark,
		progress: progress,
		opts:     opts,
	}
}

// Plan fetches the window starting at the watermark and reduces it. It
// never writes anything.
func (o *Orchestrator) Plan(ctx context.Context) (*Window, error) {
	since, err := o.since()
	if err != nil {
		return nil, err
	}

	o.progress.Step("Fetching recent changes since " + since)
	rc, err := o.source.RecentChanges(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent changes: %w", err)
	}
	logging.Info(subsystem, "Fetched %d change events between %s and %s", len(rc.Events), since, rc.CurTimestamp)
	for _, ev := range rc.Events {
		if !reconciler.Relevant(ev) {
			logging.Debug(subsystem, "Skipping %s", describeEvent(ev))
		}
	}

	excluded := reconciler.NewTitleSet()
	if o.opts.ExcludeCategory != "" {
		o.progress.Step("Fetching members of " + mediawiki.CategoryTitle(o.opts.ExcludeCategory))
		members, err := o.source.CategoryMembers(ctx, o.opts.ExcludeCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch excluded titles: %w", err)
		}
		excluded = reconciler.NewTitleSet(members...)
		logging.Debug(subsystem, "Exclusion set has %d titles", len(excluded))
	}

	plan := reconciler.BuildPlan(rc.Events, excluded)
	for _, title := range plan.Excluded {
		logging.Info(subsystem, "Excluded from sync: %s", title)
	}
	logging.Info(subsystem, "Plan: %d page(s) to import, %d move(s), %d excluded, %d upload(s) not transferred",
		len(plan.Titles), len(plan.Moves), len(plan.Excluded), len(plan.Uploads))

	return &Window{
		Since:          since,
		Until:          rc.CurTimestamp,
		Events:         rc.Events,
		ExcludedTitles: len(excluded),
		Plan:           plan,
	}, nil
}

// Run performs a full sync. The watermark advances only when every fatal
// step succeeded; failed moves are counted, not fatal.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := o.run(ctx)
	if err != nil {
		o.progress.Fail("Sync failed")
		return nil, err
	}
	result.Duration = time.Since(start)
	o.progress.Done(fmt.Sprintf("Synced %d page(s), %d move(s)", result.PagesImported, result.MovesApplied))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context) (*Result, error) {
	win, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Since:          win.Since,
		Until:          win.Until,
		Events:         len(win.Events),
		Excluded:       len(win.Plan.Excluded),
		UploadsSkipped: len(win.Plan.Uploads),
		DryRun:         o.opts.DryRun,
		Plan:           win.Plan,
	}
	for _, title := range win.Plan.UploadTitles() {
		logging.Info(subsystem, "File upload not transferred: %s", title)
	}

	if win.Plan.Empty() {
		logging.Info(subsystem, "Nothing to sync between %s and %s", win.Since, win.Until)
		return result, o.commit(ctx, result)
	}

	if o.target == nil && !o.opts.DryRun {
		return nil, fmt.Errorf("no target wiki configured")
	}

	xml, err := o.export(ctx, win.Plan)
	if err != nil {
		return nil, err
	}
	pages := dump.PageCount(xml)

	if o.opts.DryRun {
		result.Imported = dump.Titles(xml)
		result.PagesImported = pages
		logging.Info(subsystem, "Dry run: would replay %d move(s) and import %d page(s)", len(win.Plan.Moves), pages)
		return result, nil
	}

	token, err := o.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	if err := o.replayMoves(ctx, token, win.Plan.Moves, result); err != nil {
		return nil, err
	}

	if pages > 0 {
		if err := o.importXML(ctx, token, xml, pages, result); err != nil {
			return nil, err
		}
	} else {
		logging.Info(subsystem, "Export contained no pages, skipping import")
	}

	return result, o.commit(ctx, result)
}

func (o *Orchestrator) since() (string, error) {
	if o.opts.Since != "" {
		if err := state.Validate(o.opts.Since); err != nil {
			return "", err
		}
		logging.Info(subsystem, "Starting from %s (override)", o.opts.Since)
		return o.opts.Since, nil
	}
	ts, err := o.store.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load watermark: %w", err)
	}
	return ts, nil
}

// export fetches the plan's titles in batches and merges them into one
// document with minor flags patched.
func (o *Orchestrator) export(ctx context.Context, plan reconciler.Plan) (string, error) {
	titles := plan.Titles
	if len(titles) == 0 {
		return "", nil
	}

	var docs []string
	for i := 0; i < len(titles); i += o.opts.ExportBatchSize {
		end := i + o.opts.ExportBatchSize
		if end > len(titles) {
			end = len(titles)
		}
		o.progress.Step(fmt.Sprintf("Exporting pages %d-%d of %d", i+1, end, len(titles)))
		doc, err := o.source.Export(ctx, titles[i:end])
		if err != nil {
			return "", fmt.Errorf("failed to export pages: %w", err)
		}
		docs = append(docs, doc)
	}

	merged, err := dump.Merge(docs...)
	if err != nil {
		return "", fmt.Errorf("failed to merge export batches: %w", err)
	}

	patched, stripped := dump.PatchMinor(merged, plan.MinorByTitle())
	logging.Debug(subsystem, "Cleared minor flags on %d page(s) with major changes", stripped)

	exported := reconciler.NewTitleSet(dump.Titles(patched)...)
	for _, title := range titles {
		if !exported.Has(title) {
			logging.Warn(subsystem, "Page %s is missing from the export, it may have been deleted since", title)
		}
	}
	return patched, nil
}

func (o *Orchestrator) authenticate(ctx context.Context) (string, error) {
	if o.opts.TargetUsername != "" {
		o.progress.Step("Logging in to the target wiki")
		if err := o.target.Login(ctx, o.opts.TargetUsername, o.opts.TargetPassword); err != nil {
			return "", fmt.Errorf("failed to log in to target wiki: %w", err)
		}
	}
	token, err := o.target.CSRFToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf token: %w", err)
	}
	return token, nil
}

// replayMoves applies moves one by one. An API error fails only that move;
// anything else aborts the run.
func (o *Orchestrator) replayMoves(ctx context.Context, token string, moves []reconciler.Move, result *Result) error {
	for i, m := range moves {
		o.progress.Step(fmt.Sprintf("Moving %s to %s (%d/%d)", m.From, m.To, i+1, len(moves)))
		err := o.target.Move(ctx, mediawiki.MoveRequest{
			From:       m.From,
			To:         m.To,
			Reason:     o.opts.MoveReason,
			NoRedirect: o.opts.NoRedirect,
			Token:      token,
		})
		var apiErr *mediawiki.APIError
		switch {
		case err == nil:
			result.MovesApplied++
			logging.Info(subsystem, "Moved %s to %s", m.From, m.To)
		case errors.As(err, &apiErr):
			result.MovesFailed++
			logging.Error(subsystem, err, "Failed to move %s to %s", m.From, m.To)
		default:
			return fmt.Errorf("failed to move %s to %s: %w", m.From, m.To, err)
		}
	}
	return nil
}

func (o *Orchestrator) importXML(ctx context.Context, token, xml string, pages int, result *Result) error {
	summary, err := o.opts.Summary.Render(template.Context{
		Source: o.opts.SourceName,
		Since:  result.Since,
		Until:  result.Until,
		Pages:  pages,
		Moves:  result.MovesApplied,
		RunID:  o.opts.RunID,
	})
	if err != nil {
		return fmt.Errorf("failed to render import summary: %w", err)
	}

	o.progress.Step(fmt.Sprintf("Importing %d page(s)", pages))
	imported, err := o.target.Import(ctx, mediawiki.ImportRequest{
		XML:              xml,
		Summary:          summary,
		Tags:             o.opts.Tags,
		InterwikiPrefix:  o.opts.InterwikiPrefix,
		AssignKnownUsers: o.opts.AssignKnownUsers,
		Token:            token,
	})
	if err != nil {
		return fmt.Errorf("failed to import pages: %w", err)
	}

	for _, p := range imported {
		result.Imported = append(result.Imported, p.Title)
		logging.Debug(subsystem, "Imported %s (%d revision(s))", p.Title, p.Revisions)
	}
	result.PagesImported = len(imported)
	logging.Info(subsystem, "Imported %d page(s)", len(imported))
	return nil
}

// commit saves the window's end as the new watermark.
func (o *Orchestrator) commit(ctx context.Context, result *Result) error {
	if o.opts.DryRun {
		logging.Info(subsystem, "Dry run: watermark stays at %s", result.Since)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before watermark commit: %w", err)
	}
	if err := o.store.Save(result.Until); err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	result.WatermarkSaved = true
	logging.Info(subsystem, "Watermark advanced to %s", result.Until)
	return nil
}

func describeEvent(ev reconciler.ChangeEvent) string {
	if ev.Log == nil {
		return fmt.Sprintf("%s entry for %s", ev.Type, ev.Title)
	}
	return fmt.Sprintf("%s log entry for %s", strings.Join([]string{ev.Log.Type, ev.Log.Action}, "/"), ev.Title)
}

type nopProgress struct{}

func (nopProgress) Step(string) {}
func (nopProgress) Done(string) {}
func (nopProgress) Fail(string) {}
