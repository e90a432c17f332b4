package formatting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatPlan prints the sync window followed by one table per non-empty
// section of the plan.
func (f *TableFormatter) FormatPlan(w io.Writer, report PlanReport) error {
	fmt.Fprintf(w, "%s %s .. %s (%d change(s))\n",
		f.color(text.FgHiBlue, "Window:"), report.Since, report.Until, report.Events)

	if len(report.Pending) == 0 && len(report.Moves) == 0 {
		fmt.Fprintln(w, f.color(text.FgYellow, "Nothing to sync"))
	}

	if len(report.Pending) > 0 {
		t := f.createTable(w, "Pages to import")
		t.AppendHeader(table.Row{f.header("TITLE"), f.header("MOVED FROM"), f.header("MINOR")})
		for _, p := range report.Pending {
			t.AppendRow(table.Row{p.Title, p.OldTitle, f.yesNo(p.Minor)})
		}
		t.Render()
	}

	if len(report.Moves) > 0 {
		t := f.createTable(w, "Moves to replay")
		t.AppendHeader(table.Row{f.header("#"), f.header("FROM"), f.header("TO")})
		for i, m := range report.Moves {
			t.AppendRow(table.Row{i + 1, m.From, m.To})
		}
		t.Render()
	}

	if len(report.Excluded) > 0 {
		t := f.createTable(w, "Excluded")
		t.AppendHeader(table.Row{f.header("TITLE")})
		for _, title := range report.Excluded {
			t.AppendRow(table.Row{title})
		}
		t.Render()
	}

	if len(report.Uploads) > 0 {
		t := f.createTable(w, "File uploads (not transferred)")
		t.AppendHeader(table.Row{f.header("FILE"), f.header("PAGE ID")})
		for _, u := range report.Uploads {
			t.AppendRow(table.Row{u.Title, strconv.FormatInt(u.PageID, 10)})
		}
		t.Render()
	}
	return nil
}

// FormatResult prints the run counters as key/value rows.
func (f *TableFormatter) FormatResult(w io.Writer, report ResultReport) error {
	t := f.createTable(w, "")
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})
	t.AppendRows([]table.Row{
		{"Run", report.RunID},
		{"Window", report.Since + " .. " + report.Until},
		{"Changes", report.Events},
		{"Pages imported", report.PagesImported},
		{"Moves applied", report.MovesApplied},
		{"Moves failed", report.MovesFailed},
		{"Excluded", report.Excluded},
		{"Uploads skipped", report.UploadsSkipped},
		{"Watermark saved", f.yesNo(report.WatermarkSaved)},
	})
	if report.DryRun {
		t.AppendFooter(table.Row{"", f.color(text.FgYellow, "dry run: nothing was written")})
	}
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.color(text.FgHiCyan, s)
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (f *TableFormatter) yesNo(b bool) string {
	if b {
		return f.color(text.FgGreen, "yes")
	}
	return "no"
}
