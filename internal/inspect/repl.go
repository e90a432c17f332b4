package inspect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"

	"wikisync/internal/orchestrator"
	"wikisync/internal/reconciler"
	"wikisync/pkg/logging"
)

const subsystem = "Inspect"

// REPL is an interactive browser over a computed sync window. It never
// talks to a wiki; everything it shows was fetched before it started.
type REPL struct {
	window   *orchestrator.Window
	out      io.Writer
	registry *Registry
	rl       *readline.Instance
}

// NewREPL creates a REPL over win writing to out.
func NewREPL(win *orchestrator.Window, out io.Writer) *REPL {
	r := &REPL{
		window:   win,
		out:      out,
		registry: NewRegistry(),
	}
	r.registerCommands()
	return r
}

func (r *REPL) registerCommands() {
	r.registry.Register("help", &command{
		usage:       "help [command]",
		description: "Show help information for commands",
		aliases:     []string{"?"},
		complete:    func(string) []string { return r.registry.List() },
		run:         r.help,
	})
	r.registry.Register("summary", &command{
		usage:       "summary",
		description: "Show the window and what a sync would do",
		run:         func([]string) error { r.summary(); return nil },
	})
	r.registry.Register("events", &command{
		usage:       "events [title]",
		description: "List change events, optionally only those touching a title",
		complete:    func(string) []string { return r.eventTitles() },
		run:         r.events,
	})
	r.registry.Register("pending", &command{
		usage:       "pending",
		description: "List the pages that would be exported and imported",
		run:         func([]string) error { r.pending(); return nil },
	})
	r.registry.Register("moves", &command{
		usage:       "moves",
		description: "List the moves that would be replayed, in order",
		run:         func([]string) error { r.moves(); return nil },
	})
	r.registry.Register("excluded", &command{
		usage:       "excluded",
		description: "List the titles dropped by the exclusion category",
		run:         func([]string) error { r.excluded(); return nil },
	})
	r.registry.Register("uploads", &command{
		usage:       "uploads",
		description: "List file uploads seen in the window (never transferred)",
		run:         func([]string) error { r.uploads(); return nil },
	})
	r.registry.Register("exit", &command{
		usage:       "exit",
		description: "Exit the REPL",
		aliases:     []string{"quit", "q"},
		run:         func([]string) error { return errExit },
	})
}

// Execute runs one input line. It returns errExit for exit.
func (r *REPL) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := r.registry.Get(strings.ToLower(parts[0]))
	if !ok {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}
	return cmd.Execute(parts[1:])
}

// Run reads commands until exit, EOF or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "wikisync » ",
		HistoryFile:       filepath.Join(os.TempDir(), ".wikisync_inspect_history"),
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	fmt.Fprintln(r.out, "Type 'help' for available commands. Use TAB for completion.")
	r.summary()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := r.Execute(line); err != nil {
			if err == errExit {
				return nil
			}
			logging.Debug(subsystem, "Command %q failed: %v", line, err)
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

func (r *REPL) completer() readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range r.registry.List() {
		cmd, _ := r.registry.Get(name)
		c := cmd
		items = append(items, readline.PcItem(name, readline.PcItemDynamic(func(line string) []string {
			return c.Completions(line)
		})))
	}
	return readline.NewPrefixCompleter(items...)
}

func (r *REPL) help(args []string) error {
	if len(args) > 0 {
		cmd, ok := r.registry.Get(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(r.out, "Usage: %s\n%s\n", cmd.Usage(), cmd.Description())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(r.out, "Aliases: %s\n", strings.Join(aliases, ", "))
		}
		return nil
	}

	fmt.Fprintln(r.out, "Available commands:")
	for _, name := range r.registry.List() {
		cmd, _ := r.registry.Get(name)
		fmt.Fprintf(r.out, "  %-16s - %s\n", cmd.Usage(), cmd.Description())
	}
	return nil
}

func (r *REPL) summary() {
	p := r.window.Plan
	fmt.Fprintf(r.out, "Window %s .. %s\n", r.window.Since, r.window.Until)
	fmt.Fprintf(r.out, "  %d change event(s), %d title(s) in the exclusion set\n", len(r.window.Events), r.window.ExcludedTitles)
	fmt.Fprintf(r.out, "  %d page(s) to import, %d move(s) to replay\n", len(p.Titles), len(p.Moves))
	fmt.Fprintf(r.out, "  %d excluded, %d upload(s) not transferred\n", len(p.Excluded), len(p.Uploads))
}

func (r *REPL) events(args []string) error {
	filter := strings.Join(args, " ")

	t := r.newTable()
	t.AppendHeader(table.Row{"#", "TIMESTAMP", "TYPE", "TITLE", "DETAIL"})
	shown := 0
	for i, ev := range r.window.Events {
		if filter != "" && !touches(ev, filter) {
			continue
		}
		t.AppendRow(table.Row{i + 1, ev.Timestamp, eventType(ev), ev.Title, eventDetail(ev)})
		shown++
	}
	if shown == 0 {
		if filter != "" {
			fmt.Fprintf(r.out, "No events for %s\n", filter)
		} else {
			fmt.Fprintln(r.out, "No events")
		}
		return nil
	}
	t.Render()
	return nil
}

func (r *REPL) pending() {
	p := r.window.Plan
	if len(p.Titles) == 0 {
		fmt.Fprintln(r.out, "No pages to import")
		return
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"TITLE", "MOVED FROM", "MINOR"})
	for _, title := range p.Titles {
		a := p.Pending[title]
		t.AppendRow(table.Row{a.Title, a.OldTitle, yesNo(a.Minor)})
	}
	t.Render()
}

func (r *REPL) moves() {
	moves := r.window.Plan.Moves
	if len(moves) == 0 {
		fmt.Fprintln(r.out, "No moves to replay")
		return
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"#", "FROM", "TO"})
	for i, m := range moves {
		t.AppendRow(table.Row{i + 1, m.From, m.To})
	}
	t.Render()
}

func (r *REPL) excluded() {
	if len(r.window.Plan.Excluded) == 0 {
		fmt.Fprintln(r.out, "Nothing excluded")
		return
	}
	for _, title := range r.window.Plan.Excluded {
		fmt.Fprintln(r.out, title)
	}
}

func (r *REPL) uploads() {
	titles := r.window.Plan.UploadTitles()
	if len(titles) == 0 {
		fmt.Fprintln(r.out, "No file uploads")
		return
	}
	t := r.newTable()
	t.AppendHeader(table.Row{"FILE", "PAGE ID"})
	for _, title := range titles {
		t.AppendRow(table.Row{title, r.window.Plan.Uploads[title]})
	}
	t.Render()
}

func (r *REPL) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	return t
}

func (r *REPL) eventTitles() []string {
	seen := make(map[string]struct{})
	for _, ev := range r.window.Events {
		seen[ev.Title] = struct{}{}
		if ev.Log != nil && ev.Log.Params.TargetTitle != "" {
			seen[ev.Log.Params.TargetTitle] = struct{}{}
		}
	}
	titles := make([]string, 0, len(seen))
	for title := range seen {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// touches reports whether ev concerns title, as subject or move target.
func touches(ev reconciler.ChangeEvent, title string) bool {
	if ev.Title == title {
		return true
	}
	return ev.Log != nil && ev.Log.Params.TargetTitle == title
}

func eventType(ev reconciler.ChangeEvent) string {
	if ev.Log == nil {
		return string(ev.Type)
	}
	return ev.Log.Type + "/" + ev.Log.Action
}

func eventDetail(ev reconciler.ChangeEvent) string {
	var details []string
	if ev.Minor {
		details = append(details, "minor")
	}
	if ev.Log != nil && ev.Log.Params.TargetTitle != "" {
		details = append(details, "→ "+ev.Log.Params.TargetTitle)
		if ev.Log.Params.SuppressRedirect {
			details = append(details, "no redirect")
		}
	}
	if !reconciler.Relevant(ev) {
		details = append(details, "ignored")
	}
	return strings.Join(details, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
