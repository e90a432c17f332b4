package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows the current step of a sync run as a spinner on stderr.
// A quiet Progress prints nothing.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	spinner *spinner.Spinner
	running bool
}

// NewProgress creates a spinner writing to w. When quiet is set, or w is
// nil, the returned Progress is silent.
func NewProgress(w io.Writer, quiet bool) *Progress {
	p := &Progress{}
	if quiet || w == nil {
		return p
	}
	p.w = w
	p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	return p
}

// Step shows msg as the current step.
func (p *Progress) Step(msg string) {
	if p.spinner == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.spinner.Suffix = " " + msg
	if !p.running {
		p.spinner.Start()
		p.running = true
	}
}

// Done stops the spinner, leaving msg on the terminal if non-empty.
func (p *Progress) Done(msg string) {
	p.finish(msg, text.FgGreen)
}

// Fail stops the spinner, leaving msg in red if non-empty.
func (p *Progress) Fail(msg string) {
	p.finish(msg, text.FgRed)
}

func (p *Progress) finish(msg string, color text.Color) {
	if p.spinner == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	// The spinner only animates on a terminal; the final line is written
	// directly so it also reaches pipes and log files.
	p.spinner.Stop()
	p.running = false
	if msg != "" {
		fmt.Fprintln(p.w, color.Sprint(msg))
	}
}
