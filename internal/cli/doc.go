// Package cli holds the terminal-facing helpers shared by wikisync commands.
//
// Describe turns the errors a run can end with (invalid configuration, a
// missing watermark, a rejected login, transport and API failures) into a
// message that tells the operator what to fix.
//
// Progress shows a spinner on stderr while a sync runs. The spinner only
// animates on a terminal; the closing line of a step is always written
// unless --quiet is set.
package cli
