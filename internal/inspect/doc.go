// Package inspect implements the interactive REPL of 'wikisync inspect'.
//
// The REPL works on an orchestrator.Window computed before it starts, so
// browsing events, pending pages, moves, exclusions and uploads never
// touches either wiki. Commands are kept in a Registry with aliases and
// tab completion through chzyer/readline.
package inspect
