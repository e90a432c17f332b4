package inspect

import (
	"errors"
	"sort"
)

// errExit is returned by the exit command to end the loop.
var errExit = errors.New("exit")

// Command is one REPL command.
type Command interface {
	// Execute runs the command with the given arguments
	Execute(args []string) error

	// Usage returns the usage string for the command
	Usage() string

	// Description returns a brief description of what the command does
	Description() string

	// Completions returns possible completions for the command's argument
	Completions(input string) []string

	// Aliases returns alternative names for this command
	Aliases() []string
}

// Registry manages the available commands.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command to the registry.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}
	if primary, exists := r.aliases[name]; exists {
		cmd, exists := r.commands[primary]
		return cmd, exists
	}
	return nil, false
}

// List returns the registered command names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// command is a Command assembled from functions.
type command struct {
	usage       string
	description string
	aliases     []string
	complete    func(input string) []string
	run         func(args []string) error
}

func (c *command) Execute(args []string) error { return c.run(args) }
func (c *command) Usage() string               { return c.usage }
func (c *command) Description() string         { return c.description }
func (c *command) Aliases() []string           { return c.aliases }

func (c *command) Completions(input string) []string {
	if c.complete == nil {
		return nil
	}
	return c.complete(input)
}
