package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Command is a single external process invocation.
type Command struct {
	// Name is the executable path.
	Name string
	// Args are passed verbatim after Name.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// User runs the process under this account; empty means the current user.
	User string
	// Stdin is written to the process input.
	Stdin string
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd *Command) error
}

// errEmptyCommand is returned for commands without an executable.
var errEmptyCommand = errors.New("command has no executable")

// String renders the command line the way a shell user would type it.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)

	return strings.Join(parts, " ")
}

// AppendArgs splits extra with shell quoting rules and appends the words to Args.
// An empty or blank extra leaves Args untouched.
func (c *Command) AppendArgs(extra string) error {
	if strings.TrimSpace(extra) == "" {
		return nil
	}

	words, err := shlex.Split(extra)
	if err != nil {
		return fmt.Errorf("split arguments %q: %w", extra, err)
	}

	c.Args = append(c.Args, words...)

	return nil
}

// Validate checks that the command can be started.
func (c *Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errEmptyCommand
	}

	return nil
}
