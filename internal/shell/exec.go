package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/sdk-provisioner/internal/logger"
)

// maxLoggedOutput caps how much process output is attached to an error.
const maxLoggedOutput = 4096

// ExecRunner runs commands as real processes.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts cmd, waits for it and logs its combined output at debug level.
// A non-zero exit status is returned as an error carrying the output tail.
func (r *ExecRunner) Run(ctx context.Context, cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	process := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	process.Dir = cmd.Dir

	if cmd.Stdin != "" {
		process.Stdin = strings.NewReader(cmd.Stdin)
	}

	if err := runAs(process, cmd.User); err != nil {
		return err
	}

	var output bytes.Buffer

	process.Stdout = &output
	process.Stderr = &output

	logger.DebugKV(ctx, "Running command", "command", cmd.String(), "dir", cmd.Dir, "user", cmd.User)

	err := process.Run()

	logger.Debugf(ctx, "Command output:\n%s", output.String())

	if err != nil {
		return fmt.Errorf("run %q: %w: %s", cmd.String(), err, tail(output.String(), maxLoggedOutput))
	}

	return nil
}

// tail returns at most n trailing bytes of s, cut on a rune boundary.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}

	return "..." + s[cut:]
}
