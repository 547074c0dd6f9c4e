package shell

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// TestCommand_AppendArgs splits quoted words and ignores blank input.
func TestCommand_AppendArgs(t *testing.T) {
	t.Parallel()

	cmd := &Command{Name: "/opt/sdk/tools/android", Args: []string{"update", "sdk"}}

	require.NoError(t, cmd.AppendArgs(""))
	require.NoError(t, cmd.AppendArgs("   "))
	require.Equal(t, "/opt/sdk/tools/android update sdk", cmd.String())

	require.NoError(t, cmd.AppendArgs("--proxy-host myhost --proxy-port 1234"))
	require.Equal(t, []string{"update", "sdk", "--proxy-host", "myhost", "--proxy-port", "1234"}, cmd.Args)
	require.Equal(t, "/opt/sdk/tools/android update sdk --proxy-host myhost --proxy-port 1234", cmd.String())

	require.NoError(t, cmd.AppendArgs(`--name "two words"`))
	require.Equal(t, "two words", cmd.Args[len(cmd.Args)-1])
}

// TestExecRunner_Run runs a real shell with a working directory and stdin.
func TestExecRunner_Run(t *testing.T) {
	t.Parallel()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	dir := t.TempDir()
	current, err := user.Current()
	require.NoError(t, err)

	cmd := &Command{
		Name:  sh,
		Args:  []string{"-c", "read answer && echo $answer > marker"},
		Dir:   dir,
		User:  current.Username,
		Stdin: "y\n",
	}

	require.NoError(t, NewExecRunner().Run(context.Background(), cmd))

	contents, err := os.ReadFile(filepath.Join(dir, "marker"))
	require.NoError(t, err)
	require.Equal(t, "y\n", string(contents))
}

// TestExecRunner_Failure includes the process output in the error.
func TestExecRunner_Failure(t *testing.T) {
	t.Parallel()

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	err = NewExecRunner().Run(context.Background(), &Command{
		Name: sh,
		Args: []string{"-c", "echo broken archive >&2; exit 3"},
	})
	require.ErrorContains(t, err, "broken archive")
	require.ErrorContains(t, err, "exit status 3")

	require.ErrorIs(t, NewExecRunner().Run(context.Background(), &Command{}), errEmptyCommand)
}

// TestTail keeps the output end and never splits a rune.
func TestTail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "short", input: "  done \n", n: 10, want: "done"},
		{name: "ascii cut", input: "abcdef", n: 3, want: "...def"},
		{name: "cut inside rune", input: "ошибка", n: 3, want: "...а"},
		{name: "cut on rune start", input: "ошибка", n: 4, want: "...ка"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tail(tt.input, tt.n)
			require.Equal(t, tt.want, got)
			require.True(t, utf8.ValidString(got))
		})
	}
}
