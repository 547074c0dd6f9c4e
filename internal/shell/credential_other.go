//go:build !unix

package shell

import (
	"errors"
	"os/exec"
)

// errRunAsUnsupported is returned when a user switch is requested on a platform without credentials.
var errRunAsUnsupported = errors.New("running commands as another user is not supported on this platform")

func runAs(_ *exec.Cmd, name string) error {
	if name == "" {
		return nil
	}

	return errRunAsUnsupported
}
