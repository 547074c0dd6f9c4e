//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another provisioner process is active.
var ErrAlreadyRunning = errors.New("another provisioner process is already running")

// ProcessLister lists running processes.
type ProcessLister func() ([]ps.Process, error)

// EnsureSingleInstance fails when a process with the same executable name as
// this one, other than itself, is running.
func EnsureSingleInstance(list ProcessLister) error {
	if list == nil {
		list = ps.Processes
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	return checkSingleInstance(list, processName(filepath.Base(self), runtime.GOOS), os.Getpid())
}

// linuxCommLength is the size limit of /proc/<pid>/stat comm, which go-ps reports on Linux.
const linuxCommLength = 15

// processName is how the process table shows an executable named base.
func processName(base, goos string) string {
	if goos == "linux" && len(base) > linuxCommLength {
		return base[:linuxCommLength]
	}

	return base
}

func checkSingleInstance(list ProcessLister, name string, selfPID int) error {
	processes, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processes {
		if process.Pid() == selfPID || process.Executable() != name {
			continue
		}

		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, process.Pid())
	}

	return nil
}
