//go:build unix

package shell

import (
	"fmt"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"
)

// runAs configures process to run with the uid and primary gid of name.
// The current user needs no credential switch.
func runAs(process *exec.Cmd, name string) error {
	if name == "" {
		return nil
	}

	current, err := user.Current()
	if err == nil && current.Username == name {
		return nil
	}

	target, err := user.Lookup(name)
	if err != nil {
		return fmt.Errorf("lookup user %q: %w", name, err)
	}

	uid, err := strconv.ParseUint(target.Uid, 10, 32)
	if err != nil {
		return fmt.Errorf("parse uid of %q: %w", name, err)
	}

	gid, err := strconv.ParseUint(target.Gid, 10, 32)
	if err != nil {
		return fmt.Errorf("parse gid of %q: %w", name, err)
	}

	process.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)},
	}

	process.Env = append(process.Environ(), "HOME="+target.HomeDir, "USER="+name)

	return nil
}
