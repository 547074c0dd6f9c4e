package fsutil

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// Chowner changes the ownership of a path by user and group name.
type Chowner interface {
	Chown(path, owner, group string) error
}

// SystemChowner resolves names through the host's user database.
type SystemChowner struct{}

// Chown sets path ownership to owner:group.
func (SystemChowner) Chown(path, owner, group string) error {
	uid, err := lookupUID(owner)
	if err != nil {
		return err
	}

	gid, err := lookupGID(group)
	if err != nil {
		return err
	}

	if err = os.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("chown %s to %s:%s: %w", path, owner, group, err)
	}

	return nil
}

// Exists reports whether path exists. Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

func lookupUID(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, fmt.Errorf("lookup user %q: %w", name, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, fmt.Errorf("parse uid of %q: %w", name, err)
	}

	return uid, nil
}

func lookupGID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, fmt.Errorf("lookup group %q: %w", name, err)
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("parse gid of %q: %w", name, err)
	}

	return gid, nil
}
