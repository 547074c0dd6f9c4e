package pkgmanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/shell"
)

// Manager makes sure a named OS package is installed.
type Manager interface {
	// Ensure installs name unless it is already present. It reports whether anything was installed.
	Ensure(ctx context.Context, name string) (bool, error)
}

// backend describes the commands of one package manager.
type backend struct {
	name    string
	query   func(pkg string) *shell.Command
	install func(pkg string) *shell.Command
}

// Native is a Manager driven by the host package manager commands.
type Native struct {
	backend backend
	runner  shell.Runner
	// installMu serializes installs; yum and apt refuse to run concurrently.
	installMu sync.Mutex
}

//nolint:gochecknoglobals // Read-only lookup table.
var (
	yumBackend = backend{
		name: "yum",
		query: func(pkg string) *shell.Command {
			return &shell.Command{Name: "rpm", Args: []string{"-q", pkg}}
		},
		install: func(pkg string) *shell.Command {
			return &shell.Command{Name: "yum", Args: []string{"install", "-y", pkg}}
		},
	}
	aptBackend = backend{
		name: "apt",
		query: func(pkg string) *shell.Command {
			return &shell.Command{Name: "dpkg", Args: []string{"-s", pkg}}
		},
		install: func(pkg string) *shell.Command {
			return &shell.Command{Name: "apt-get", Args: []string{"install", "-y", pkg}}
		},
	}
)

// NewYum returns a Manager for RedHat-family hosts.
func NewYum(runner shell.Runner) *Native {
	return &Native{backend: yumBackend, runner: runner}
}

// NewApt returns a Manager for Debian-family hosts.
func NewApt(runner shell.Runner) *Native {
	return &Native{backend: aptBackend, runner: runner}
}

// ForFamily picks the package manager of an OS family. Unknown families have none.
//
//nolint:ireturn // Callers only need the Manager behavior.
func ForFamily(family platform.OSFamily, runner shell.Runner) (Manager, bool) {
	switch family {
	case platform.OSFamilyRedHat:
		return NewYum(runner), true
	case platform.OSFamilyDebian:
		return NewApt(runner), true
	default:
		return nil, false
	}
}

// Ensure queries the package database and installs name when the query fails.
func (m *Native) Ensure(ctx context.Context, name string) (bool, error) {
	ctx = logger.WithKV(ctx, "package", name)

	if err := m.runner.Run(ctx, m.backend.query(name)); err == nil {
		logger.Debug(ctx, "Package already installed")
		return false, nil
	}

	m.installMu.Lock()
	defer m.installMu.Unlock()

	logger.InfoKV(ctx, "Installing package", "manager", m.backend.name)

	if err := m.runner.Run(ctx, m.backend.install(name)); err != nil {
		return false, fmt.Errorf("%s install %s: %w", m.backend.name, name, err)
	}

	return true, nil
}
