package provisioner

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/logger"
)

// compatibilityKey selects a package list.
type compatibilityKey struct {
	family platform.OSFamily
	arch   platform.Architecture
}

// compatibilityPackages lists the 32-bit libraries the SDK's bundled tools
// need on 64-bit hosts. Combinations not listed need nothing.
//
//nolint:gochecknoglobals // Read-only lookup table.
var compatibilityPackages = map[compatibilityKey][]string{
	{family: platform.OSFamilyRedHat, arch: platform.ArchitectureX86_64}: {"glibc.i686", "zlib.i686", "libstdc++.i686"},
	{family: platform.OSFamilyDebian, arch: platform.ArchitectureX86_64}: {"ia32-libs"},
}

// CompatibilityPackages returns the OS packages required on a host.
func CompatibilityPackages(facts platform.Facts) []string {
	return compatibilityPackages[compatibilityKey{family: facts.OSFamily, arch: facts.Architecture}]
}

// EnsureCompatibilityPackages asserts every compatibility package in parallel.
// All assertions are attempted; their failures are combined.
func (p *Provisioner) EnsureCompatibilityPackages(ctx context.Context) (run.Outcome, error) {
	packages := CompatibilityPackages(p.facts)
	if len(packages) == 0 {
		logger.Debug(ctx, "No compatibility packages needed")
		return run.OutcomeSkipped, nil
	}

	if p.packages == nil {
		return run.OutcomeFailed, fmt.Errorf("%w: %w %q", ErrDependencyAssertion, errNoPackageManager, p.facts.OSFamily)
	}

	var (
		eg        errgroup.Group
		mu        sync.Mutex
		errs      error
		installed bool
	)

	for _, name := range packages {
		eg.Go(func() error {
			changed, err := p.packages.Ensure(ctx, name)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: %w", ErrDependencyAssertion, name, err))
			}

			installed = installed || changed

			return nil
		})
	}

	_ = eg.Wait()

	if errs != nil {
		return run.OutcomeFailed, errs
	}

	if installed {
		return run.OutcomeDone, nil
	}

	return run.OutcomeSkipped, nil
}
