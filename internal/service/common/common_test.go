//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/sdk-provisioner/internal/domain/component"
	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/host"
)

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

type staticProber struct {
	facts platform.Facts
}

func (p staticProber) Detect(host.Overrides) (platform.Facts, error) {
	return p.facts, nil
}

func listing(processes ...ps.Process) ProcessLister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

// TestCheckSingleInstance ignores itself and unrelated processes.
func TestCheckSingleInstance(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkSingleInstance(listing(
		fakeProcess{pid: 10, name: "sdk-provisioner"},
		fakeProcess{pid: 11, name: "bash"},
	), "sdk-provisioner", 10))

	err := checkSingleInstance(listing(
		fakeProcess{pid: 10, name: "sdk-provisioner"},
		fakeProcess{pid: 12, name: "sdk-provisioner"},
	), "sdk-provisioner", 10)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	require.ErrorContains(t, err, "pid 12")

	err = checkSingleInstance(func() ([]ps.Process, error) {
		return nil, errors.New("no procfs")
	}, "sdk-provisioner", 10)
	require.ErrorContains(t, err, "list processes")
}

// TestProcessName matches the truncated comm Linux reports for long names.
func TestProcessName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "sdk-provisioner", processName("sdk-provisioner", "linux"))
	require.Equal(t, "sdk-provisioner", processName("sdk-provisioner-linux-amd64", "linux"))
	require.Equal(t, "sdk-provisioner-darwin-amd64", processName("sdk-provisioner-darwin-amd64", "darwin"))

	err := checkSingleInstance(listing(
		fakeProcess{pid: 10, name: "sdk-provisioner"},
		fakeProcess{pid: 20, name: "sdk-provisioner"},
	), processName("sdk-provisioner-linux-amd64", "linux"), 10)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

// TestEnsureSingleInstance_Real runs against the live process table.
func TestEnsureSingleInstance_Real(t *testing.T) {
	t.Parallel()

	require.NoError(t, EnsureSingleInstance(nil))
}

// TestPrepare resolves the platform from settings and probed facts.
func TestPrepare(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("install_dir: /myinstalldir\nproxy_host: myhost\nproxy_port: \"1234\"\n"), 0o600))

	env, err := Prepare(context.Background(), &Options{ConfigPath: path}, staticProber{
		facts: platform.Facts{Kernel: platform.KernelDarwin},
	})
	require.NoError(t, err)
	require.Equal(t, "/myinstalldir/android-sdk-macosx", env.Resolved.SDKRoot)
	require.Equal(t, "admin", env.Resolved.Group)
	require.Equal(t, "--proxy-host myhost --proxy-port 1234", env.Resolved.ProxyArgs)
	require.NotNil(t, env.Metrics)
}

// TestPrepare_UnsupportedComponent fails before probing the host.
func TestPrepare_UnsupportedComponent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components:\n  - name: android-15\n    type: bad\n"), 0o600))

	_, err := Prepare(context.Background(), &Options{ConfigPath: path}, staticProber{})
	require.ErrorIs(t, err, component.ErrUnsupportedType)
	require.ErrorContains(t, err, "Unsupported package type: bad")
}
