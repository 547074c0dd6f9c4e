package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
)

func writeOSRelease(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestDetect_Linux maps os-release IDs onto families.
func TestDetect_Linux(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		osRelease string
		want      platform.OSFamily
	}{
		{name: "centos", osRelease: "NAME=\"CentOS Linux\"\nID=\"centos\"\nID_LIKE=\"rhel fedora\"\n", want: platform.OSFamilyRedHat},
		{name: "ubuntu", osRelease: "ID=ubuntu\nID_LIKE=debian\n", want: platform.OSFamilyDebian},
		{name: "mint", osRelease: "# comment\nID=linuxmint\nID_LIKE=\"ubuntu debian\"\n", want: platform.OSFamilyDebian},
		{name: "alpine", osRelease: "ID=alpine\n", want: platform.OSFamily("alpine")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &Prober{goos: "linux", goarch: "amd64", osReleasePath: writeOSRelease(t, tt.osRelease)}

			facts, err := p.Detect(Overrides{})
			require.NoError(t, err)
			require.Equal(t, platform.KernelLinux, facts.Kernel)
			require.Equal(t, platform.ArchitectureX86_64, facts.Architecture)
			require.Equal(t, tt.want, facts.OSFamily)
		})
	}
}

// TestDetect_Darwin does not read os-release.
func TestDetect_Darwin(t *testing.T) {
	t.Parallel()

	p := &Prober{goos: "darwin", goarch: "arm64", osReleasePath: "/nonexistent"}

	facts, err := p.Detect(Overrides{})
	require.NoError(t, err)
	require.Equal(t, platform.Facts{
		Kernel:       platform.KernelDarwin,
		OSFamily:     platform.OSFamily("Darwin"),
		Architecture: platform.Architecture("arm64"),
	}, facts)
}

// TestDetect_Overrides wins over probed values.
func TestDetect_Overrides(t *testing.T) {
	t.Parallel()

	p := &Prober{goos: "linux", goarch: "arm64", osReleasePath: filepath.Join(t.TempDir(), "missing")}

	facts, err := p.Detect(Overrides{Kernel: "darwin", OSFamily: "debian", Architecture: "x86_64"})
	require.NoError(t, err)
	require.Equal(t, platform.Facts{
		Kernel:       platform.KernelDarwin,
		OSFamily:     platform.OSFamilyDebian,
		Architecture: platform.ArchitectureX86_64,
	}, facts)
}

// TestDetect_MissingOSRelease yields an unknown family.
func TestDetect_MissingOSRelease(t *testing.T) {
	t.Parallel()

	p := &Prober{goos: "linux", goarch: "amd64", osReleasePath: filepath.Join(t.TempDir(), "missing")}

	facts, err := p.Detect(Overrides{})
	require.NoError(t, err)
	require.Empty(t, facts.OSFamily)
}
