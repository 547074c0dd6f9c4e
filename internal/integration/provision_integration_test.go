package integration

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/host"
	"github.com/oshokin/sdk-provisioner/internal/repository/state"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
	"github.com/oshokin/sdk-provisioner/internal/service/provisioner"
	"github.com/oshokin/sdk-provisioner/internal/transfer"
)

// androidTool mimics the SDK manager: it logs its arguments, consumes the
// license answer and creates the platform directory of the requested filter.
const androidTool = `#!/bin/sh
sdk="$(cd "$(dirname "$0")/.." && pwd)"
echo "$*" >> "$sdk/invocations.log"
read answer
if [ "$5" != "platform-tools" ]; then
	mkdir -p "$sdk/platforms/$5"
fi
`

// rewriteTransport sends every request to the test server.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host

	return http.DefaultTransport.RoundTrip(clone)
}

type noopChowner struct{}

func (noopChowner) Chown(string, string, string) error { return nil }

type recordingManager struct {
	mu    sync.Mutex
	names []string
}

func (m *recordingManager) Ensure(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.names = append(m.names, name)

	return false, nil
}

// sdkArchive builds a gzip tarball holding android-sdk-linux/tools/android.
func sdkArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, dir := range []string{"android-sdk-linux/", "android-sdk-linux/tools/"} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: dir, Typeflag: tar.TypeDir, Mode: 0o755}))
	}

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "android-sdk-linux/tools/android",
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(androidTool)),
	}))

	_, err := tw.Write([]byte(androidTool))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

type harness struct {
	dir     string
	archive []byte
	hits    atomic.Int32
	server  *httptest.Server
	manager *recordingManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	if runtime.GOOS != "linux" {
		t.Skip("provisioning uses GNU tar layout")
	}

	if _, err := exec.LookPath("/bin/tar"); err != nil {
		t.Skip("/bin/tar is not available")
	}

	h := &harness{
		dir:     t.TempDir(),
		archive: sdkArchive(t),
		manager: &recordingManager{},
	}

	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/android/android-sdk_r20.0.3-linux.tgz" {
			http.NotFound(w, r)
			return
		}

		h.hits.Add(1)
		_, _ = w.Write(h.archive)
	}))
	t.Cleanup(h.server.Close)

	return h
}

// prepare stores settings owned by the current user and returns the prepared environment.
func (h *harness) prepare(t *testing.T, checksum string) *common.Environment {
	t.Helper()

	current, err := user.Current()
	require.NoError(t, err)

	cfgPath := filepath.Join(h.dir, config.DefaultConfigFilename)
	cfg := &config.Config{
		InstallDir: filepath.Join(h.dir, "android"),
		User:       current.Username,
		Checksum:   checksum,
		StateFile:  filepath.Join(h.dir, "state.json"),
		Components: []config.Component{{Name: "android-15", Type: "platform"}},
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	env, err := common.Prepare(t.Context(), &common.Options{
		ConfigPath: cfgPath,
		Overrides: host.Overrides{
			Kernel:       "Linux",
			OSFamily:     "Debian",
			Architecture: "x86_64",
		},
	}, nil)
	require.NoError(t, err)

	return env
}

func (h *harness) install(t *testing.T, env *common.Environment) (*run.Report, error) {
	t.Helper()

	target, err := url.Parse(h.server.URL)
	require.NoError(t, err)

	fetcher := transfer.NewHTTPFetcher(
		transfer.WithClient(&http.Client{Transport: rewriteTransport{target: target}}),
		transfer.WithChecksum(env.Config.ChecksumBytes()),
	)

	return provisioner.Install(t.Context(), env, state.NewFileRepository(env.Config.StateFile),
		provisioner.WithFetcher(fetcher),
		provisioner.WithChowner(noopChowner{}),
		provisioner.WithPackageManager(h.manager))
}

func invocations(t *testing.T, sdkRoot string) []string {
	t.Helper()

	contents, err := os.ReadFile(filepath.Join(sdkRoot, "invocations.log"))
	require.NoError(t, err)

	return strings.Split(strings.TrimSpace(string(contents)), "\n")
}

// TestInstall_EndToEnd downloads, unpacks and updates through real processes,
// then converges on a second run without fetching or installing anything.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestInstall_EndToEnd(t *testing.T) {
	h := newHarness(t)

	sum := sha256.Sum256(h.archive)
	env := h.prepare(t, hex.EncodeToString(sum[:]))

	report, err := h.install(t, env)
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.Equal(t, int32(1), h.hits.Load())

	require.FileExists(t, env.Resolved.DownloadDestination)
	require.DirExists(t, filepath.Join(env.Resolved.SDKRoot, "platforms", "android-15"))
	require.Equal(t, []string{"ia32-libs"}, h.manager.names)
	require.Equal(t, []string{
		"update sdk -u -t platform-tools",
		"update sdk -u -t android-15",
	}, invocations(t, env.Resolved.SDKRoot))

	journal, err := state.NewFileRepository(env.Config.StateFile).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, journal.Steps, 6)

	// The second run only refreshes platform-tools.
	report, err = h.install(t, env)
	require.NoError(t, err)
	require.Equal(t, int32(1), h.hits.Load())
	require.Equal(t, 5, report.Count(run.OutcomeSkipped))
	require.Len(t, invocations(t, env.Resolved.SDKRoot), 3)

	metricsPath := filepath.Join(h.dir, "sdk-provisioner.prom")
	require.NoError(t, env.Metrics.WriteTextfile(metricsPath))

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(metrics), `sdk_provisioner_step_total{result="skipped",step="fetch-archive"} 1`)
	require.Contains(t, string(metrics), `sdk_provisioner_component_updates_total{result="done",type="platform"} 1`)
}

// TestInstall_ChecksumMismatch leaves no archive behind and never unpacks.
func TestInstall_ChecksumMismatch(t *testing.T) {
	h := newHarness(t)

	sum := sha256.Sum256([]byte("another archive"))
	env := h.prepare(t, hex.EncodeToString(sum[:]))

	report, err := h.install(t, env)
	require.ErrorIs(t, err, provisioner.ErrTransfer)
	require.True(t, report.Failed())
	require.NoFileExists(t, env.Resolved.DownloadDestination)
	require.NoDirExists(t, env.Resolved.SDKRoot)
}
