package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestObserveStep increments counters per step and result.
func TestObserveStep(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveStep("fetch-archive", ResultDone, time.Second)
	m.ObserveStep("fetch-archive", ResultSkipped, 0)
	m.ObserveStep("fetch-archive", ResultSkipped, 0)

	require.InDelta(t, 1, testutil.ToFloat64(m.stepsTotal.WithLabelValues("fetch-archive", ResultDone)), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.stepsTotal.WithLabelValues("fetch-archive", ResultSkipped)), 0)
	require.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

// TestObserveComponent counts component results by type.
func TestObserveComponent(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveComponent("platform", ResultDone)
	m.ObserveComponent("bad", ResultFailed)

	require.InDelta(t, 1, testutil.ToFloat64(m.componentsTotal.WithLabelValues("platform", ResultDone)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.componentsTotal.WithLabelValues("bad", ResultFailed)), 0)
}

// TestNilMetrics is a no-op.
func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics

	m.ObserveStep("x", ResultDone, 0)
	m.ObserveComponent("platform", ResultDone)
	m.MarkFinished(time.Now())
	require.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

// TestWriteTextfile produces the exposition format.
func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveStep("unpack-archive", ResultDone, 2*time.Second)
	m.MarkFinished(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "sdk.prom")
	require.NoError(t, m.WriteTextfile(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `sdk_provisioner_step_total{result="done",step="unpack-archive"} 1`)
	require.Contains(t, string(contents), "sdk_provisioner_last_run_timestamp_seconds 1.7e+09")
}
