package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestReport_Add forces failed outcome when an error is given.
func TestReport_Add(t *testing.T) {
	t.Parallel()

	r := NewReport(time.Unix(100, 0))
	r.Add("install-root", OutcomeDone, time.Second, nil)
	r.Add("fetch-archive", OutcomeDone, time.Second, errors.New("boom"))
	r.Add("unpack-archive", OutcomeSkipped, 0, nil)

	require.Len(t, r.Steps, 3)
	require.Equal(t, OutcomeFailed, r.Steps[1].Outcome)
	require.Equal(t, "boom", r.Steps[1].Error)
	require.True(t, r.Failed())
	require.Equal(t, 1, r.Count(OutcomeDone))
	require.Equal(t, 1, r.Count(OutcomeSkipped))
}

// TestReport_Merge appends the other report's steps.
func TestReport_Merge(t *testing.T) {
	t.Parallel()

	r := NewReport(time.Now())
	r.Add("a", OutcomeDone, 0, nil)

	other := NewReport(time.Now())
	other.Add("b", OutcomeSkipped, 0, nil)
	other.Add("c", OutcomeDone, 0, nil)

	r.Merge(other)
	r.Merge(nil)
	require.Len(t, r.Steps, 3)
	require.Len(t, other.Steps, 2)
	require.False(t, r.Failed())
}
