package component

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/sdk-provisioner/internal/domain/component"
	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/fsutil"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/metrics"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
	"github.com/oshokin/sdk-provisioner/internal/shell"
)

var (
	// ErrSDKMissing is returned when the SDK tools are not unpacked yet.
	ErrSDKMissing = errors.New("SDK tools are not installed")
	// ErrUpdateFailed wraps failures of the SDK manager process.
	ErrUpdateFailed = errors.New("component update failed")
	// errUnknownState is returned for a state the machine cannot leave.
	errUnknownState = errors.New("unknown component state")
)

// Updater installs SDK components into a resolved SDK.
type Updater struct {
	resolved platform.Resolved
	runner   shell.Runner
	metrics  *metrics.Metrics
	exists   func(path string) (bool, error)
	now      func() time.Time
}

// Option configures an Updater.
type Option func(*Updater)

// WithRunner replaces the command runner.
func WithRunner(runner shell.Runner) Option {
	return func(u *Updater) {
		u.runner = runner
	}
}

// WithMetrics records update outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Updater) {
		u.metrics = m
	}
}

// NewUpdater creates an Updater for the SDK described by resolved.
func NewUpdater(resolved platform.Resolved, opts ...Option) *Updater {
	u := &Updater{
		resolved: resolved,
		exists:   fsutil.Exists,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.runner == nil {
		u.runner = shell.NewExecRunner()
	}

	return u
}

// Update drives req through the update state machine and returns the terminal state.
//
// The request is validated before anything else, so an unsupported type
// is rejected without touching the filesystem or starting a process.
func (u *Updater) Update(ctx context.Context, req component.Request) (component.State, error) {
	ctx = logger.WithKV(ctx, "component", req.String())

	state, err := u.update(ctx, req)

	result := metrics.ResultFailed

	switch state {
	case component.StateSkipped:
		result = metrics.ResultSkipped
	case component.StateDone:
		result = metrics.ResultDone
	}

	u.metrics.ObserveComponent(string(req.Type), result)

	return state, err
}

// update advances req from Unvalidated until a terminal state is reached.
func (u *Updater) update(ctx context.Context, req component.Request) (component.State, error) {
	var (
		state = component.StateUnvalidated
		err   error
	)

	for !state.IsTerminal() {
		var next component.State

		next, err = u.advance(ctx, state, req)
		logger.DebugKV(ctx, "Component state changed", "from", state, "to", next)
		state = next
	}

	if err != nil {
		logger.ErrorKV(ctx, "Component update failed", "state", state, "error", err)
	}

	return state, err
}

// advance performs the action of state and returns the next state.
func (u *Updater) advance(ctx context.Context, state component.State, req component.Request) (component.State, error) {
	switch state {
	case component.StateUnvalidated:
		if err := req.Validate(); err != nil {
			return component.StateRejected, err
		}

		return component.StateValidated, nil
	case component.StateValidated:
		marker := req.MarkerPath(u.resolved.SDKRoot)

		installed, err := u.exists(marker)
		if err != nil {
			return component.StateFailed, err
		}

		if installed {
			logger.DebugKV(ctx, "Component already installed", "marker", marker)
			return component.StateSkipped, nil
		}

		return component.StateExecuting, nil
	case component.StateExecuting:
		return u.execute(ctx, req)
	default:
		return component.StateFailed, fmt.Errorf("%w: %q", errUnknownState, state)
	}
}

// execute runs the SDK manager for req.
func (u *Updater) execute(ctx context.Context, req component.Request) (component.State, error) {
	tools, err := u.exists(u.resolved.ToolsPath)
	if err != nil {
		return component.StateFailed, err
	}

	if !tools {
		return component.StateFailed, fmt.Errorf("%w: %s", ErrSDKMissing, u.resolved.ToolsPath)
	}

	cmd, err := common.SDKUpdateCommand(u.resolved, req.Name)
	if err != nil {
		return component.StateFailed, err
	}

	logger.InfoKV(ctx, "Installing component", "command", cmd.String())

	if err = u.runner.Run(ctx, cmd); err != nil {
		return component.StateFailed, fmt.Errorf("%w: %s: %w", ErrUpdateFailed, req, err)
	}

	logger.InfoKV(ctx, "Component installed", "marker", req.MarkerPath(u.resolved.SDKRoot))

	return component.StateDone, nil
}

// UpdateAll updates every request in order and records each one in a report.
// Every request is attempted; the returned error combines all failures.
func (u *Updater) UpdateAll(ctx context.Context, requests []component.Request) (*run.Report, error) {
	report := run.NewReport(u.now())

	var errs error

	for _, req := range requests {
		started := u.now()

		state, err := u.Update(ctx, req)

		outcome := run.OutcomeFailed

		switch {
		case state == component.StateSkipped:
			outcome = run.OutcomeSkipped
		case state.IsSuccess():
			outcome = run.OutcomeDone
		}

		report.Add(StepName(req), outcome, u.now().Sub(started), err)

		errs = multierr.Append(errs, err)
	}

	report.FinishedAt = u.now()

	return report, errs
}

// StepName is the report entry name of a component update.
func StepName(req component.Request) string {
	return "component:" + req.String()
}
