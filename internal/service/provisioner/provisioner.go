package provisioner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/fsutil"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/metrics"
	"github.com/oshokin/sdk-provisioner/internal/pkgmanager"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
	"github.com/oshokin/sdk-provisioner/internal/shell"
	"github.com/oshokin/sdk-provisioner/internal/transfer"
)

// Step names used in reports, logs and metrics.
const (
	StepInstallRoot   = "install-root"
	StepFetchArchive  = "fetch-archive"
	StepUnpackArchive = "unpack-archive"
	StepCompatibility = "compatibility-packages"
	StepPlatformTools = "platform-tools"
)

// InstallDirMode is applied to a freshly created install root.
const InstallDirMode os.FileMode = 0o755

// PlatformToolsFilter is the SDK manager token refreshed on every run.
const PlatformToolsFilter = "platform-tools"

// stagingSuffix marks a directory holding an extraction in progress.
const stagingSuffix = ".part"

var (
	// ErrTransfer marks archive download failures.
	ErrTransfer = errors.New("transfer failed")
	// ErrExtraction marks archive unpack failures.
	ErrExtraction = errors.New("extraction failed")
	// ErrDependencyAssertion marks compatibility package failures.
	ErrDependencyAssertion = errors.New("dependency assertion failed")
	// ErrPrecondition marks a step whose predecessor's output is missing.
	ErrPrecondition = errors.New("precondition not met")
	// errNoPackageManager is returned when packages are required but no manager is known.
	errNoPackageManager = errors.New("no package manager for os family")
)

// Fetcher transfers an artifact to a local path.
// Implementations must not leave a file at destination when they fail.
type Fetcher interface {
	Fetch(ctx context.Context, url, destination string) error
}

// Provisioner installs the SDK base described by a resolved platform.
type Provisioner struct {
	facts    platform.Facts
	resolved platform.Resolved

	fetcher  Fetcher
	runner   shell.Runner
	chowner  fsutil.Chowner
	packages pkgmanager.Manager
	metrics  *metrics.Metrics

	// exists checks marker paths.
	exists func(path string) (bool, error)
	// now is the clock used for reports.
	now func() time.Time
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithFetcher replaces the artifact transfer capability.
func WithFetcher(fetcher Fetcher) Option {
	return func(p *Provisioner) {
		p.fetcher = fetcher
	}
}

// WithRunner replaces the command runner.
func WithRunner(runner shell.Runner) Option {
	return func(p *Provisioner) {
		p.runner = runner
	}
}

// WithChowner replaces the ownership capability.
func WithChowner(chowner fsutil.Chowner) Option {
	return func(p *Provisioner) {
		p.chowner = chowner
	}
}

// WithPackageManager replaces the OS package manager.
func WithPackageManager(manager pkgmanager.Manager) Option {
	return func(p *Provisioner) {
		p.packages = manager
	}
}

// WithMetrics records step outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provisioner) {
		p.metrics = m
	}
}

// New creates a Provisioner. Capabilities not supplied through options use
// the real network, processes and filesystem.
func New(facts platform.Facts, resolved platform.Resolved, opts ...Option) *Provisioner {
	p := &Provisioner{
		facts:    facts,
		resolved: resolved,
		chowner:  fsutil.SystemChowner{},
		exists:   fsutil.Exists,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.fetcher == nil {
		p.fetcher = transfer.NewHTTPFetcher()
	}

	if p.runner == nil {
		p.runner = shell.NewExecRunner()
	}

	if p.packages == nil {
		if manager, ok := pkgmanager.ForFamily(facts.OSFamily, p.runner); ok {
			p.packages = manager
		}
	}

	return p
}

// Run executes every step in order and stops at the first failure.
// The returned report lists the steps that ran, including the failed one.
func (p *Provisioner) Run(ctx context.Context) (*run.Report, error) {
	ctx = logger.WithName(ctx, "provisioner")

	report := run.NewReport(p.now())

	steps := []struct {
		name string
		fn   func(context.Context) (run.Outcome, error)
	}{
		{name: StepInstallRoot, fn: p.EnsureInstallRoot},
		{name: StepFetchArchive, fn: p.FetchArchive},
		{name: StepUnpackArchive, fn: p.UnpackArchive},
		{name: StepCompatibility, fn: p.EnsureCompatibilityPackages},
		{name: StepPlatformTools, fn: p.UpdatePlatformTools},
	}

	for _, step := range steps {
		stepCtx := logger.WithKV(ctx, "step", step.name)
		started := p.now()

		outcome, err := step.fn(stepCtx)
		elapsed := p.now().Sub(started)

		report.Add(step.name, outcome, elapsed, err)
		p.metrics.ObserveStep(step.name, string(report.Steps[len(report.Steps)-1].Outcome), elapsed)

		if err != nil {
			logger.ErrorKV(stepCtx, "Step failed", "error", err)
			report.FinishedAt = p.now()

			return report, fmt.Errorf("%s: %w", step.name, err)
		}

		logger.InfoKV(stepCtx, "Step finished", "outcome", outcome, "duration", elapsed)
	}

	report.FinishedAt = p.now()

	return report, nil
}

// EnsureInstallRoot creates the install root when missing and re-asserts its ownership.
func (p *Provisioner) EnsureInstallRoot(ctx context.Context) (run.Outcome, error) {
	dir := p.resolved.InstallDir

	existed, err := p.exists(dir)
	if err != nil {
		return run.OutcomeFailed, err
	}

	if err = os.MkdirAll(dir, InstallDirMode); err != nil {
		return run.OutcomeFailed, fmt.Errorf("create install root: %w", err)
	}

	if err = p.chowner.Chown(dir, p.resolved.Owner, p.resolved.Group); err != nil {
		return run.OutcomeFailed, err
	}

	if existed {
		logger.DebugKV(ctx, "Install root already present", "path", dir)
		return run.OutcomeSkipped, nil
	}

	logger.InfoKV(ctx, "Created install root", "path", dir, "owner", p.resolved.Owner, "group", p.resolved.Group)

	return run.OutcomeDone, nil
}

// FetchArchive downloads the SDK archive unless the destination file already exists.
// The file's content is never re-verified once present.
func (p *Provisioner) FetchArchive(ctx context.Context) (run.Outcome, error) {
	destination := p.resolved.DownloadDestination

	present, err := p.exists(destination)
	if err != nil {
		return run.OutcomeFailed, err
	}

	if present {
		logger.DebugKV(ctx, "Archive already downloaded", "path", destination)
		return run.OutcomeSkipped, nil
	}

	if err = p.require(p.resolved.InstallDir, StepInstallRoot); err != nil {
		return run.OutcomeFailed, err
	}

	if err = p.fetcher.Fetch(ctx, p.resolved.DownloadURL, destination); err != nil {
		// Presence is the only success signal, so nothing may stay behind.
		_ = os.Remove(destination)

		return run.OutcomeFailed, fmt.Errorf("%w: %s: %w", ErrTransfer, p.resolved.DownloadURL, err)
	}

	return run.OutcomeDone, nil
}

// UnpackArchive extracts the archive as the resolved owner unless the SDK
// tools directory already exists.
//
// Extraction goes into a staging directory inside the install root, which is
// renamed to the SDK directory only once the archive was fully unpacked. An
// SDK directory without tools is a leftover of an older interrupted run and
// is replaced.
func (p *Provisioner) UnpackArchive(ctx context.Context) (run.Outcome, error) {
	sdkRoot := p.resolved.SDKRoot

	present, err := p.exists(p.resolved.ToolsPath)
	if err != nil {
		return run.OutcomeFailed, err
	}

	if present {
		logger.DebugKV(ctx, "SDK already unpacked", "path", sdkRoot)
		return run.OutcomeSkipped, nil
	}

	if err = p.require(p.resolved.DownloadDestination, StepFetchArchive); err != nil {
		return run.OutcomeFailed, err
	}

	staging := p.stagingDir()

	// A killed run leaves its staging directory behind.
	if err = os.RemoveAll(staging); err != nil {
		return run.OutcomeFailed, fmt.Errorf("%w: clear %s: %w", ErrExtraction, staging, err)
	}

	defer func() {
		_ = os.RemoveAll(staging)
	}()

	if err = os.MkdirAll(staging, InstallDirMode); err != nil {
		return run.OutcomeFailed, fmt.Errorf("%w: create %s: %w", ErrExtraction, staging, err)
	}

	if err = p.chowner.Chown(staging, p.resolved.Owner, p.resolved.Group); err != nil {
		return run.OutcomeFailed, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	cmd := p.unpackCommand(staging)

	logger.InfoKV(ctx, "Unpacking archive", "command", cmd.String(), "dir", cmd.Dir)

	if err = p.runner.Run(ctx, cmd); err != nil {
		return run.OutcomeFailed, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	extracted := filepath.Join(staging, p.resolved.SDKDirName)

	if present, err = p.exists(filepath.Join(extracted, filepath.Base(p.resolved.ToolsPath))); err != nil || !present {
		return run.OutcomeFailed, fmt.Errorf("%w: archive did not produce %s", ErrExtraction, p.resolved.ToolsPath)
	}

	if err = p.replaceSDKRoot(ctx, extracted); err != nil {
		return run.OutcomeFailed, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	return run.OutcomeDone, nil
}

// replaceSDKRoot moves extracted into place, dropping an incomplete SDK directory first.
func (p *Provisioner) replaceSDKRoot(ctx context.Context, extracted string) error {
	sdkRoot := p.resolved.SDKRoot

	stale, err := p.exists(sdkRoot)
	if err != nil {
		return err
	}

	if stale {
		logger.WarnKV(ctx, "Replacing incomplete SDK directory", "path", sdkRoot)

		if err = os.RemoveAll(sdkRoot); err != nil {
			return fmt.Errorf("remove incomplete %s: %w", sdkRoot, err)
		}
	}

	if err = os.Rename(extracted, sdkRoot); err != nil {
		return fmt.Errorf("move SDK into place: %w", err)
	}

	return nil
}

// stagingDir is the hidden directory archives are extracted into.
func (p *Provisioner) stagingDir() string {
	return filepath.Join(p.resolved.InstallDir, "."+p.resolved.SDKDirName+stagingSuffix)
}

// unpackCommand builds the kernel-specific command extracting the archive into target.
// It runs from the install root.
func (p *Provisioner) unpackCommand(target string) *shell.Command {
	cmd := &shell.Command{
		Dir:  p.resolved.InstallDir,
		User: p.resolved.Owner,
	}

	if p.facts.IsDarwin() {
		cmd.Name = "/usr/bin/unzip"
		cmd.Args = []string{p.resolved.DownloadDestination, "-d", target}

		return cmd
	}

	cmd.Name = "/bin/tar"
	cmd.Args = []string{"-xvf", p.resolved.DownloadDestination, "-C", target, "--no-same-owner", "--no-same-permissions"}

	return cmd
}

// UpdatePlatformTools refreshes the platform-tools component on every run.
func (p *Provisioner) UpdatePlatformTools(ctx context.Context) (run.Outcome, error) {
	if err := p.require(p.resolved.ToolsPath, StepUnpackArchive); err != nil {
		return run.OutcomeFailed, err
	}

	cmd, err := common.SDKUpdateCommand(p.resolved, PlatformToolsFilter)
	if err != nil {
		return run.OutcomeFailed, err
	}

	logger.InfoKV(ctx, "Updating platform-tools", "command", cmd.String())

	if err = p.runner.Run(ctx, cmd); err != nil {
		return run.OutcomeFailed, fmt.Errorf("update platform-tools: %w", err)
	}

	return run.OutcomeDone, nil
}

// require fails with ErrPrecondition when the output of step at path is missing.
func (p *Provisioner) require(path, step string) error {
	present, err := p.exists(path)
	if err != nil {
		return err
	}

	if !present {
		return fmt.Errorf("%w: %s missing, run %s first", ErrPrecondition, path, step)
	}

	return nil
}
