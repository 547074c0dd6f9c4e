package provisioner

import (
	"context"
	"fmt"

	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/repository/state"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
	componentsvc "github.com/oshokin/sdk-provisioner/internal/service/component"
	"github.com/oshokin/sdk-provisioner/internal/transfer"
)

// Run provisions the SDK base and every configured component, then stores
// the run journal and the metrics textfile.
func Run(ctx context.Context, opts *common.Options) error {
	ctx = logger.WithName(ctx, "install")

	if err := common.EnsureSingleInstance(nil); err != nil {
		return err
	}

	env, err := common.Prepare(ctx, opts, nil)
	if err != nil {
		return err
	}

	fetcher := transfer.NewHTTPFetcher(
		transfer.WithTimeout(env.Config.DownloadTimeout.Std()),
		transfer.WithChecksum(env.Config.ChecksumBytes()),
	)

	journal := state.NewFileRepository(env.Config.StateFile)

	_, err = Install(ctx, env, journal, WithFetcher(fetcher))

	if writeErr := env.Metrics.WriteTextfile(opts.MetricsFile); writeErr != nil {
		logger.WarnKV(ctx, "Unable to write metrics", "error", writeErr)
	}

	return err
}

// Install runs the base steps followed by the configured component updates.
// Components are only attempted once the base succeeded. The report is saved
// to journal whatever the outcome; a journal failure is logged, not returned.
func Install(ctx context.Context, env *common.Environment, journal state.Repository, opts ...Option) (*run.Report, error) {
	requests, err := env.Config.Requests()
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithMetrics(env.Metrics)}, opts...)
	p := New(env.Facts, env.Resolved, opts...)

	report, err := p.Run(ctx)
	if err == nil && len(requests) > 0 {
		updater := componentsvc.NewUpdater(env.Resolved,
			componentsvc.WithRunner(p.runner),
			componentsvc.WithMetrics(p.metrics))

		var updates *run.Report

		updates, err = updater.UpdateAll(ctx, requests)
		report.Merge(updates)
		report.FinishedAt = updates.FinishedAt

		if err != nil {
			err = fmt.Errorf("update components: %w", err)
		}
	}

	p.metrics.MarkFinished(report.FinishedAt)

	logger.InfoKV(ctx, "Provisioning finished",
		"done", report.Count(run.OutcomeDone),
		"skipped", report.Count(run.OutcomeSkipped),
		"failed", report.Count(run.OutcomeFailed),
		"took", report.FinishedAt.Sub(report.StartedAt))

	if journal != nil {
		if saveErr := journal.Save(ctx, report); saveErr != nil {
			logger.WarnKV(ctx, "Unable to save run journal", "error", saveErr)
		}
	}

	return report, err
}
