package component

import (
	"context"
	"fmt"

	"github.com/oshokin/sdk-provisioner/internal/domain/component"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
)

// Options are the inputs of the single component command.
type Options struct {
	common.Options

	// Name is the SDK manager filter token, e.g. "android-15".
	Name string
	// Type selects the marker location, e.g. "platform".
	Type string
}

// Run installs one component into an already provisioned SDK.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "component")

	// Unsupported types fail before the host is inspected.
	req, err := component.NewRequest(opts.Name, opts.Type)
	if err != nil {
		return err
	}

	if err = common.EnsureSingleInstance(nil); err != nil {
		return err
	}

	env, err := common.Prepare(ctx, &opts.Options, nil)
	if err != nil {
		return err
	}

	updater := NewUpdater(env.Resolved, WithMetrics(env.Metrics))

	state, err := updater.Update(ctx, req)

	env.Metrics.MarkFinished(updater.now())

	if writeErr := env.Metrics.WriteTextfile(opts.MetricsFile); writeErr != nil {
		logger.WarnKV(ctx, "Unable to write metrics", "error", writeErr)
	}

	if err != nil {
		return fmt.Errorf("update %s: %w", req, err)
	}

	logger.InfoKV(ctx, "Component update finished", "state", state)

	return nil
}
