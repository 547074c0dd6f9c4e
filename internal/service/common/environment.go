//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/host"
	"github.com/oshokin/sdk-provisioner/internal/logger"
	"github.com/oshokin/sdk-provisioner/internal/metrics"
)

// Options are the inputs every provisioner command accepts.
type Options struct {
	// ConfigPath is the optional path to the settings file.
	ConfigPath string
	// Overrides replace probed host facts.
	Overrides host.Overrides
	// MetricsFile receives Prometheus textfile output when set.
	MetricsFile string
}

// Environment is everything derived before the first provisioning step.
type Environment struct {
	Config   *config.Config
	Facts    platform.Facts
	Resolved platform.Resolved
	Metrics  *metrics.Metrics
}

// Prober detects host facts.
type Prober interface {
	Detect(overrides host.Overrides) (platform.Facts, error)
}

// Prepare loads settings, probes the host and resolves the platform.
// Configuration errors, including unsupported component types, surface here.
func Prepare(ctx context.Context, opts *Options, prober Prober) (*Environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if prober == nil {
		prober = host.NewProber()
	}

	facts, err := prober.Detect(opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("detect host facts: %w", err)
	}

	resolved := platform.Resolve(facts, cfg.Settings())

	logger.InfoKV(ctx, "Resolved platform",
		"kernel", facts.Kernel,
		"os_family", facts.OSFamily,
		"architecture", facts.Architecture,
		"sdk_root", resolved.SDKRoot,
		"owner", resolved.Owner+":"+resolved.Group)

	return &Environment{
		Config:   cfg,
		Facts:    facts,
		Resolved: resolved,
		Metrics:  metrics.New(),
	}, nil
}
