package provisioner

import (
	"context"
	"io"

	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
)

// Plan is what an install run would act on.
type Plan struct {
	Facts                 platform.Facts    `yaml:"facts"`
	Resolved              platform.Resolved `yaml:"resolved"`
	CompatibilityPackages []string          `yaml:"compatibility_packages"`
	ComponentMarkers      map[string]string `yaml:"component_markers,omitempty"`
}

// Resolve prints the resolved platform and component markers as YAML
// without touching the host.
func Resolve(ctx context.Context, opts *common.Options, out io.Writer) error {
	env, err := common.Prepare(ctx, opts, nil)
	if err != nil {
		return err
	}

	plan, err := NewPlan(env)
	if err != nil {
		return err
	}

	return writeYAML(out, plan)
}

// NewPlan derives the plan of env.
func NewPlan(env *common.Environment) (*Plan, error) {
	requests, err := env.Config.Requests()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Facts:                 env.Facts,
		Resolved:              env.Resolved,
		CompatibilityPackages: CompatibilityPackages(env.Facts),
	}

	if len(requests) > 0 {
		plan.ComponentMarkers = make(map[string]string, len(requests))
		for _, req := range requests {
			plan.ComponentMarkers[req.String()] = req.MarkerPath(env.Resolved.SDKRoot)
		}
	}

	return plan, nil
}
