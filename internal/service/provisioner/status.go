package provisioner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
	"github.com/oshokin/sdk-provisioner/internal/repository/state"
	"github.com/oshokin/sdk-provisioner/internal/service/common"
)

// errNoRunRecorded is returned by Status before the first install.
var errNoRunRecorded = errors.New("no provisioning run recorded")

// StepStatus is a journal step as printed by the status command.
type StepStatus struct {
	Name     string      `yaml:"name"`
	Outcome  run.Outcome `yaml:"outcome"`
	Error    string      `yaml:"error,omitempty"`
	Duration string      `yaml:"duration"`
}

// RunStatus is the last run as printed by the status command.
type RunStatus struct {
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Failed     bool         `yaml:"failed"`
	Steps      []StepStatus `yaml:"steps"`
}

// NewRunStatus converts a journal report for printing.
func NewRunStatus(report *run.Report) *RunStatus {
	status := &RunStatus{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Failed:     report.Failed(),
		Steps:      make([]StepStatus, 0, len(report.Steps)),
	}

	for _, step := range report.Steps {
		status.Steps = append(status.Steps, StepStatus{
			Name:     step.Name,
			Outcome:  step.Outcome,
			Error:    step.Error,
			Duration: step.Duration.Round(time.Millisecond).String(),
		})
	}

	return status
}

// Status prints the journal of the last install run as YAML.
func Status(ctx context.Context, opts *common.Options, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	report, err := state.NewFileRepository(cfg.StateFile).Load(ctx)
	if errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("%w in %s", errNoRunRecorded, cfg.StateFile)
	}

	if err != nil {
		return err
	}

	return writeYAML(out, NewRunStatus(report))
}

// writeYAML encodes value to out with two-space indentation.
func writeYAML(out io.Writer, value any) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return encoder.Close()
}
