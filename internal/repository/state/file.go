package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/sdk-provisioner/internal/config"
	"github.com/oshokin/sdk-provisioner/internal/domain/run"
)

// Repository defines persistence operations for run reports.
type Repository interface {
	Load(ctx context.Context) (*run.Report, error)
	Save(ctx context.Context, report *run.Report) error
}

// FileRepository persists the last run report to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the state file does not exist yet.
	ErrNotFound = errors.New("state not found")
	// errMalformed is returned when the file decodes but lacks expected fields.
	errMalformed = errors.New("malformed state file")
)

// Field names of the JSON document.
const (
	fieldStartedAt  = "started_at"
	fieldFinishedAt = "finished_at"
	fieldSteps      = "steps"
	fieldName       = "name"
	fieldOutcome    = "outcome"
	fieldError      = "error"
	fieldDuration   = "duration_seconds"
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the report from disk.
func (r *FileRepository) Load(_ context.Context) (*run.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return fromStruct(document.AsMap())
}

// Save writes the report to disk, replacing the previous one.
func (r *FileRepository) Save(_ context.Context, report *run.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document, err := structpb.NewStruct(toMap(report))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// toMap converts the report into plain values accepted by structpb.
func toMap(report *run.Report) map[string]any {
	steps := make([]any, 0, len(report.Steps))
	for _, step := range report.Steps {
		steps = append(steps, map[string]any{
			fieldName:     step.Name,
			fieldOutcome:  string(step.Outcome),
			fieldError:    step.Error,
			fieldDuration: step.Duration.Seconds(),
		})
	}

	return map[string]any{
		fieldStartedAt:  formatTime(report.StartedAt),
		fieldFinishedAt: formatTime(report.FinishedAt),
		fieldSteps:      steps,
	}
}

// fromStruct converts decoded values back into the domain report.
func fromStruct(document map[string]any) (*run.Report, error) {
	startedAt, err := parseTime(document[fieldStartedAt])
	if err != nil {
		return nil, err
	}

	finishedAt, err := parseTime(document[fieldFinishedAt])
	if err != nil {
		return nil, err
	}

	rawSteps, _ := document[fieldSteps].([]any)

	report := &run.Report{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Steps:      make([]run.Step, 0, len(rawSteps)),
	}

	for _, raw := range rawSteps {
		fields, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: step is not an object", errMalformed)
		}

		name, _ := fields[fieldName].(string)
		outcome, _ := fields[fieldOutcome].(string)
		message, _ := fields[fieldError].(string)
		seconds, _ := fields[fieldDuration].(float64)

		report.Steps = append(report.Steps, run.Step{
			Name:     name,
			Outcome:  run.Outcome(outcome),
			Error:    message,
			Duration: time.Duration(seconds * float64(time.Second)),
		})
	}

	return report, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value any) (time.Time, error) {
	s, _ := value.(string)
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", errMalformed, err)
	}

	return t, nil
}
