package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func testConfig(jobs ...Job) *Config {
	return &Config{
		Name: "test workflow",
		On: Triggers{
			PullRequest: &BranchFilter{Branches: []string{"main"}},
		},
		Jobs: jobs,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunJobSequentialSteps(t *testing.T) {
	cfg := testConfig(Job{
		ID: "test",
		Steps: []Step{
			{Name: "first", Run: "echo one"},
			{Name: "second", Run: "echo two"},
		},
	})

	result, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("RunJob() error: %v", err)
	}

	if result.Failed {
		t.Fatal("job should not have failed")
	}
	if len(result.Steps) != 2 {
		t.Fatalf("got %d step results, want 2", len(result.Steps))
	}
	if got := strings.TrimSpace(string(result.Steps[0].Stdout)); got != "one" {
		t.Errorf("first step stdout = %q", got)
	}
	if got := strings.TrimSpace(string(result.Steps[1].Stdout)); got != "two" {
		t.Errorf("second step stdout = %q", got)
	}
}

func TestRunJobStopsAtFirstFailure(t *testing.T) {
	cfg := testConfig(Job{
		ID: "test",
		Steps: []Step{
			{Name: "passes", Run: "true"},
			{Name: "fails", Run: "exit 3"},
			{Name: "never runs", Run: "echo unreachable"},
		},
	})

	result, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("RunJob() error: %v", err)
	}

	if !result.Failed {
		t.Fatal("job should have failed")
	}
	if len(result.Steps) != 2 {
		t.Fatalf("got %d step results, want 2 (third step must not run)", len(result.Steps))
	}
	if result.Steps[1].ExitCode != 3 {
		t.Errorf("failing step exit code = %d, want 3", result.Steps[1].ExitCode)
	}
}

func TestRunJobEnvironmentLayering(t *testing.T) {
	cfg := testConfig(Job{
		ID:  "test",
		Env: map[string]string{"LAYER": "job", "JOB_ONLY": "yes"},
		Steps: []Step{
			{Name: "layered", Run: "echo $LAYER $WORKFLOW_ONLY $JOB_ONLY $STEP_ONLY",
				Env: map[string]string{"LAYER": "step", "STEP_ONLY": "yes"}},
		},
	})
	cfg.Env = map[string]string{"LAYER": "workflow", "WORKFLOW_ONLY": "yes"}

	result, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("RunJob() error: %v", err)
	}

	got := strings.TrimSpace(string(result.Steps[0].Stdout))
	if got != "step yes yes yes" {
		t.Errorf("env layering output = %q, want %q", got, "step yes yes yes")
	}
}

func TestRunJobStepTimeout(t *testing.T) {
	cfg := testConfig(Job{
		ID: "test",
		Steps: []Step{
			{Name: "sleeps", Run: "sleep 5", Timeout: "100ms"},
		},
	})

	_, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "test")
	if err == nil {
		t.Fatal("RunJob() = nil error, want timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRunJobUnknownJob(t *testing.T) {
	cfg := testConfig(Job{ID: "test", Steps: []Step{{Run: "true"}}})

	_, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "deploy")
	if err == nil {
		t.Fatal("RunJob() = nil error for unknown job")
	}
}

func TestRunJobCapturesStderr(t *testing.T) {
	cfg := testConfig(Job{
		ID: "test",
		Steps: []Step{
			{Name: "warns", Run: "echo warning >&2"},
		},
	})

	result, err := NewRunner(discardLogger()).RunJob(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("RunJob() error: %v", err)
	}
	if got := strings.TrimSpace(string(result.Steps[0].Stderr)); got != "warning" {
		t.Errorf("stderr = %q", got)
	}
}
