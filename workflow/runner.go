package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// StepResult holds the outcome of one executed step.
type StepResult struct {
	// Name is the step's display name, or its run command when unnamed.
	Name string

	// Stdout and Stderr contain the captured output.
	Stdout []byte
	Stderr []byte

	// ExitCode is the process exit code. 0 indicates success.
	ExitCode int

	// Duration is the actual execution time.
	Duration time.Duration
}

// JobResult holds the outcome of a job run.
type JobResult struct {
	// JobID is the id of the executed job.
	JobID string

	// Steps holds one result per executed step, in order. When a step
	// fails, later steps are not executed and do not appear here.
	Steps []StepResult

	// Failed is true when a step exited non-zero or errored.
	Failed bool
}

// Runner executes workflow jobs.
type Runner struct {
	// Shell is the interpreter for step commands. Default: /bin/sh.
	Shell string

	// Logger receives per-step progress. Default: slog.Default().
	Logger *slog.Logger
}

// NewRunner creates a runner with default shell and logger.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Shell: "/bin/sh", Logger: logger}
}

// RunJob executes one job's steps sequentially.
//
// Each step runs under the merged environment (process, then workflow, then
// job, then step) in its declared working directory, bounded by its timeout
// when one is set. The first step that exits non-zero or fails to start
// marks the job failed and stops execution; the partial results are still
// returned. A non-nil error is reserved for setup problems and context
// cancellation, mirroring how an external CI runner treats a failing step
// as a job failure rather than an infrastructure error.
func (r *Runner) RunJob(ctx context.Context, cfg *Config, jobID string) (*JobResult, error) {
	job, err := cfg.Job(jobID)
	if err != nil {
		return nil, err
	}

	result := &JobResult{JobID: job.ID}
	env := mergeEnv(os.Environ(), cfg.Env, job.Env)

	for i, step := range job.Steps {
		name := step.Name
		if name == "" {
			name = step.Run
		}

		r.Logger.Info("running step",
			"job", job.ID,
			"step", name,
			"index", i)

		stepResult, err := r.runStep(ctx, step, env)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			r.Logger.Error("step failed to start", "step", name, "error", err)
			result.Failed = true
			return result, nil
		}

		stepResult.Name = name
		result.Steps = append(result.Steps, *stepResult)

		if stepResult.ExitCode != 0 {
			r.Logger.Error("step failed",
				"step", name,
				"exit_code", stepResult.ExitCode,
				"stderr", string(stepResult.Stderr))
			result.Failed = true
			return result, nil
		}
	}

	return result, nil
}

// runStep executes a single step and captures its output.
//
// A non-zero exit code is not treated as an error; the result carries the
// exit code and the caller decides. Only start failures and context
// cancellation return an error.
func (r *Runner) runStep(ctx context.Context, step Step, env []string) (*StepResult, error) {
	if timeout := step.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", step.Run)
	if step.WorkDir != "" {
		cmd.Dir = step.WorkDir
	}
	cmd.Env = mergeEnv(env, step.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &StepResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: duration,
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("step timed out after %v: %w", step.GetTimeout(), ctx.Err())
		}
		if ctx.Err() == context.Canceled {
			return result, ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return result, fmt.Errorf("step execution failed: %w", err)
	}

	return result, nil
}

// mergeEnv layers KEY=value environments left to right, later maps winning.
func mergeEnv(base []string, overlays ...map[string]string) []string {
	out := make([]string, len(base))
	copy(out, base)
	for _, overlay := range overlays {
		for k, v := range overlay {
			out = append(out, k+"="+v)
		}
	}
	return out
}
