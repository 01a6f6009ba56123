// Package workflow provides loading and running of CI-style job definitions.
//
// A workflow file declares when it runs (pull requests or pushes to named
// branches), a fixed environment map, and one or more jobs made of ordered
// shell steps. Triggering is owned by an external system; this package
// models the document, validates it, and can execute a job's steps
// sequentially, stopping at the first failure.
package workflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	sdk "github.com/modelkit-ai/sdk"
)

// Config represents a workflow definition file.
type Config struct {
	// Name is the workflow's display name.
	Name string `yaml:"name"`

	// On declares the trigger surface.
	On Triggers `yaml:"on"`

	// Env is the environment applied to every job, merged over the process
	// environment.
	Env map[string]string `yaml:"env,omitempty"`

	// Jobs run independently; steps within a job run sequentially.
	Jobs []Job `yaml:"jobs"`
}

// Triggers declares which repository events start the workflow.
type Triggers struct {
	// PullRequest triggers on pull requests targeting the listed branches.
	PullRequest *BranchFilter `yaml:"pull_request,omitempty"`

	// Push triggers on pushes to the listed branches.
	Push *BranchFilter `yaml:"push,omitempty"`
}

// BranchFilter names the branches an event applies to.
type BranchFilter struct {
	Branches []string `yaml:"branches"`
}

// Job is a named sequence of steps sharing an environment.
type Job struct {
	// ID uniquely identifies the job within the workflow.
	ID string `yaml:"id"`

	// Name is the optional display name.
	Name string `yaml:"name,omitempty"`

	// Env is merged over the workflow environment for every step.
	Env map[string]string `yaml:"env,omitempty"`

	// Steps run in declaration order. A failing step stops the job.
	Steps []Step `yaml:"steps"`
}

// Step is one shell command.
type Step struct {
	// Name is the optional display name.
	Name string `yaml:"name,omitempty"`

	// Run is the shell command line to execute (required).
	Run string `yaml:"run"`

	// WorkDir is the working directory for the command (optional).
	WorkDir string `yaml:"working_directory,omitempty"`

	// Env is merged over the job environment for this step only.
	Env map[string]string `yaml:"env,omitempty"`

	// Timeout is the maximum step duration as a Go duration string
	// (e.g., "10m"). Empty means no per-step timeout.
	Timeout string `yaml:"timeout,omitempty"`
}

// GetTimeout parses the step timeout. Returns zero (no timeout) if unset
// or invalid.
func (s *Step) GetTimeout() time.Duration {
	if s == nil || s.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Load reads and parses a workflow file from the given path and validates it.
func Load(path string) (*Config, error) {
	const op = "workflow.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdk.NewNotFoundError(op, fmt.Errorf("failed to read workflow file: %w", err))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, sdk.NewValidationError(op, fmt.Errorf("failed to parse workflow file: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the workflow for well-formedness: at least one trigger
// with non-empty branch names, unique job ids, and non-empty step commands.
func (c *Config) Validate() error {
	const op = "workflow.Validate"

	fail := func(err error) error {
		return sdk.NewValidationError(op, err).WithContext(map[string]any{"workflow": c.Name})
	}

	if c.Name == "" {
		return fail(fmt.Errorf("workflow name is empty"))
	}

	if c.On.PullRequest == nil && c.On.Push == nil {
		return fail(fmt.Errorf("workflow declares no triggers"))
	}
	for event, filter := range map[string]*BranchFilter{
		"pull_request": c.On.PullRequest,
		"push":         c.On.Push,
	} {
		if filter == nil {
			continue
		}
		if len(filter.Branches) == 0 {
			return fail(fmt.Errorf("%s trigger lists no branches", event))
		}
		for _, b := range filter.Branches {
			if b == "" {
				return fail(fmt.Errorf("%s trigger lists an empty branch name", event))
			}
		}
	}

	if len(c.Jobs) == 0 {
		return fail(fmt.Errorf("workflow declares no jobs"))
	}
	seen := make(map[string]bool, len(c.Jobs))
	for _, job := range c.Jobs {
		if job.ID == "" {
			return fail(fmt.Errorf("job with empty id"))
		}
		if seen[job.ID] {
			return fail(fmt.Errorf("duplicate job id %q", job.ID))
		}
		seen[job.ID] = true

		if len(job.Steps) == 0 {
			return fail(fmt.Errorf("job %q has no steps", job.ID))
		}
		for i, step := range job.Steps {
			if step.Run == "" {
				return fail(fmt.Errorf("job %q step %d has no run command", job.ID, i))
			}
		}
	}

	return nil
}

// Job returns the job with the given id.
func (c *Config) Job(id string) (*Job, error) {
	for i := range c.Jobs {
		if c.Jobs[i].ID == id {
			return &c.Jobs[i], nil
		}
	}
	return nil, sdk.NewNotFoundError("workflow.Job", fmt.Errorf("job %q not found", id))
}

// TriggersOnPush reports whether a push to the given branch starts the workflow.
func (c *Config) TriggersOnPush(branch string) bool {
	return c.On.Push != nil && containsBranch(c.On.Push.Branches, branch)
}

// TriggersOnPullRequest reports whether a pull request targeting the given
// branch starts the workflow.
func (c *Config) TriggersOnPullRequest(target string) bool {
	return c.On.PullRequest != nil && containsBranch(c.On.PullRequest.Branches, target)
}

func containsBranch(branches []string, branch string) bool {
	for _, b := range branches {
		if b == branch {
			return true
		}
	}
	return false
}
