package deploy

import (
	"context"

	"github.com/pkg/errors"

	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/state"
)

// Step is one unit of provisioning work
type Step struct {
	Name      string
	Component string
	// Optional steps warn on failure instead of aborting the run.
	Optional bool
	// Fallback lines are printed when an optional step fails, telling the
	// operator how to finish the work manually.
	Fallback []string
	// Check reports whether the component is already provisioned. A true
	// result skips Run and records the component as installed.
	Check func(ctx context.Context) (bool, string)
	Run   func(ctx context.Context) error
}

// Result summarizes a finished run
type Result struct {
	RunID    string
	Status   string
	Run      int
	Skipped  int
	Warnings int
	Failed   int
}

// Runner executes a plan of steps sequentially
type Runner struct {
	markers   *Markers
	store     *state.Store
	presenter presenter.Presenter
	dryRun    bool
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithStore records run history in the given state store
func WithStore(store *state.Store) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

// WithPresenter overrides the presenter used for operator-facing output
func WithPresenter(p presenter.Presenter) RunnerOption {
	return func(r *Runner) {
		r.presenter = p
	}
}

// WithDryRun reports every step without executing commands, writing markers,
// or recording history.
func WithDryRun(dryRun bool) RunnerOption {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// NewRunner creates a step runner with markers stored in stateDir
func NewRunner(stateDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		markers:   NewMarkers(stateDir),
		presenter: presenter.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs the steps in order. Required-step failure aborts the run and
// returns an error; optional-step failure degrades to a warning plus the
// step's manual fallback instructions.
func (r *Runner) Execute(ctx context.Context, target string, steps []Step) (*Result, error) {
	result := &Result{Status: state.StatusSucceeded}

	if r.store != nil && !r.dryRun {
		runID, err := r.store.StartRun(ctx, target)
		if err != nil {
			return nil, errors.Wrap(err, "failed to record deploy run")
		}
		result.RunID = runID
	}

	for i, step := range steps {
		seq := i + 1
		log := logger.G(ctx).WithFields(map[string]interface{}{
			"step":      step.Name,
			"component": step.Component,
		})

		if r.dryRun {
			r.presenter.Info("[dry-run] " + step.Name)
			result.Skipped++
			continue
		}

		if r.markers.Installed(step.Component) {
			log.Debug("Marker present, skipping step")
			r.presenter.Info(step.Name + ": already installed, skipping")
			result.Skipped++
			r.recordStep(ctx, result.RunID, seq, step, state.StatusSkipped, "marker present")
			continue
		}

		if step.Check != nil {
			if done, reason := step.Check(ctx); done {
				log.WithField("reason", reason).Debug("Check passed, skipping step")
				r.presenter.Info(step.Name + ": " + reason + ", skipping")
				result.Skipped++
				if err := r.markers.MarkInstalled(step.Component); err != nil {
					log.WithError(err).Warn("Failed to write marker")
				}
				r.recordStep(ctx, result.RunID, seq, step, state.StatusSkipped, reason)
				continue
			}
		}

		r.presenter.Info(step.Name + "...")
		err := step.Run(ctx)
		if err == nil {
			result.Run++
			if err := r.markers.MarkInstalled(step.Component); err != nil {
				log.WithError(err).Warn("Failed to write marker")
			}
			r.recordStep(ctx, result.RunID, seq, step, state.StatusSucceeded, "")
			r.presenter.Success(step.Name)
			continue
		}

		if !step.Optional {
			log.WithError(err).Error("Required step failed")
			result.Failed++
			result.Status = state.StatusFailed
			r.recordStep(ctx, result.RunID, seq, step, state.StatusFailed, err.Error())
			r.finishRun(ctx, result)
			return result, errors.Wrapf(err, "step '%s' failed", step.Name)
		}

		log.WithError(err).Warn("Optional step failed, continuing")
		result.Warnings++
		result.Status = state.StatusWarning
		r.recordStep(ctx, result.RunID, seq, step, state.StatusWarning, err.Error())
		r.presenter.Warning(step.Name + " failed: " + err.Error())
		if len(step.Fallback) > 0 {
			r.presenter.Info("To finish manually:")
			for _, line := range step.Fallback {
				r.presenter.Info("  " + line)
			}
		}
	}

	r.finishRun(ctx, result)
	return result, nil
}

func (r *Runner) recordStep(ctx context.Context, runID string, seq int, step Step, status, detail string) {
	if r.store == nil || runID == "" {
		return
	}
	err := r.store.RecordStep(ctx, state.DeployStep{
		RunID:     runID,
		Seq:       seq,
		Name:      step.Name,
		Component: step.Component,
		Status:    status,
		Detail:    detail,
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("Failed to record deploy step")
	}
}

func (r *Runner) finishRun(ctx context.Context, result *Result) {
	if r.store == nil || result.RunID == "" {
		return
	}
	if err := r.store.FinishRun(ctx, result.RunID, result.Status); err != nil {
		logger.G(ctx).WithError(err).Warn("Failed to finish deploy run record")
	}
}
