package tui

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// StepHook runs after every forward move, typically to save a draft.
type StepHook func(ctx context.Context, w *wizard.Wizard) error

// Option configures the Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme sets the styles used for headers and errors.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.theme = theme
	}
}

// WithOnStep registers a hook called after each forward move. Hook errors
// are reported to the user and logged; they do not stop the wizard.
func WithOnStep(hook StepHook) Option {
	return func(r *Runner) {
		r.onStep = hook
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
