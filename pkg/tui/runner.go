// Package tui drives a wizard from the terminal. The Runner prompts for each
// field of the active step, lets the user move forward, back or cancel, and
// prints the engine's field errors whenever a step is blocked. Prompts go
// through a PromptDriver; the default one is backed by survey.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type action int

const (
	actionNext action = iota
	actionFinish
	actionBack
	actionCancel
)

var actionLabels = map[action]string{
	actionNext:   "Next",
	actionFinish: "Review and submit",
	actionBack:   "Back",
	actionCancel: "Cancel",
}

// formErrorer is implemented by submission errors carrying messages that
// belong to no single field, such as *profile.ValidationError.
type formErrorer interface {
	FormErrors() []string
}

// Runner drives a single wizard.
type Runner struct {
	wizard *wizard.Wizard
	driver PromptDriver
	theme  Theme
	onStep StepHook
	logger *slog.Logger
}

// New builds a runner for w. Without WithPromptDriver the survey driver is
// used.
func New(w *wizard.Wizard, options ...Option) (*Runner, error) {
	if w == nil {
		return nil, errors.New("tui: wizard is required")
	}
	r := &Runner{
		wizard: w,
		theme:  DefaultTheme(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Run prompts until the wizard completes, returning the submitted answers.
// Cancelling closes the wizard and returns ErrCancelled.
func (r *Runner) Run(ctx context.Context) (wizard.FormState, error) {
	w := r.wizard
	if w.Phase() != wizard.PhaseOpen {
		return nil, ErrNotOpen
	}

	for w.Phase() == wizard.PhaseOpen {
		if err := r.showStep(ctx); err != nil {
			return nil, r.abort(err)
		}
		if err := r.promptStep(ctx); err != nil {
			return nil, r.abort(err)
		}

		choice, err := r.chooseAction(ctx)
		if err != nil {
			return nil, r.abort(err)
		}

		switch choice {
		case actionBack:
			w.Previous()
		case actionCancel:
			w.Close()
			return nil, ErrCancelled
		case actionFinish:
			submit, err := r.review(ctx)
			if err != nil {
				return nil, r.abort(err)
			}
			if !submit {
				continue
			}
			fallthrough
		case actionNext:
			done, err := r.advance(ctx)
			if err != nil {
				return nil, r.abort(err)
			}
			if done {
				return w.Values(), nil
			}
		}
	}
	// Closed from a hook or observer.
	return nil, ErrCancelled
}

// advance moves forward. It reports done once the wizard completed; a
// blocked step or rejected submission is shown and the loop continues.
func (r *Runner) advance(ctx context.Context) (bool, error) {
	w := r.wizard
	from := w.Cursor()

	transition, sinkErr := w.Next()
	switch transition {
	case wizard.TransitionCompleted:
		r.logger.Info("wizard completed", slog.Int("step", from))
		return true, nil
	case wizard.TransitionAdvanced:
		r.runHook(ctx)
		return false, nil
	}

	if sinkErr != nil {
		r.logger.Warn("submission rejected", slog.String("error", sinkErr.Error()))
		if err := r.driver.Info(ctx, r.theme.Error.Render("Could not submit: "+sinkErr.Error())); err != nil {
			return false, err
		}
		var carrier formErrorer
		if errors.As(sinkErr, &carrier) {
			if msgs := carrier.FormErrors(); len(msgs) > 0 {
				if err := r.driver.Info(ctx, r.theme.messages(msgs)); err != nil {
					return false, err
				}
			}
		}
	}
	r.logger.Debug("step blocked", slog.Int("step", w.Cursor()), slog.Int("errors", len(w.Errors())))
	return false, nil
}

func (r *Runner) runHook(ctx context.Context) {
	if r.onStep == nil {
		return
	}
	if err := r.onStep(ctx, r.wizard); err != nil {
		r.logger.Warn("step hook failed", slog.Int("step", r.wizard.Cursor()), slog.String("error", err.Error()))
		_ = r.driver.Info(ctx, r.theme.Muted.Render("Progress could not be saved: "+err.Error()))
	}
}

func (r *Runner) abort(err error) error {
	if errors.Is(err, ErrCancelled) {
		r.wizard.Close()
		return ErrCancelled
	}
	return err
}

func (r *Runner) showStep(ctx context.Context) error {
	w := r.wizard
	if err := r.driver.Info(ctx, r.theme.header(w.Step(), w.Len())); err != nil {
		return err
	}

	errs := r.stepErrors()
	if len(errs) == 0 {
		return nil
	}
	return r.driver.Info(ctx, r.theme.errors(errs))
}

func (r *Runner) stepErrors() []wizard.FieldValidationError {
	step := r.wizard.Step()
	all := r.wizard.Errors()
	var out []wizard.FieldValidationError
	for _, key := range step.Keys() {
		if msg, ok := all[key]; ok {
			out = append(out, wizard.FieldValidationError{Field: key, Message: msg})
		}
	}
	return out
}

func (r *Runner) promptStep(ctx context.Context) error {
	step := r.wizard.Step()
	for _, key := range step.Keys() {
		if err := r.promptField(ctx, step, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, step wizard.StepDefinition, key string) error {
	label := wizard.HumanizeKey(key)
	if step.IsRequired(key) {
		label += " *"
	}
	current, _ := r.wizard.Value(key)
	defaultVal := displayValue(current)
	help := r.wizard.Errors()[key]

	kind := step.Input(key)
	var (
		response string
		err      error
	)
	if kind == wizard.InputText {
		response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: defaultVal, Help: help})
	} else {
		response, err = r.driver.Input(ctx, InputConfig{Message: label, Default: defaultVal, Help: help})
	}
	if err != nil {
		return err
	}

	r.wizard.SetField(key, coerce(kind, response))
	return nil
}

// coerce converts prompt text into the value stored in the form state.
// Unparseable numbers and dates are kept as text so the field rules report
// them.
func coerce(kind wizard.InputKind, raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch kind {
	case wizard.InputNumber:
		if trimmed == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		return trimmed
	case wizard.InputInteger:
		if trimmed == "" {
			return nil
		}
		if i, err := strconv.Atoi(trimmed); err == nil {
			return i
		}
		return trimmed
	case wizard.InputDate:
		if trimmed == "" {
			return nil
		}
		if t, err := time.Parse(wizard.DateLayout, trimmed); err == nil {
			return t
		}
		return trimmed
	case wizard.InputText:
		return strings.TrimRight(raw, "\n")
	default:
		return raw
	}
}

func (r *Runner) chooseAction(ctx context.Context) (action, error) {
	w := r.wizard
	actions := []action{actionNext}
	if w.IsLast() {
		actions[0] = actionFinish
	}
	if w.Cursor() > 1 {
		actions = append(actions, actionBack)
	}
	actions = append(actions, actionCancel)

	options := make([]string, len(actions))
	for i, a := range actions {
		options[i] = actionLabels[a]
	}

	idx, err := r.driver.Select(ctx, SelectConfig{
		Message: fmt.Sprintf("%s (%d%%)", w.Step().Title, w.Progress()),
		Options: options,
	})
	if err != nil {
		return actionCancel, err
	}
	if idx < 0 || idx >= len(actions) {
		return actionCancel, fmt.Errorf("tui: invalid selection %d", idx)
	}
	return actions[idx], nil
}

func (r *Runner) review(ctx context.Context) (bool, error) {
	// A blocked step skips the summary; Next reports the errors.
	if errs := r.wizard.Validate(r.wizard.Cursor()); len(errs) > 0 {
		return true, nil
	}

	summary, err := Summary(r.wizard.Steps(), r.wizard.Values())
	if err != nil {
		return false, err
	}
	if err := r.driver.Info(ctx, summary); err != nil {
		return false, err
	}
	return r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit your profile?", Default: true})
}
