package wizard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var (
	// ErrNoSteps is returned by New when no step definitions are supplied.
	ErrNoSteps = errors.New("wizard: at least one step is required")
	// ErrStepOrder is returned by New when step orders are not 1..N in sequence.
	ErrStepOrder = errors.New("wizard: step orders must run 1..N in sequence")
)

// Wizard is the step wizard engine.
type Wizard struct {
	steps  []StepDefinition
	owners map[string]int

	cursor int
	values FormState
	errors ErrorState
	phase  Phase

	onComplete CompletionFunc
	onClose    func()
	observer   Observer
	now        func() time.Time
	logger     *slog.Logger
}

// New constructs a closed wizard over steps. Steps are copied; their Order
// values must run 1..N in slice order.
func New(steps []StepDefinition, options ...Option) (*Wizard, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	w := &Wizard{
		steps:    make([]StepDefinition, len(steps)),
		owners:   make(map[string]int),
		cursor:   1,
		values:   FormState{},
		errors:   ErrorState{},
		phase:    PhaseClosed,
		observer: nopObserver{},
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for i, step := range steps {
		if step.Order != i+1 {
			return nil, fmt.Errorf("%w: position %d has order %d", ErrStepOrder, i+1, step.Order)
		}
		if step.CompletionPercent < 0 || step.CompletionPercent > 100 {
			return nil, fmt.Errorf("wizard: step %d completion percent %d outside 0..100", step.Order, step.CompletionPercent)
		}
		w.steps[i] = step.clone()
		for _, key := range step.Keys() {
			if _, owned := w.owners[key]; !owned {
				w.owners[key] = step.Order
			}
		}
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}

	return w, nil
}

// Open seeds the answers from initial, rewinds to step 1, clears errors and
// makes the wizard visible.
func (w *Wizard) Open(initial FormState) {
	w.values = initial.Clone()
	w.errors = ErrorState{}
	w.cursor = 1
	w.phase = PhaseOpen
	w.logger.Debug("wizard opened", slog.Int("seeded", len(initial)))
}

// Resume reopens the wizard from a snapshot. The cursor is clamped to the
// available steps.
func (w *Wizard) Resume(snapshot Snapshot) {
	w.Open(snapshot.Values)
	w.cursor = w.clamp(snapshot.Cursor)
	w.logger.Debug("wizard resumed", slog.Int("step", w.cursor))
}

// Snapshot returns the resumable state.
func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{Cursor: w.cursor, Values: w.values.Clone()}
}

// SetField records value under key and clears any error on that key only.
func (w *Wizard) SetField(key string, value any) {
	if w.values == nil {
		w.values = FormState{}
	}
	w.values[key] = value
	delete(w.errors, key)
}

// Validate runs the required and field rules of the given 1-based step. It
// replaces the errors of that step's fields, leaves other fields untouched and
// returns the step's errors. Unknown steps yield an empty mapping.
func (w *Wizard) Validate(step int) ErrorState {
	def, ok := w.stepAt(step)
	if !ok {
		return ErrorState{}
	}

	found := validateStep(def, w.values, w.now())

	if w.errors == nil {
		w.errors = ErrorState{}
	}
	for _, key := range def.Keys() {
		delete(w.errors, key)
	}
	for key, msg := range found {
		w.errors[key] = msg
	}
	return found.Clone()
}

func validateStep(def StepDefinition, values FormState, now time.Time) ErrorState {
	found := ErrorState{}
	for _, key := range def.RequiredFields {
		if ValueOf(values[key]).IsEmpty() {
			found[key] = RequiredMessage(key)
		}
	}

	for key, rules := range def.Rules {
		if _, failed := found[key]; failed {
			continue
		}
		value := ValueOf(values[key])
		if value.IsEmpty() {
			continue
		}
		for _, rule := range rules {
			if !rule.Passes(value, now) {
				found[key] = rule.Message
				break
			}
		}
	}
	return found
}

// Next validates the current step and advances on success. On the last step
// it delegates to Complete. The returned error only ever comes from the
// completion sink.
func (w *Wizard) Next() (Transition, error) {
	if w.phase != PhaseOpen {
		return TransitionBlocked, nil
	}
	if w.cursor >= len(w.steps) {
		completed, err := w.Complete()
		if completed {
			return TransitionCompleted, nil
		}
		return TransitionBlocked, err
	}

	if errs := w.Validate(w.cursor); len(errs) > 0 {
		w.blocked(errs)
		return TransitionBlocked, nil
	}

	from := w.cursor
	w.cursor++
	w.observer.Advanced(from, w.cursor)
	w.logger.Debug("wizard advanced", slog.Int("from", from), slog.Int("to", w.cursor))
	return TransitionAdvanced, nil
}

// Previous moves back one step without validating. It never goes below 1.
func (w *Wizard) Previous() {
	if w.cursor > 1 {
		w.cursor--
	}
}

// Complete validates the current step and hands a copy of the answers to the
// completion sink. It reports whether the sink accepted them. A sink error is
// returned as is; field errors it carries are merged into the error state and
// the cursor moves to the earliest step owning one of them. Only an open
// wizard on its last step can complete.
func (w *Wizard) Complete() (bool, error) {
	if w.phase != PhaseOpen || w.cursor != len(w.steps) {
		return false, nil
	}
	if errs := w.Validate(w.cursor); len(errs) > 0 {
		w.blocked(errs)
		return false, nil
	}

	if w.onComplete != nil {
		if err := w.onComplete(w.values.Clone()); err != nil {
			w.absorb(err)
			w.logger.Debug("wizard completion rejected", slog.Int("step", w.cursor), slog.String("error", err.Error()))
			return false, err
		}
	}

	w.phase = PhaseCompleted
	w.observer.Completed(w.cursor)
	w.logger.Debug("wizard completed", slog.Int("fields", len(w.values)))
	return true, nil
}

// Close abandons the wizard: all state returns to its initial empty values
// and the host is told to hide it.
func (w *Wizard) Close() {
	step := w.cursor
	abandoned := w.phase == PhaseOpen

	w.cursor = 1
	w.values = FormState{}
	w.errors = ErrorState{}
	w.phase = PhaseClosed

	if abandoned {
		w.observer.Closed(step)
	}
	w.logger.Debug("wizard closed", slog.Int("step", step))
	if w.onClose != nil {
		w.onClose()
	}
}

func (w *Wizard) blocked(errs ErrorState) {
	w.observer.Blocked(w.cursor, errs)
	w.logger.Debug("wizard blocked", slog.Int("step", w.cursor), slog.Int("errors", len(errs)))
}

func (w *Wizard) absorb(err error) {
	var carrier FieldErrorer
	if !errors.As(err, &carrier) {
		return
	}

	earliest := 0
	for key, msg := range carrier.FieldErrors() {
		step, ok := w.owners[key]
		if !ok || msg == "" {
			continue
		}
		w.errors[key] = msg
		if earliest == 0 || step < earliest {
			earliest = step
		}
	}
	if earliest > 0 {
		w.cursor = earliest
	}
}

// Cursor returns the 1-based index of the active step.
func (w *Wizard) Cursor() int {
	return w.cursor
}

// Len returns the number of steps.
func (w *Wizard) Len() int {
	return len(w.steps)
}

// Step returns the active step definition.
func (w *Wizard) Step() StepDefinition {
	def, _ := w.stepAt(w.cursor)
	return def.clone()
}

// Steps returns copies of every step definition.
func (w *Wizard) Steps() []StepDefinition {
	out := make([]StepDefinition, len(w.steps))
	for i, step := range w.steps {
		out[i] = step.clone()
	}
	return out
}

// IsLast reports whether the cursor sits on the final step.
func (w *Wizard) IsLast() bool {
	return w.cursor == len(w.steps)
}

// Values returns a copy of the accumulated answers.
func (w *Wizard) Values() FormState {
	return w.values.Clone()
}

// Value returns the answer stored under key.
func (w *Wizard) Value(key string) (any, bool) {
	value, ok := w.values[key]
	return value, ok
}

// Errors returns a copy of the current error state.
func (w *Wizard) Errors() ErrorState {
	return w.errors.Clone()
}

// Phase returns the lifecycle phase.
func (w *Wizard) Phase() Phase {
	return w.phase
}

// Visible reports whether the host should display the wizard.
func (w *Wizard) Visible() bool {
	return w.phase != PhaseClosed
}

// Progress returns the completion percent of the active step.
func (w *Wizard) Progress() int {
	return w.Step().CompletionPercent
}

// StepOf returns the order of the first step that owns key.
func (w *Wizard) StepOf(key string) (int, bool) {
	step, ok := w.owners[key]
	return step, ok
}

func (w *Wizard) stepAt(step int) (StepDefinition, bool) {
	if step < 1 || step > len(w.steps) {
		return StepDefinition{}, false
	}
	return w.steps[step-1], true
}

func (w *Wizard) clamp(step int) int {
	if step < 1 {
		return 1
	}
	if step > len(w.steps) {
		return len(w.steps)
	}
	return step
}
