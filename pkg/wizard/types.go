package wizard

import (
	"sort"
	"strings"
)

// FormState accumulates answers across every step, keyed by field key. Values
// are strings, numbers, time.Time or nil; nil is treated as absent.
type FormState map[string]any

// Clone returns a shallow copy of the state. A nil receiver yields an empty,
// non-nil map.
func (s FormState) Clone() FormState {
	out := make(FormState, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// ErrorState maps field keys to the message produced by the last validation
// pass touching that field.
type ErrorState map[string]string

// Clone returns a copy of the error mapping.
func (e ErrorState) Clone() ErrorState {
	out := make(ErrorState, len(e))
	for key, msg := range e {
		out[key] = msg
	}
	return out
}

// List returns the errors as FieldValidationError values sorted by field key.
func (e ErrorState) List() []FieldValidationError {
	if len(e) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]FieldValidationError, 0, len(keys))
	for _, key := range keys {
		out = append(out, FieldValidationError{Field: key, Message: e[key]})
	}
	return out
}

// FieldValidationError is the single error kind produced by the engine. It is
// always recoverable by correcting the offending field.
type FieldValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// InputKind hints how a host should collect and coerce a field value. The
// engine itself never looks at it.
type InputKind string

const (
	InputString  InputKind = "string"
	InputText    InputKind = "text"
	InputNumber  InputKind = "number"
	InputInteger InputKind = "integer"
	InputDate    InputKind = "date"
)

// StepDefinition describes one page of the wizard.
type StepDefinition struct {
	Order             int
	Title             string
	Description       string
	CompletionPercent int
	// RequiredFields must be non-empty for the step to validate.
	RequiredFields []string
	// Fields lists every key the step collects, in display order.
	Fields []string
	Rules  RuleTable
	Inputs map[string]InputKind
}

// Keys returns every field key owned by the step: Fields in order, then any
// required or rule keys not already listed (rule keys sorted).
func (d StepDefinition) Keys() []string {
	seen := make(map[string]struct{}, len(d.Fields)+len(d.RequiredFields)+len(d.Rules))
	var out []string
	add := func(key string) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	for _, key := range d.Fields {
		add(key)
	}
	for _, key := range d.RequiredFields {
		add(key)
	}
	ruleKeys := make([]string, 0, len(d.Rules))
	for key := range d.Rules {
		ruleKeys = append(ruleKeys, key)
	}
	sort.Strings(ruleKeys)
	for _, key := range ruleKeys {
		add(key)
	}
	return out
}

// IsRequired reports whether key is listed in RequiredFields.
func (d StepDefinition) IsRequired(key string) bool {
	for _, required := range d.RequiredFields {
		if required == key {
			return true
		}
	}
	return false
}

// Input returns the input hint for key, defaulting to InputString.
func (d StepDefinition) Input(key string) InputKind {
	if kind, ok := d.Inputs[key]; ok && kind != "" {
		return kind
	}
	return InputString
}

func (d StepDefinition) clone() StepDefinition {
	out := d
	out.RequiredFields = append([]string(nil), d.RequiredFields...)
	out.Fields = append([]string(nil), d.Fields...)
	if d.Rules != nil {
		out.Rules = make(RuleTable, len(d.Rules))
		for key, rules := range d.Rules {
			out.Rules[key] = append([]Rule(nil), rules...)
		}
	}
	if d.Inputs != nil {
		out.Inputs = make(map[string]InputKind, len(d.Inputs))
		for key, kind := range d.Inputs {
			out.Inputs[key] = kind
		}
	}
	return out
}

// Phase reports the lifecycle position of a wizard.
type Phase string

const (
	PhaseClosed    Phase = "closed"
	PhaseOpen      Phase = "open"
	PhaseCompleted Phase = "completed"
)

// Transition is the outcome of Next.
type Transition int

const (
	// TransitionBlocked means validation failed (or the completion sink
	// rejected the answers) and the cursor did not move.
	TransitionBlocked Transition = iota
	// TransitionAdvanced means the cursor moved forward by one step.
	TransitionAdvanced
	// TransitionCompleted means the last step validated and the completion
	// sink accepted the answers.
	TransitionCompleted
)

func (t Transition) String() string {
	switch t {
	case TransitionAdvanced:
		return "advanced"
	case TransitionCompleted:
		return "completed"
	default:
		return "blocked"
	}
}

// Snapshot captures the resumable part of a wizard.
type Snapshot struct {
	Cursor int       `json:"cursor"`
	Values FormState `json:"values"`
}

// CompletionFunc receives the accumulated answers once the last step
// validates. Returning an error keeps the wizard open; errors exposing
// FieldErrors are merged into the error state.
type CompletionFunc func(FormState) error

// FieldErrorer is implemented by completion errors that carry per-field
// messages, for example a backend validation response.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

// Observer receives navigation events. Implementations must not call back
// into the wizard.
type Observer interface {
	Advanced(from, to int)
	Blocked(step int, errs ErrorState)
	Completed(step int)
	Closed(step int)
}

type nopObserver struct{}

func (nopObserver) Advanced(int, int)       {}
func (nopObserver) Blocked(int, ErrorState) {}
func (nopObserver) Completed(int)           {}
func (nopObserver) Closed(int)              {}
