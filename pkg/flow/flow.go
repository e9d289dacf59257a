// Package flow loads wizard step definitions from YAML documents. A flow
// document lists ordered steps; each step names its required fields and the
// validation rules of every field it collects. Parse compiles the document
// into wizard.StepDefinition values so the engine only sees predicates.
//
// The reference freelancer onboarding flow is embedded and returned by
// Default.
package flow

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

//go:embed onboarding.yaml
var onboardingYAML []byte

var (
	// ErrEmptyDocument is returned when the payload holds no steps.
	ErrEmptyDocument = errors.New("flow: document does not define any steps")
	// ErrUnknownRule is returned for rule kinds Parse does not understand.
	ErrUnknownRule = errors.New("flow: unknown rule kind")
)

// Document mirrors the YAML layout of a flow definition.
type Document struct {
	ID    string     `yaml:"id"`
	Title string     `yaml:"title"`
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec describes one step in a flow document.
type StepSpec struct {
	Order       int         `yaml:"order"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Completion  int         `yaml:"completion"`
	Required    []string    `yaml:"required"`
	Fields      []FieldSpec `yaml:"fields"`
}

// FieldSpec lists the input hint and ordered rules of a field.
type FieldSpec struct {
	Key   string     `yaml:"key"`
	Input string     `yaml:"input,omitempty"`
	Rules []RuleSpec `yaml:"rules,omitempty"`
}

// RuleSpec is the declarative form of a wizard.Rule. Which bounds apply
// depends on Kind.
type RuleSpec struct {
	Kind    string   `yaml:"kind"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Before  *int     `yaml:"before,omitempty"`
	After   *int     `yaml:"after,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
	Message string   `yaml:"message,omitempty"`
}

// Flow is a compiled flow definition.
type Flow struct {
	ID    string
	Title string
	Steps []wizard.StepDefinition
}

// New builds a wizard over the flow's steps.
func (f Flow) New(options ...wizard.Option) (*wizard.Wizard, error) {
	return wizard.New(f.Steps, options...)
}

// FieldKeys lists every field key in step order, without duplicates.
func (f Flow) FieldKeys() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, step := range f.Steps {
		for _, key := range step.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}

// Default returns the embedded freelancer onboarding flow.
func Default() (Flow, error) {
	return Parse(onboardingYAML)
}

// DefaultSource returns the raw YAML of the embedded onboarding flow.
func DefaultSource() []byte {
	return append([]byte(nil), onboardingYAML...)
}

// LoadFile reads and compiles a flow document from disk.
func LoadFile(path string) (Flow, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Flow{}, errors.New("flow: path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Flow{}, fmt.Errorf("flow: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and compiles a YAML flow document.
func Parse(data []byte) (Flow, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Flow{}, fmt.Errorf("flow: decode: %w", err)
	}
	return Compile(doc)
}

// Compile validates doc and converts it into step definitions. Steps are
// sorted by order, which must then run 1..N without gaps.
func Compile(doc Document) (Flow, error) {
	if len(doc.Steps) == 0 {
		return Flow{}, ErrEmptyDocument
	}

	specs := append([]StepSpec(nil), doc.Steps...)
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Order < specs[j].Order
	})

	flow := Flow{
		ID:    strings.TrimSpace(doc.ID),
		Title: strings.TrimSpace(doc.Title),
		Steps: make([]wizard.StepDefinition, 0, len(specs)),
	}

	for i, spec := range specs {
		if spec.Order != i+1 {
			return Flow{}, fmt.Errorf("flow: step orders must run 1..%d, found %d at position %d", len(specs), spec.Order, i+1)
		}
		step, err := compileStep(spec)
		if err != nil {
			return Flow{}, err
		}
		flow.Steps = append(flow.Steps, step)
	}
	return flow, nil
}

func compileStep(spec StepSpec) (wizard.StepDefinition, error) {
	if spec.Completion < 0 || spec.Completion > 100 {
		return wizard.StepDefinition{}, fmt.Errorf("flow: step %d completion %d outside 0..100", spec.Order, spec.Completion)
	}

	step := wizard.StepDefinition{
		Order:             spec.Order,
		Title:             strings.TrimSpace(spec.Title),
		Description:       strings.TrimSpace(spec.Description),
		CompletionPercent: spec.Completion,
		RequiredFields:    trimKeys(spec.Required),
		Rules:             wizard.RuleTable{},
		Inputs:            map[string]wizard.InputKind{},
	}

	for _, field := range spec.Fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return wizard.StepDefinition{}, fmt.Errorf("flow: step %d has a field without key", spec.Order)
		}
		step.Fields = append(step.Fields, key)

		if field.Input != "" {
			kind, err := parseInput(field.Input)
			if err != nil {
				return wizard.StepDefinition{}, fmt.Errorf("flow: step %d field %s: %w", spec.Order, key, err)
			}
			step.Inputs[key] = kind
		}

		for idx, ruleSpec := range field.Rules {
			rule, err := compileRule(key, ruleSpec)
			if err != nil {
				return wizard.StepDefinition{}, fmt.Errorf("flow: step %d field %s rule %d: %w", spec.Order, key, idx, err)
			}
			step.Rules[key] = append(step.Rules[key], rule)
		}
	}
	return step, nil
}

func compileRule(key string, spec RuleSpec) (wizard.Rule, error) {
	message := strings.TrimSpace(spec.Message)
	if message == "" {
		message = wizard.HumanizeKey(key) + " is invalid"
	}

	switch strings.TrimSpace(spec.Kind) {
	case wizard.RuleKindLength:
		if spec.Min == nil || spec.Max == nil {
			return wizard.Rule{}, errors.New("length requires min and max")
		}
		if *spec.Min < 0 || *spec.Max < *spec.Min {
			return wizard.Rule{}, fmt.Errorf("length bounds %v..%v are invalid", *spec.Min, *spec.Max)
		}
		return wizard.Length(int(*spec.Min), int(*spec.Max), message), nil
	case wizard.RuleKindMaxLength:
		if spec.Max == nil || *spec.Max < 0 {
			return wizard.Rule{}, errors.New("maxLength requires a non-negative max")
		}
		return wizard.MaxLength(int(*spec.Max), message), nil
	case wizard.RuleKindPattern:
		if spec.Pattern == "" {
			return wizard.Rule{}, errors.New("pattern requires an expression")
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return wizard.Rule{}, fmt.Errorf("compile pattern: %w", err)
		}
		return wizard.Pattern(re, message), nil
	case wizard.RuleKindRange:
		if spec.Min == nil || spec.Max == nil {
			return wizard.Rule{}, errors.New("range requires min and max")
		}
		if *spec.Max < *spec.Min {
			return wizard.Rule{}, fmt.Errorf("range bounds %v..%v are invalid", *spec.Min, *spec.Max)
		}
		return wizard.Range(*spec.Min, *spec.Max, message), nil
	case wizard.RuleKindYearWindow:
		if spec.Before == nil || spec.After == nil || *spec.Before < 0 || *spec.After < 0 {
			return wizard.Rule{}, errors.New("yearWindow requires non-negative before and after")
		}
		return wizard.YearWindow(*spec.Before, *spec.After, message), nil
	case wizard.RuleKindAge:
		if spec.Min == nil || spec.Max == nil {
			return wizard.Rule{}, errors.New("age requires min and max")
		}
		if *spec.Max < *spec.Min {
			return wizard.Rule{}, fmt.Errorf("age bounds %v..%v are invalid", *spec.Min, *spec.Max)
		}
		return wizard.AgeBetween(int(*spec.Min), int(*spec.Max), message), nil
	default:
		return wizard.Rule{}, fmt.Errorf("%w %q", ErrUnknownRule, spec.Kind)
	}
}

func parseInput(raw string) (wizard.InputKind, error) {
	switch kind := wizard.InputKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case wizard.InputString, wizard.InputText, wizard.InputNumber, wizard.InputInteger, wizard.InputDate:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown input %q", raw)
	}
}

func trimKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
