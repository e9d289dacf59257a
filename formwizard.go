// Package formwizard exposes the onboarding wizard engine from the module
// root. Hosts that only need the reference flow start with NewOnboarding;
// the pkg/ packages cover custom flows, the profile API and drafts.
package formwizard

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/flow"
	"github.com/goliatone/go-formwizard/pkg/orchestrator"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Wizard aliases the step engine so callers can stay on the root import.
type Wizard = wizard.Wizard

// FormState is the answer map shared across steps.
type FormState = wizard.FormState

// ErrorState maps field keys to their current validation message.
type ErrorState = wizard.ErrorState

// StepDefinition describes one wizard step.
type StepDefinition = wizard.StepDefinition

// Snapshot is the resumable part of a wizard.
type Snapshot = wizard.Snapshot

// NewOnboarding builds a closed wizard over the embedded freelancer
// onboarding flow. Call Open or Resume to show it.
func NewOnboarding(options ...wizard.Option) (*Wizard, error) {
	f, err := flow.Default()
	if err != nil {
		return nil, err
	}
	return f.New(options...)
}

// NewOrchestrator exposes the session orchestrator constructor from the
// top-level module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// StartOnboarding opens a session over the reference flow, resuming a draft
// or seeding from the profile API when those options are given.
func StartOnboarding(ctx context.Context, options ...orchestrator.Option) (*orchestrator.Session, error) {
	return orchestrator.New(options...).Start(ctx)
}

// EmbeddedFlow returns the YAML source of the reference flow so callers can
// copy and extend it.
func EmbeddedFlow() []byte {
	return flow.DefaultSource()
}
