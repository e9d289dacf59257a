// Package orchestrator assembles an onboarding session: it compiles the
// flow, resumes a saved draft or seeds the answers from the profile API,
// submits the answers on completion and keeps the draft store in step.
package orchestrator
