// Package wizard implements the step wizard engine that backs the onboarding
// flow: a linear, resumable sequence of steps where forward navigation is
// gated by per-step validation. The engine owns three pieces of state: the
// cursor (1-based step index), the accumulated FormState and the ErrorState
// produced by the last validation pass of each step. It performs no I/O; the
// initial data supplier, the completion sink and the close notification are
// supplied by the host through Open, WithOnComplete and WithOnClose.
//
// Validation is table driven. Each StepDefinition lists its required fields
// and a RuleTable mapping field keys to ordered Rule values. Required checks
// run first; rules only run for non-empty values and the first failing rule
// wins. Rule constructors (Length, Pattern, Range, YearWindow, AgeBetween)
// are pure predicates evaluated against the wizard clock so date-relative
// checks stay deterministic under test.
//
// A Wizard is not safe for concurrent use; it is meant to be driven by one
// interaction at a time.
package wizard
