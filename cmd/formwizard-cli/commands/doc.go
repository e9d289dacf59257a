// Package commands implements the formwizard CLI: an interactive onboarding
// run, offline validation of answer files, and draft housekeeping.
package commands
