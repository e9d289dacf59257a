package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/flow"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Now is the fixed instant every fixture is relative to.
var Now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// Clock returns Now; pass it to wizard.WithClock.
func Clock() time.Time {
	return Now
}

// OnboardingFlow compiles the embedded reference flow, failing the test on
// error.
func OnboardingFlow(t testing.TB) flow.Flow {
	t.Helper()

	f, err := flow.Default()
	if err != nil {
		t.Fatalf("load default flow: %v", err)
	}
	return f
}

// NewOnboardingWizard builds a wizard over the reference flow with the fixed
// clock applied before any caller options.
func NewOnboardingWizard(t testing.TB, options ...wizard.Option) *wizard.Wizard {
	t.Helper()

	opts := append([]wizard.Option{wizard.WithClock(Clock)}, options...)
	w, err := OnboardingFlow(t).New(opts...)
	if err != nil {
		t.Fatalf("new wizard: %v", err)
	}
	return w
}

// StepAnswers returns valid answers for every field of the given reference
// step, optional fields included.
func StepAnswers(step int) wizard.FormState {
	switch step {
	case 1:
		return wizard.FormState{
			"firstName":   "Amara",
			"lastName":    "Okafor",
			"email":       "amara.okafor@example.com",
			"phoneNumber": "+94771234567",
			"dateOfBirth": time.Date(1998, time.March, 4, 0, 0, 0, 0, time.UTC),
		}
	case 2:
		return wizard.FormState{
			"university":     "University of Moratuwa",
			"degreeProgram":  "BSc Computer Science",
			"graduationYear": 2022,
			"gpa":            3.6,
		}
	case 3:
		return wizard.FormState{
			"technicalSkills":   "Go, PostgreSQL, Kubernetes",
			"softSkills":        "Clear written communication",
			"portfolioProjects": "Built a booking API used by three clinics.",
		}
	case 4:
		return wizard.FormState{
			"careerGoals":  "Grow into backend consulting for health-tech teams.",
			"availability": "20 hours per week",
			"hourlyRate":   45.0,
		}
	default:
		return wizard.FormState{}
	}
}

// ValidAnswers merges StepAnswers for all four reference steps.
func ValidAnswers() wizard.FormState {
	out := wizard.FormState{}
	for step := 1; step <= 4; step++ {
		for key, value := range StepAnswers(step) {
			out[key] = value
		}
	}
	return out
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set and
// reports whether it did, so the caller can return early.
func WriteGolden(t testing.TB, path string, value any) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareJSONGolden decodes the golden file at path into a fresh value of
// the same shape as got and returns a cmp diff (-want +got).
func CompareJSONGolden[T any](t testing.TB, path string, got T) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	var want T
	if err := json.Unmarshal(data, &want); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
	return cmp.Diff(want, got)
}
