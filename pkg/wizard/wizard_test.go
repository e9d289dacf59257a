package wizard_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/testsupport"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func TestValidate_ValidAnswersPassEveryStep(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(testsupport.ValidAnswers())

	for step := 1; step <= w.Len(); step++ {
		if errs := w.Validate(step); len(errs) != 0 {
			t.Fatalf("step %d: unexpected errors %v", step, errs)
		}
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)

	for _, step := range w.Steps() {
		for _, key := range step.RequiredFields {
			for _, blank := range []any{nil, "", "   "} {
				values := testsupport.ValidAnswers()
				if blank == nil {
					delete(values, key)
				} else {
					values[key] = blank
				}
				w.Open(values)

				errs := w.Validate(step.Order)
				want := wizard.ErrorState{key: wizard.RequiredMessage(key)}
				if diff := cmp.Diff(want, errs); diff != "" {
					t.Fatalf("step %d field %s blank %q mismatch (-want +got):\n%s", step.Order, key, blank, diff)
				}
			}
		}
	}
}

func TestValidate_FieldRules(t *testing.T) {
	cases := []struct {
		name  string
		step  int
		field string
		value any
		want  string
	}{
		{"first name too short", 1, "firstName", "A", "First name must be between 2 and 50 characters"},
		{"first name too long", 1, "firstName", strings.Repeat("a", 51), "First name must be between 2 and 50 characters"},
		{"first name digits", 1, "firstName", "Al3x", "First name can only contain letters and spaces"},
		{"first name with space", 1, "firstName", "Mary Ann", ""},
		{"last name symbols", 1, "lastName", "O'Neil", "Last name can only contain letters and spaces"},
		{"email malformed", 1, "email", "amara.example.com", "Please enter a valid email address"},
		{"email too long", 1, "email", strings.Repeat("a", 250) + "@example.com", "Email must not exceed 254 characters"},
		{"phone without country code", 1, "phoneNumber", "0771234567", "Phone number must be in the format +CCXXXXXXXXX"},
		{"phone short", 1, "phoneNumber", "+9477123456", "Phone number must be in the format +CCXXXXXXXXX"},
		{"phone blank is optional", 1, "phoneNumber", "  ", ""},
		{"too young", 1, "dateOfBirth", "2010-01-01", "You must be between 16 and 100 years old"},
		{"sixteen by calendar year", 1, "dateOfBirth", "2009-12-31", ""},
		{"one hundred", 1, "dateOfBirth", "1925-12-31", ""},
		{"too old", 1, "dateOfBirth", "1924-01-01", "You must be between 16 and 100 years old"},
		{"unparseable date", 1, "dateOfBirth", "someday", "You must be between 16 and 100 years old"},
		{"gpa above range", 2, "gpa", "5", "GPA must be between 0 and 4"},
		{"gpa upper bound", 2, "gpa", 4.0, ""},
		{"gpa lower bound", 2, "gpa", "0", ""},
		{"gpa negative", 2, "gpa", -0.1, "GPA must be between 0 and 4"},
		{"gpa not numeric", 2, "gpa", "A+", "GPA must be between 0 and 4"},
		{"graduation year too late", 2, "graduationYear", 2036, "Graduation year must be within 10 years of the current year"},
		{"graduation year earliest", 2, "graduationYear", "2015", ""},
		{"graduation year fractional", 2, "graduationYear", "2020.5", "Graduation year must be within 10 years of the current year"},
		{"degree too short", 2, "degreeProgram", "CS", "Degree program must be between 3 and 100 characters"},
		{"university too long", 2, "university", strings.Repeat("u", 101), "University must be between 3 and 100 characters"},
		{"technical skills short", 3, "technicalSkills", "Go", "Technical skills must be between 5 and 500 characters"},
		{"soft skills long", 3, "softSkills", strings.Repeat("s", 501), "Soft skills must be between 5 and 500 characters"},
		{"portfolio short", 3, "portfolioProjects", "a site", "Portfolio projects must be between 10 and 1000 characters"},
		{"career goals short", 4, "careerGoals", "money", "Career goals must be between 10 and 500 characters"},
		{"availability short", 4, "availability", "now", "Availability must be between 5 and 200 characters"},
		{"hourly rate upper bound", 4, "hourlyRate", 1000, ""},
		{"hourly rate above", 4, "hourlyRate", "1000.01", "Hourly rate must be between 0 and 1000"},
		{"hourly rate negative", 4, "hourlyRate", -1, "Hourly rate must be between 0 and 1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testsupport.NewOnboardingWizard(t)
			values := testsupport.ValidAnswers()
			values[tc.field] = tc.value
			w.Open(values)

			errs := w.Validate(tc.step)
			want := wizard.ErrorState{}
			if tc.want != "" {
				want[tc.field] = tc.want
			}
			if diff := cmp.Diff(want, errs); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_OnlyReplacesOwnStepErrors(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(wizard.FormState{})

	w.Validate(1)
	w.Validate(2)
	if len(w.Errors()) != 6 {
		t.Fatalf("expected errors for both steps, got %v", w.Errors())
	}

	for key, value := range testsupport.StepAnswers(1) {
		w.SetField(key, value)
	}
	w.SetField("email", "broken")
	w.Validate(1)

	want := wizard.ErrorState{
		"email":          "Please enter a valid email address",
		"university":     "University is required",
		"degreeProgram":  "Degree Program is required",
		"graduationYear": "Graduation Year is required",
	}
	if diff := cmp.Diff(want, w.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(wizard.FormState{"firstName": "X", "email": "nope"})

	first := w.Validate(1)
	second := w.Validate(1)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("validate not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, w.Errors()); diff != "" {
		t.Fatalf("error state diverged (-want +got):\n%s", diff)
	}
}

func TestValidate_UnknownStep(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(wizard.FormState{})
	w.Validate(1)
	before := w.Errors()

	for _, step := range []int{0, -1, 5} {
		if errs := w.Validate(step); len(errs) != 0 {
			t.Fatalf("step %d: expected no errors, got %v", step, errs)
		}
	}
	if diff := cmp.Diff(before, w.Errors()); diff != "" {
		t.Fatalf("error state mutated (-want +got):\n%s", diff)
	}
}

func TestNext_BlockedScenario(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(wizard.FormState{"firstName": "Al"})

	tr, err := w.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tr != wizard.TransitionBlocked || w.Cursor() != 1 {
		t.Fatalf("expected blocked on step 1, got %s at %d", tr, w.Cursor())
	}
	want := wizard.ErrorState{
		"lastName": "Last Name is required",
		"email":    "Email is required",
	}
	if diff := cmp.Diff(want, w.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	w.SetField("lastName", "Smith")
	w.SetField("email", "al@x.com")

	tr, err = w.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tr != wizard.TransitionAdvanced || w.Cursor() != 2 {
		t.Fatalf("expected advance to step 2, got %s at %d", tr, w.Cursor())
	}
	if len(w.Errors()) != 0 {
		t.Fatalf("expected clean error state, got %v", w.Errors())
	}
}

func TestNext_NeverAdvancesWithErrors(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	values := testsupport.ValidAnswers()
	values["gpa"] = "5"
	w.Open(values)

	if tr, _ := w.Next(); tr != wizard.TransitionAdvanced {
		t.Fatalf("expected step 1 to pass, got %s", tr)
	}
	for i := 0; i < 3; i++ {
		tr, err := w.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if tr != wizard.TransitionBlocked || w.Cursor() != 2 {
			t.Fatalf("attempt %d: expected blocked at step 2, got %s at %d", i, tr, w.Cursor())
		}
	}
	if got := w.Errors()["gpa"]; got != "GPA must be between 0 and 4" {
		t.Fatalf("unexpected gpa error %q", got)
	}
}

func TestPrevious_NeverValidates(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(testsupport.ValidAnswers())
	w.Next()
	w.Next()
	if w.Cursor() != 3 {
		t.Fatalf("expected step 3, got %d", w.Cursor())
	}

	w.SetField("firstName", "")
	w.SetField("technicalSkills", "")
	w.Validate(3)
	errsBefore := w.Errors()

	w.Previous()
	w.Previous()
	w.Previous()
	if w.Cursor() != 1 {
		t.Fatalf("expected floor at step 1, got %d", w.Cursor())
	}
	if diff := cmp.Diff(errsBefore, w.Errors()); diff != "" {
		t.Fatalf("previous touched error state (-want +got):\n%s", diff)
	}
	if _, ok := w.Errors()["firstName"]; ok {
		t.Fatalf("previous must not validate the step it lands on")
	}
}

func TestSetField_ClearsOnlyThatError(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	w.Open(wizard.FormState{})
	w.Validate(1)

	w.SetField("email", "still-wrong")

	want := wizard.ErrorState{
		"firstName": "First Name is required",
		"lastName":  "Last Name is required",
	}
	if diff := cmp.Diff(want, w.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if got, _ := w.Value("email"); got != "still-wrong" {
		t.Fatalf("expected value to be stored, got %v", got)
	}
}

func TestNext_LastStepInvokesCompletionSink(t *testing.T) {
	var received []wizard.FormState
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnComplete(func(values wizard.FormState) error {
		received = append(received, values)
		return nil
	}))
	w.Open(wizard.FormState{})

	for step := 1; step <= 4; step++ {
		for key, value := range testsupport.StepAnswers(step) {
			w.SetField(key, value)
		}
		tr, err := w.Next()
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		want := wizard.TransitionAdvanced
		if step == 4 {
			want = wizard.TransitionCompleted
		}
		if tr != want {
			t.Fatalf("step %d: got %s, want %s", step, tr, want)
		}
	}

	if len(received) != 1 {
		t.Fatalf("expected sink to run once, got %d", len(received))
	}
	if diff := cmp.Diff(testsupport.ValidAnswers(), received[0]); diff != "" {
		t.Fatalf("sink payload mismatch (-want +got):\n%s", diff)
	}
	if w.Phase() != wizard.PhaseCompleted || w.Cursor() != 4 {
		t.Fatalf("expected completed at step 4, got %s at %d", w.Phase(), w.Cursor())
	}
}

func TestComplete_BlockedDoesNotInvokeSink(t *testing.T) {
	called := false
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnComplete(func(wizard.FormState) error {
		called = true
		return nil
	}))
	values := testsupport.ValidAnswers()
	values["hourlyRate"] = 2500
	w.Resume(wizard.Snapshot{Cursor: 4, Values: values})

	ok, err := w.Complete()
	if ok || err != nil || called {
		t.Fatalf("expected blocked completion, got ok=%v err=%v called=%v", ok, err, called)
	}
	if w.Phase() != wizard.PhaseOpen {
		t.Fatalf("expected wizard to stay open, got %s", w.Phase())
	}
}

func TestComplete_RejectedBeforeLastStep(t *testing.T) {
	calls := 0
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnComplete(func(wizard.FormState) error {
		calls++
		return nil
	}))
	w.Open(testsupport.StepAnswers(1))

	ok, err := w.Complete()
	if ok || err != nil {
		t.Fatalf("expected completion to be refused on step 1, got ok=%v err=%v", ok, err)
	}
	if calls != 0 {
		t.Fatalf("expected sink not to run, got %d calls", calls)
	}
	if w.Phase() != wizard.PhaseOpen || w.Cursor() != 1 {
		t.Fatalf("expected open wizard on step 1, got %s at %d", w.Phase(), w.Cursor())
	}
}

func TestNext_CompletedWizardDoesNotSubmitTwice(t *testing.T) {
	calls := 0
	obs := &recordingObserver{}
	w := testsupport.NewOnboardingWizard(t,
		wizard.WithObserver(obs),
		wizard.WithOnComplete(func(wizard.FormState) error {
			calls++
			return nil
		}),
	)
	w.Resume(wizard.Snapshot{Cursor: 4, Values: testsupport.ValidAnswers()})

	if tr, _ := w.Next(); tr != wizard.TransitionCompleted {
		t.Fatalf("expected first Next to complete, got %s", tr)
	}
	if tr, err := w.Next(); tr != wizard.TransitionBlocked || err != nil {
		t.Fatalf("expected second Next to be refused, got %s err=%v", tr, err)
	}
	if ok, _ := w.Complete(); ok {
		t.Fatalf("expected Complete on a completed wizard to be refused")
	}
	if calls != 1 {
		t.Fatalf("expected a single submission, got %d", calls)
	}
	if diff := cmp.Diff([]int{4}, obs.completed); diff != "" {
		t.Fatalf("completed mismatch (-want +got):\n%s", diff)
	}
}

func TestNext_ClosedWizardStaysHidden(t *testing.T) {
	calls := 0
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnComplete(func(wizard.FormState) error {
		calls++
		return nil
	}))
	w.Open(testsupport.StepAnswers(1))
	w.Close()

	for key, value := range testsupport.ValidAnswers() {
		w.SetField(key, value)
	}
	for i := 0; i < 4; i++ {
		if tr, _ := w.Next(); tr != wizard.TransitionBlocked {
			t.Fatalf("Next %d on closed wizard: got %s", i+1, tr)
		}
	}

	if w.Visible() || w.Phase() != wizard.PhaseClosed {
		t.Fatalf("expected closed wizard, got %s", w.Phase())
	}
	if calls != 0 || w.Cursor() != 1 {
		t.Fatalf("expected no submission and cursor 1, got calls=%d cursor=%d", calls, w.Cursor())
	}
}

type rejection struct {
	fields map[string]string
}

func (r *rejection) Error() string {
	return "profile rejected"
}

func (r *rejection) FieldErrors() map[string]string {
	return r.fields
}

func TestComplete_SinkFieldErrorsRewindCursor(t *testing.T) {
	sinkErr := &rejection{fields: map[string]string{
		"email":      "Email is already registered",
		"hourlyRate": "Rate too high for tier",
		"unknown":    "ignored",
	}}
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnComplete(func(wizard.FormState) error {
		return sinkErr
	}))
	w.Resume(wizard.Snapshot{Cursor: 4, Values: testsupport.ValidAnswers()})

	tr, err := w.Next()
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if tr != wizard.TransitionBlocked {
		t.Fatalf("expected blocked transition, got %s", tr)
	}
	if w.Cursor() != 1 {
		t.Fatalf("expected cursor to rewind to step 1, got %d", w.Cursor())
	}
	want := wizard.ErrorState{
		"email":      "Email is already registered",
		"hourlyRate": "Rate too high for tier",
	}
	if diff := cmp.Diff(want, w.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if w.Phase() != wizard.PhaseOpen {
		t.Fatalf("expected wizard to stay open, got %s", w.Phase())
	}
}

func TestClose_ResetsEverything(t *testing.T) {
	closed := 0
	w := testsupport.NewOnboardingWizard(t, wizard.WithOnClose(func() { closed++ }))
	w.Open(testsupport.StepAnswers(1))
	w.Next()
	w.SetField("gpa", "9")
	w.Validate(2)

	w.Close()

	if closed != 1 {
		t.Fatalf("expected close hook once, got %d", closed)
	}
	if w.Cursor() != 1 || len(w.Values()) != 0 || len(w.Errors()) != 0 {
		t.Fatalf("expected reset state, got cursor=%d values=%v errors=%v", w.Cursor(), w.Values(), w.Errors())
	}
	if w.Visible() || w.Phase() != wizard.PhaseClosed {
		t.Fatalf("expected hidden wizard, got %s", w.Phase())
	}
}

func TestOpen_SeedsAndCopies(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)
	seed := wizard.FormState{"firstName": "Amara"}
	w.Open(seed)
	seed["firstName"] = "mutated"

	if got, _ := w.Value("firstName"); got != "Amara" {
		t.Fatalf("expected seed to be copied, got %v", got)
	}
	if _, ok := w.Value("lastName"); ok {
		t.Fatalf("missing keys must stay absent")
	}
	if !w.Visible() || w.Cursor() != 1 || w.Progress() != 25 {
		t.Fatalf("unexpected open state: visible=%v cursor=%d progress=%d", w.Visible(), w.Cursor(), w.Progress())
	}
}

func TestResume_ClampsCursor(t *testing.T) {
	w := testsupport.NewOnboardingWizard(t)

	w.Resume(wizard.Snapshot{Cursor: 9, Values: wizard.FormState{"email": "a@b.co"}})
	if w.Cursor() != 4 || !w.IsLast() {
		t.Fatalf("expected clamp to last step, got %d", w.Cursor())
	}
	snap := w.Snapshot()
	if snap.Cursor != 4 || snap.Values["email"] != "a@b.co" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w.Resume(wizard.Snapshot{Cursor: 0})
	if w.Cursor() != 1 {
		t.Fatalf("expected clamp to first step, got %d", w.Cursor())
	}
}

func TestNew_RejectsBadSteps(t *testing.T) {
	if _, err := wizard.New(nil); !errors.Is(err, wizard.ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	_, err := wizard.New([]wizard.StepDefinition{{Order: 1}, {Order: 3}})
	if !errors.Is(err, wizard.ErrStepOrder) {
		t.Fatalf("expected ErrStepOrder, got %v", err)
	}
	if _, err := wizard.New([]wizard.StepDefinition{{Order: 1, CompletionPercent: 120}}); err == nil {
		t.Fatalf("expected completion percent error")
	}
}

type recordingObserver struct {
	advanced  [][2]int
	blocked   []int
	completed []int
	closed    []int
}

func (r *recordingObserver) Advanced(from, to int) {
	r.advanced = append(r.advanced, [2]int{from, to})
}

func (r *recordingObserver) Blocked(step int, _ wizard.ErrorState) {
	r.blocked = append(r.blocked, step)
}

func (r *recordingObserver) Completed(step int) {
	r.completed = append(r.completed, step)
}

func (r *recordingObserver) Closed(step int) {
	r.closed = append(r.closed, step)
}

func TestObserverReceivesTransitions(t *testing.T) {
	obs := &recordingObserver{}
	w := testsupport.NewOnboardingWizard(t, wizard.WithObserver(obs))
	w.Open(testsupport.StepAnswers(1))

	w.Next()
	w.Next()
	w.Close()

	if diff := cmp.Diff([][2]int{{1, 2}}, obs.advanced); diff != "" {
		t.Fatalf("advanced mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, obs.blocked); diff != "" {
		t.Fatalf("blocked mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, obs.closed); diff != "" {
		t.Fatalf("closed mismatch (-want +got):\n%s", diff)
	}
	if len(obs.completed) != 0 {
		t.Fatalf("unexpected completion events %v", obs.completed)
	}
}

func TestClose_AfterCompletionIsNotAbandonment(t *testing.T) {
	obs := &recordingObserver{}
	w := testsupport.NewOnboardingWizard(t, wizard.WithObserver(obs))
	w.Resume(wizard.Snapshot{Cursor: 4, Values: testsupport.ValidAnswers()})

	if ok, err := w.Complete(); !ok || err != nil {
		t.Fatalf("expected completion, got ok=%v err=%v", ok, err)
	}
	w.Close()

	if len(obs.closed) != 0 {
		t.Fatalf("expected no close event after completion, got %v", obs.closed)
	}
	if w.Phase() != wizard.PhaseClosed {
		t.Fatalf("expected closed phase, got %s", w.Phase())
	}
}
