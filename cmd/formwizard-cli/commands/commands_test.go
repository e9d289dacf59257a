package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/pkg/drafts"
	"github.com/goliatone/go-formwizard/pkg/tui"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// scriptedDriver accepts every default and replays the scripted menu
// choices. An exhausted select script cancels.
type scriptedDriver struct {
	selects  []int
	confirms []bool
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	return cfg.Default, nil
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	return cfg.Default, nil
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, tui.ErrCancelled
	}
	val := d.confirms[0]
	d.confirms = d.confirms[1:]
	return val, nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return -1, tui.ErrCancelled
	}
	val := d.selects[0]
	d.selects = d.selects[1:]
	return val, nil
}

func (d *scriptedDriver) Info(context.Context, string) error {
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DraftDB:  filepath.Join(t.TempDir(), "drafts.db"),
		Owner:    "amara",
		LogLevel: "error",
	}
}

func execute(t *testing.T, cfg config.Config, driver tui.PromptDriver, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd(rootOptions{
		loadConfig: func() (config.Config, error) { return cfg, nil },
		driver:     driver,
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const validProfile = `{
	"firstName": "Amara",
	"lastName": "Okafor",
	"email": "amara.okafor@example.com",
	"dateOfBirth": "1998-03-04",
	"university": "University of Moratuwa",
	"degreeProgram": "BSc Computer Science",
	"graduationYear": 2022,
	"gpa": 3.6,
	"technicalSkills": "Go, PostgreSQL, Kubernetes",
	"careerGoals": "Grow into backend consulting for health-tech teams.",
	"availability": "20 hours per week",
	"hourlyRate": 45
}`

func TestSteps_ListsReferenceFlow(t *testing.T) {
	out, err := execute(t, testConfig(t), nil, "steps")
	require.NoError(t, err)

	assert.Contains(t, out, "Freelancer profile (freelancer-onboarding)")
	assert.Contains(t, out, "1. Personal Information [25%]")
	assert.Contains(t, out, "fields: First Name *, Last Name *, Email *, Phone Number, Date Of Birth")
	assert.Contains(t, out, "4. Career Goals [100%]")
}

func TestValidate_ReportsFieldErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"firstName":"A","email":"amara@example.com","gpa":4.5}`), 0o600))

	out, err := execute(t, testConfig(t), nil, "validate", path)
	require.Error(t, err)

	assert.Contains(t, out, "  firstName: First name must be between 2 and 50 characters")
	assert.Contains(t, out, "  lastName: Last Name is required")
	assert.Contains(t, out, "  gpa: GPA must be between 0 and 4")
	assert.Contains(t, out, "  availability: Availability is required")
}

func TestValidate_AcceptsCompleteAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(validProfile), 0o600))

	out, err := execute(t, testConfig(t), nil, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Step 4 Career Goals: ok")
}

func TestValidate_RejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o600))

	_, err := execute(t, testConfig(t), nil, "validate", path)
	assert.ErrorContains(t, err, "decode answers")
}

func TestOnboard_SeedsFromAPIAndSubmits(t *testing.T) {
	var submitted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, validProfile)
		case http.MethodPut:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "formwizard.prom")
	driver := &scriptedDriver{selects: []int{0, 0, 0, 0}, confirms: []bool{true}}

	out, err := execute(t, cfg, driver, "onboard", "--api-url", srv.URL, "--token", "secret")
	require.NoError(t, err)

	assert.Contains(t, out, "Loaded your current profile.")
	assert.Contains(t, out, "Profile submitted.")
	assert.Equal(t, "Amara", submitted["firstName"])
	assert.Equal(t, "1998-03-04", submitted["dateOfBirth"])
	assert.EqualValues(t, 2022, submitted["graduationYear"])

	metrics, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `formwizard_completed_total{flow="freelancer-onboarding"} 1`)

	out, err = execute(t, cfg, nil, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No drafts for amara.")
}

func TestOnboard_CancelKeepsDraft(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, wizard.Snapshot{Cursor: 2, Values: wizard.FormState{
		"firstName": "Amara",
		"lastName":  "Okafor",
		"email":     "amara.okafor@example.com",
	}})

	// Step 2 is empty, Next blocks, then the script runs out and cancels.
	out, err := execute(t, cfg, &scriptedDriver{selects: []int{0}}, "onboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Resuming your saved draft at step 2.")
	assert.Contains(t, out, "Onboarding cancelled.")

	out, err = execute(t, cfg, nil, "drafts", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "step 2")
	assert.Contains(t, out, "  First Name: Amara")
}

func TestOnboard_FreshDiscardsDraft(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, wizard.Snapshot{Cursor: 3, Values: wizard.FormState{"firstName": "Amara"}})

	out, err := execute(t, cfg, &scriptedDriver{}, "onboard", "--fresh")
	require.NoError(t, err)
	assert.NotContains(t, out, "Resuming")
	assert.Contains(t, out, "Onboarding cancelled.")
}

func TestDrafts_ListAndDelete(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg, wizard.Snapshot{Cursor: 3, Values: wizard.FormState{"firstName": "Amara"}})

	out, err := execute(t, cfg, nil, "drafts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "FLOW")
	assert.Contains(t, out, "freelancer-onboarding  3")

	out, err = execute(t, cfg, nil, "drafts", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted draft for freelancer-onboarding.")

	_, err = execute(t, cfg, nil, "drafts", "delete")
	assert.ErrorIs(t, err, drafts.ErrNotFound)
}

func TestRoot_RejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, testConfig(t), nil, "steps", "--log-level", "loud")
	assert.ErrorContains(t, err, "unknown log level")

	_, err = execute(t, testConfig(t), nil, "steps", "--api-url", "ftp://example.com")
	assert.ErrorContains(t, err, "FORMWIZARD_API_URL")
}

func seed(t *testing.T, cfg config.Config, snapshot wizard.Snapshot) {
	t.Helper()

	store, err := drafts.OpenSQLite(cfg.DraftDB)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Save(context.Background(), drafts.Draft{
		Owner:    cfg.Owner,
		Flow:     "freelancer-onboarding",
		Snapshot: snapshot,
	})
	require.NoError(t, err)
}
