// Package drafts persists in-progress wizard snapshots so an onboarding
// session can be resumed later. One draft is kept per owner and flow; saving
// again replaces the snapshot and keeps the draft id.
package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var (
	// ErrNotFound is returned when no draft exists for the owner and flow.
	ErrNotFound = errors.New("drafts: draft not found")
	// ErrInvalidDraft is returned when owner or flow is missing.
	ErrInvalidDraft = errors.New("drafts: owner and flow are required")
)

// Draft is a stored wizard snapshot.
type Draft struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Flow      string          `json:"flow"`
	Snapshot  wizard.Snapshot `json:"snapshot"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store persists drafts.
type Store interface {
	// Save inserts or replaces the draft for draft.Owner and draft.Flow and
	// returns the stored value with its id and timestamp filled in.
	Save(ctx context.Context, draft Draft) (Draft, error)
	Load(ctx context.Context, owner, flow string) (Draft, error)
	Delete(ctx context.Context, owner, flow string) error
	// List returns the owner's drafts, most recently updated first.
	List(ctx context.Context, owner string) ([]Draft, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Capture builds a draft for owner and flow from the wizard's current state.
func Capture(owner, flow string, w *wizard.Wizard) Draft {
	return Draft{Owner: owner, Flow: flow, Snapshot: w.Snapshot()}
}

func normalizeKey(owner, flow string) (string, string, error) {
	owner = strings.TrimSpace(owner)
	flow = strings.TrimSpace(flow)
	if owner == "" || flow == "" {
		return "", "", ErrInvalidDraft
	}
	return owner, flow, nil
}

// encodeValues renders a FormState as JSON. Dates are stored as YYYY-MM-DD
// strings, which wizard values parse back into dates; zero dates are stored
// as null so they stay absent.
func encodeValues(values wizard.FormState) ([]byte, error) {
	out := make(map[string]any, len(values))
	for key, value := range values {
		switch typed := value.(type) {
		case time.Time:
			out[key] = encodeDate(typed)
		case *time.Time:
			if typed == nil {
				out[key] = nil
				continue
			}
			out[key] = encodeDate(*typed)
		default:
			out[key] = value
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("drafts: encode values: %w", err)
	}
	return data, nil
}

func encodeDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(wizard.DateLayout)
}

func decodeValues(data []byte) (wizard.FormState, error) {
	values := wizard.FormState{}
	if len(data) == 0 {
		return values, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&values); err != nil {
		return nil, fmt.Errorf("drafts: decode values: %w", err)
	}
	return values, nil
}
