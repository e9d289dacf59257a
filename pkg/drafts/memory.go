package drafts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type draftKey struct {
	owner string
	flow  string
}

type memoryRecord struct {
	draft  Draft
	values []byte
}

// MemoryStore keeps drafts in process memory. Values go through the same
// JSON encoding as the SQLite store. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[draftKey]memoryRecord
	now    func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	return &MemoryStore{
		drafts: make(map[draftKey]memoryRecord),
		now:    o.now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, draft Draft) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	owner, flow, err := normalizeKey(draft.Owner, draft.Flow)
	if err != nil {
		return Draft{}, err
	}
	values, err := encodeValues(draft.Snapshot.Values)
	if err != nil {
		return Draft{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey{owner: owner, flow: flow}
	stored := Draft{
		ID:        draft.ID,
		Owner:     owner,
		Flow:      flow,
		Snapshot:  wizard.Snapshot{Cursor: draft.Snapshot.Cursor},
		UpdatedAt: s.now().UTC(),
	}
	if existing, ok := s.drafts[key]; ok {
		stored.ID = existing.draft.ID
	}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.drafts[key] = memoryRecord{draft: stored, values: values}
	return s.materialize(s.drafts[key])
}

func (s *MemoryStore) Load(ctx context.Context, owner, flow string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	owner, flow, err := normalizeKey(owner, flow)
	if err != nil {
		return Draft{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.drafts[draftKey{owner: owner, flow: flow}]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return s.materialize(record)
}

func (s *MemoryStore) Delete(ctx context.Context, owner, flow string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	owner, flow, err := normalizeKey(owner, flow)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey{owner: owner, flow: flow}
	if _, ok := s.drafts[key]; !ok {
		return ErrNotFound
	}
	delete(s.drafts, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owner = strings.TrimSpace(owner)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Draft
	for key, record := range s.drafts {
		if key.owner != owner {
			continue
		}
		draft, err := s.materialize(record)
		if err != nil {
			return nil, err
		}
		out = append(out, draft)
	}
	sortDrafts(out)
	return out, nil
}

func (s *MemoryStore) materialize(record memoryRecord) (Draft, error) {
	values, err := decodeValues(record.values)
	if err != nil {
		return Draft{}, err
	}
	draft := record.draft
	draft.Snapshot.Values = values
	return draft, nil
}

func sortDrafts(drafts []Draft) {
	sort.Slice(drafts, func(i, j int) bool {
		if !drafts[i].UpdatedAt.Equal(drafts[j].UpdatedAt) {
			return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
		}
		return drafts[i].Flow < drafts[j].Flow
	})
}
