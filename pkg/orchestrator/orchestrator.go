package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-formwizard/pkg/drafts"
	"github.com/goliatone/go-formwizard/pkg/flow"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// ProfileAPI is the subset of profile.Client the orchestrator needs.
type ProfileAPI interface {
	CurrentProfile(ctx context.Context) (wizard.FormState, error)
	SaveProfile(ctx context.Context, values wizard.FormState) error
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFlow replaces the embedded onboarding flow.
func WithFlow(f flow.Flow) Option {
	return func(o *Orchestrator) {
		o.flow = &f
	}
}

// WithProfileAPI seeds new sessions from, and submits answers to, api.
// Without it sessions start empty and completion only clears the draft.
func WithProfileAPI(api ProfileAPI) Option {
	return func(o *Orchestrator) {
		o.profile = api
	}
}

// WithDraftStore enables resumable sessions for owner.
func WithDraftStore(store drafts.Store, owner string) Option {
	return func(o *Orchestrator) {
		o.drafts = store
		o.owner = owner
	}
}

// WithSeedTransformer registers a transformer applied to the profile seed.
func WithSeedTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithObserver forwards wizard transitions to observer.
func WithObserver(observer wizard.Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithOnComplete registers a callback run after the answers were accepted.
func WithOnComplete(fn func(ctx context.Context, values wizard.FormState)) Option {
	return func(o *Orchestrator) {
		o.onComplete = fn
	}
}

// WithClock overrides the wizard clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the logger shared with the wizard.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator wires a flow to its collaborators: the profile API that seeds
// and receives the answers, the draft store that makes sessions resumable
// and the observer that records transitions.
type Orchestrator struct {
	flow        *flow.Flow
	profile     ProfileAPI
	drafts      drafts.Store
	owner       string
	observer    wizard.Observer
	transformer Transformer
	onComplete  func(ctx context.Context, values wizard.FormState)
	now         func() time.Time
	logger      *slog.Logger
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Source reports where a session's initial answers came from.
type Source string

const (
	SourceEmpty   Source = "empty"
	SourceProfile Source = "profile"
	SourceDraft   Source = "draft"
)

// Session is an open wizard plus the collaborators that persist it.
type Session struct {
	Wizard *wizard.Wizard
	Flow   flow.Flow
	Source Source

	owner  string
	drafts drafts.Store
	logger *slog.Logger
}

// Start opens a wizard. A stored draft wins over the current profile; the
// profile wins over an empty form. ctx also bounds the submission made when
// the wizard completes.
func (o *Orchestrator) Start(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := o.resolveFlow()
	if err != nil {
		return nil, err
	}

	session := &Session{
		Flow:   f,
		owner:  o.owner,
		drafts: o.drafts,
		logger: o.logger,
	}

	opts := []wizard.Option{
		wizard.WithLogger(o.logger),
		wizard.WithOnComplete(o.completion(ctx, session)),
	}
	if o.now != nil {
		opts = append(opts, wizard.WithClock(o.now))
	}
	if o.observer != nil {
		opts = append(opts, wizard.WithObserver(o.observer))
	}

	w, err := f.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build wizard: %w", err)
	}
	session.Wizard = w

	if draft, ok, err := o.loadDraft(ctx, f.ID); err != nil {
		return nil, err
	} else if ok {
		w.Resume(draft.Snapshot)
		session.Source = SourceDraft
		o.logger.Info("resumed draft", slog.String("flow", f.ID), slog.Int("step", w.Cursor()))
		return session, nil
	}

	seed, err := o.seed(ctx, f)
	if err != nil {
		return nil, err
	}
	w.Open(seed)
	session.Source = SourceEmpty
	if len(seed) > 0 {
		session.Source = SourceProfile
	}
	return session, nil
}

func (o *Orchestrator) resolveFlow() (flow.Flow, error) {
	if o.flow != nil {
		return *o.flow, nil
	}
	f, err := flow.Default()
	if err != nil {
		return flow.Flow{}, fmt.Errorf("orchestrator: default flow: %w", err)
	}
	return f, nil
}

func (o *Orchestrator) loadDraft(ctx context.Context, flowID string) (drafts.Draft, bool, error) {
	if o.drafts == nil {
		return drafts.Draft{}, false, nil
	}
	draft, err := o.drafts.Load(ctx, o.owner, flowID)
	if errors.Is(err, drafts.ErrNotFound) {
		return drafts.Draft{}, false, nil
	}
	if err != nil {
		return drafts.Draft{}, false, fmt.Errorf("orchestrator: load draft: %w", err)
	}
	return draft, true, nil
}

func (o *Orchestrator) seed(ctx context.Context, f flow.Flow) (wizard.FormState, error) {
	if o.profile == nil {
		return wizard.FormState{}, nil
	}
	current, err := o.profile.CurrentProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: fetch profile: %w", err)
	}
	seed := SeedValues(f.FieldKeys(), current)
	if o.transformer != nil {
		seed, err = o.transformer.Transform(ctx, seed)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: transform seed: %w", err)
		}
	}
	return seed, nil
}

// completion submits the answers to the profile API and clears the draft
// once they were accepted.
func (o *Orchestrator) completion(ctx context.Context, session *Session) wizard.CompletionFunc {
	return func(values wizard.FormState) error {
		if o.profile != nil {
			if err := o.profile.SaveProfile(ctx, values); err != nil {
				return err
			}
		}
		if err := session.deleteDraft(ctx); err != nil {
			o.logger.Warn("draft not cleared", slog.String("error", err.Error()))
		}
		if o.onComplete != nil {
			o.onComplete(ctx, values)
		}
		return nil
	}
}

// SaveDraft stores the current snapshot. It is a no-op without a draft
// store.
func (s *Session) SaveDraft(ctx context.Context) error {
	if s.drafts == nil {
		return nil
	}
	draft, err := s.drafts.Save(ctx, drafts.Capture(s.owner, s.Flow.ID, s.Wizard))
	if err != nil {
		return fmt.Errorf("orchestrator: save draft: %w", err)
	}
	s.logger.Debug("draft saved", slog.String("id", draft.ID), slog.Int("step", draft.Snapshot.Cursor))
	return nil
}

// Discard closes the wizard and forgets its draft.
func (s *Session) Discard(ctx context.Context) error {
	s.Wizard.Close()
	return s.deleteDraft(ctx)
}

func (s *Session) deleteDraft(ctx context.Context) error {
	if s.drafts == nil {
		return nil
	}
	err := s.drafts.Delete(ctx, s.owner, s.Flow.ID)
	if err != nil && !errors.Is(err, drafts.ErrNotFound) {
		return fmt.Errorf("orchestrator: delete draft: %w", err)
	}
	return nil
}
