package wizard

import (
	"log/slog"
	"time"
)

// Option configures a Wizard.
type Option func(*Wizard)

// WithOnComplete registers the completion sink.
func WithOnComplete(fn CompletionFunc) Option {
	return func(w *Wizard) {
		w.onComplete = fn
	}
}

// WithOnClose registers the close notification sent to the host.
func WithOnClose(fn func()) Option {
	return func(w *Wizard) {
		w.onClose = fn
	}
}

// WithClock overrides the clock used by date-relative rules.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		if now != nil {
			w.now = now
		}
	}
}

// WithObserver attaches navigation hooks, e.g. a metrics collector.
func WithObserver(observer Observer) Option {
	return func(w *Wizard) {
		if observer != nil {
			w.observer = observer
		}
	}
}

// WithLogger sets the logger used for transition debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}
