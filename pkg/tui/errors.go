package tui

import "errors"

var (
	// ErrCancelled is returned when the user cancels the wizard or interrupts
	// a prompt (Ctrl+C). The wizard has been closed by then.
	ErrCancelled = errors.New("tui: cancelled")
	// ErrNotOpen is returned by Run when the wizard has not been opened.
	ErrNotOpen = errors.New("tui: wizard is not open")
)
