package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoDocument is returned when Fill is called without a document.
	ErrNoDocument = errors.New("tui: document is nil")
)
