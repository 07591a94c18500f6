package form

import "errors"

var (
	// ErrUnknownFieldset is returned when a fieldset name does not exist.
	ErrUnknownFieldset = errors.New("form: unknown fieldset")
	// ErrNotInline is returned when rows are added to or removed from a
	// fieldset that does not repeat.
	ErrNotInline = errors.New("form: fieldset is not inline")
	// ErrRowLimit is returned when a fieldset already holds MaxRows rows.
	ErrRowLimit = errors.New("form: row limit reached")
	// ErrForeignControl is returned when a control or row belongs to another
	// document or was removed.
	ErrForeignControl = errors.New("form: control does not belong to this document")
	// ErrCascadeDepth stops a chain of handlers that keep changing values.
	ErrCascadeDepth = errors.New("form: change cascade too deep")
)
