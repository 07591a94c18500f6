// Package form holds the live state of a rendered form: fieldsets, inline
// rows and controls in document order, each autocomplete control with its
// widget. Changes go through Document.SetValue, which returns a typed
// ChangeEvent and delivers it synchronously to scoped subscribers; inline row
// insertion and removal are announced the same way. A Document is not safe
// for concurrent use: callers serialise access the way a page event loop does.
package form
