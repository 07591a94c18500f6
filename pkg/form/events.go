package form

import "github.com/goliatone/go-formsync/internal/log"

// ChangeEvent describes a value change on one control.
type ChangeEvent struct {
	Control  *Control
	Values   []string
	Previous []string
}

// Value returns the first new value, or "" when the control was cleared.
func (e ChangeEvent) Value() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}

// RowEvent describes an inline row that was inserted or removed.
type RowEvent struct {
	Fieldset *Fieldset
	Row      *Row
}

// Controls returns the controls of the affected row.
func (e RowEvent) Controls() []*Control {
	if e.Row == nil {
		return nil
	}
	return e.Row.Controls()
}

// ChangeHandler consumes change events.
type ChangeHandler func(ChangeEvent)

// RowHandler consumes row events.
type RowHandler func(RowEvent)

type subscriptionKind int

const (
	subChange subscriptionKind = iota
	subInsert
	subRemove
)

// Subscription is a registered handler. It stays active until Release.
type Subscription struct {
	doc      *Document
	kind     subscriptionKind
	scope    *Fieldset
	locator  Locator
	onChange ChangeHandler
	onRow    RowHandler
	released bool
}

// Release detaches the handler. A released subscription never fires again,
// including for an event currently being dispatched. Release is idempotent.
func (s *Subscription) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if s.doc == nil {
		return
	}
	subs := s.doc.subs[:0]
	for _, other := range s.doc.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	s.doc.subs = subs
}

// Active reports whether the subscription is still attached.
func (s *Subscription) Active() bool {
	return s != nil && !s.released
}

func (s *Subscription) inScope(fs *Fieldset) bool {
	return s.scope == nil || s.scope == fs
}

func (d *Document) subscribe(sub *Subscription) *Subscription {
	sub.doc = d
	d.subs = append(d.subs, sub)
	return sub
}

// enter guards against unbounded cascades of nested dispatches.
func (d *Document) enter() error {
	if d.depth >= d.maxDepth {
		return ErrCascadeDepth
	}
	d.depth++
	return nil
}

func (d *Document) leave() {
	d.depth--
}

func (d *Document) dispatchChange(ev ChangeEvent) {
	snapshot := append([]*Subscription(nil), d.subs...)
	for _, sub := range snapshot {
		if sub.released || sub.kind != subChange {
			continue
		}
		if !sub.inScope(ev.Control.row.fieldset) || !matches(sub.locator, ev.Control.name) {
			continue
		}
		sub.onChange(ev)
	}
}

func (d *Document) dispatchRow(kind subscriptionKind, ev RowEvent) {
	snapshot := append([]*Subscription(nil), d.subs...)
	delivered := 0
	for _, sub := range snapshot {
		if sub.released || sub.kind != kind || !sub.inScope(ev.Fieldset) {
			continue
		}
		sub.onRow(ev)
		delivered++
	}
	log.Debug(log.CatForm, "row event", "fieldset", ev.Fieldset.Name(), "row", ev.Row.Index(), "handlers", delivered)
}
