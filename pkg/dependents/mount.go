package dependents

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/form"
)

// ErrInvalidRule is wrapped by binding validation errors.
var ErrInvalidRule = errors.New("dependents: invalid rule")

// Binding attaches one behaviour to a scope. Validate reports an incomplete
// rule without touching any document. Bind subscribes, performs the initial
// sync and returns a func that releases its subscriptions.
type Binding interface {
	Validate() error
	Bind(scope form.Scope) (release func(), err error)
}

// Mount owns the subscriptions created by Attach.
type Mount struct {
	id       string
	scope    form.Scope
	releases []func()
	bindings []Binding
}

// Attach validates every binding, then binds them to scope in order. An
// invalid binding fails the whole mount before anything is bound; when Bind
// fails, the ones already bound are released.
func Attach(scope form.Scope, bindings ...Binding) (*Mount, error) {
	if scope == nil {
		return nil, errors.New("dependents: scope is nil")
	}
	for _, b := range bindings {
		if b == nil {
			continue
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("dependents: validate %v: %w", b, err)
		}
	}
	m := &Mount{id: uuid.NewString(), scope: scope}
	for _, b := range bindings {
		if b == nil {
			continue
		}
		release, err := b.Bind(scope)
		if err != nil {
			m.Unmount()
			return nil, fmt.Errorf("dependents: bind %v: %w", b, err)
		}
		m.releases = append(m.releases, release)
		m.bindings = append(m.bindings, b)
	}
	log.Debug(log.CatSync, "mounted", "mount", m.id, "bindings", len(m.bindings))
	return m, nil
}

// ID identifies the mount in logs.
func (m *Mount) ID() string {
	if m == nil {
		return ""
	}
	return m.id
}

// Bindings returns the bound behaviours in order.
func (m *Mount) Bindings() []Binding {
	if m == nil {
		return nil
	}
	return append([]Binding(nil), m.bindings...)
}

// Unmount releases every subscription. It is safe to call more than once.
func (m *Mount) Unmount() {
	if m == nil {
		return
	}
	for i := len(m.releases) - 1; i >= 0; i-- {
		m.releases[i]()
	}
	if len(m.releases) > 0 {
		log.Debug(log.CatSync, "unmounted", "mount", m.id)
	}
	m.releases = nil
	m.bindings = nil
}

func releaseAll(subs ...*form.Subscription) func() {
	return func() {
		for _, sub := range subs {
			sub.Release()
		}
	}
}
