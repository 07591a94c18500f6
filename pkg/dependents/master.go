package dependents

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
)

// MasterValue copies the value of Master into the widget data of every
// control whose name ends with Dependent, under the key Master.
//
// Master matches the bare name and any inline-prefixed variant. Each master
// control propagates its own value when it changes; there is no coordination
// between rows, so the last change wins. A master that allows multiple values
// publishes all of them as a JSON list.
type MasterValue struct {
	Master    string
	Dependent string
}

// Validate checks that both field names are set.
func (b MasterValue) Validate() error {
	if strings.TrimSpace(b.Master) == "" || strings.TrimSpace(b.Dependent) == "" {
		return fmt.Errorf("%w: master value needs master and dependent", ErrInvalidRule)
	}
	return nil
}

func (b MasterValue) String() string {
	return fmt.Sprintf("master %s -> %s", b.Master, b.Dependent)
}

// Bind implements Binding.
func (b MasterValue) Bind(scope form.Scope) (func(), error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	master := form.Named(b.Master)
	dependent := form.EndsWith(b.Dependent)

	changes := scope.OnChange(master, func(ev form.ChangeEvent) {
		b.propagate(scope, masterValue(ev.Control, ev.Values))
	})
	inserts := scope.OnInsert(func(ev form.RowEvent) {
		if len(ev.Row.Find(dependent)) > 0 {
			b.Sync(scope)
		}
	})

	b.Sync(scope)
	return releaseAll(changes, inserts), nil
}

// Sync propagates from every master control in document order.
func (b MasterValue) Sync(scope form.Scope) {
	for _, c := range scope.Controls(form.Named(b.Master)) {
		b.propagate(scope, masterValue(c, c.Values()))
	}
}

func (b MasterValue) propagate(scope form.Scope, value string) {
	written := 0
	for _, c := range scope.Controls(form.EndsWith(b.Dependent)) {
		w := c.Widget()
		if w == nil {
			continue
		}
		w.Set(b.Master, value)
		written++
	}
	if written == 0 {
		log.Debug(log.CatSync, "no dependent widget rendered", "master", b.Master, "dependent", b.Dependent)
	}
}

func masterValue(c *form.Control, values []string) string {
	switch {
	case len(values) == 0:
		return ""
	case c.Field().Multiple:
		return autocomplete.EncodeList(values)
	default:
		return values[0]
	}
}
