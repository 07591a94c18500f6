package dependents

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
)

// SelectedValues publishes the values chosen across every control whose name
// ends with Field. The list is recomputed from scratch on each change, kept
// in document order, skips empty controls and is written to each matching
// widget under autocomplete.ListKey(Field).
type SelectedValues struct {
	Field string
}

// Validate checks the field name.
func (b SelectedValues) Validate() error {
	if strings.TrimSpace(b.Field) == "" {
		return fmt.Errorf("%w: selected values needs a field", ErrInvalidRule)
	}
	return nil
}

func (b SelectedValues) String() string {
	return "selected " + b.Field
}

// Bind implements Binding.
func (b SelectedValues) Bind(scope form.Scope) (func(), error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	loc := form.EndsWith(b.Field)
	rowTouches := func(ev form.RowEvent) {
		if len(ev.Row.Find(loc)) > 0 {
			b.Sync(scope)
		}
	}

	changes := scope.OnChange(loc, func(form.ChangeEvent) {
		b.Sync(scope)
	})
	inserts := scope.OnInsert(rowTouches)
	removes := scope.OnRemove(rowTouches)

	b.Sync(scope)
	return releaseAll(changes, inserts, removes), nil
}

// Sync recomputes the list and writes it to every matching widget.
func (b SelectedValues) Sync(scope form.Scope) {
	controls := scope.Controls(form.EndsWith(b.Field))
	encoded := autocomplete.EncodeList(Selected(controls))
	key := autocomplete.ListKey(b.Field)
	for _, c := range controls {
		if w := c.Widget(); w != nil {
			w.Set(key, encoded)
		}
	}
	log.Debug(log.CatSync, "selected values published", "field", b.Field, "list", encoded, "controls", len(controls))
}

// Selected returns the first value of each control that has one, in the
// order given.
func Selected(controls []*form.Control) []string {
	out := make([]string, 0, len(controls))
	for _, c := range controls {
		if v := c.Value(); v != "" {
			out = append(out, v)
		}
	}
	return out
}
