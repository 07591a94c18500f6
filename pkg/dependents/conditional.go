package dependents

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/text"
)

// When decides whether a master control is in the conditional state. Values
// are compared with the master's selected values; Text is searched in the
// master's display text when no value matched.
type When struct {
	Values []string
	Text   string
}

func (w When) empty() bool {
	return len(w.Values) == 0 && strings.TrimSpace(w.Text) == ""
}

// OptionKeys is the explicit lookup table of dependent option values.
type OptionKeys struct {
	Conditional string
	Default     string
}

func (k OptionKeys) empty() bool {
	return k.Conditional == "" && k.Default == ""
}

// ConditionalValue sets Dependent to the Conditional option while the master
// matches When and to the Default option otherwise. The dependent is looked
// up in the master's row, then in the master's fieldset.
//
// Options holds explicit option values. When it is empty, ConditionalText and
// DefaultText select the first option whose label contains them. If nothing
// matches, the dependent is cleared.
type ConditionalValue struct {
	Fieldset        string
	Master          string
	When            When
	Dependent       string
	Options         OptionKeys
	ConditionalText string
	DefaultText     string
}

// Validate checks the rule is complete.
func (b ConditionalValue) Validate() error {
	switch {
	case strings.TrimSpace(b.Master) == "" || strings.TrimSpace(b.Dependent) == "":
		return fmt.Errorf("%w: conditional value needs master and dependent", ErrInvalidRule)
	case b.When.empty():
		return fmt.Errorf("%w: conditional value %s has no condition", ErrInvalidRule, b.Master)
	case b.Options.empty() && b.ConditionalText == "" && b.DefaultText == "":
		return fmt.Errorf("%w: conditional value %s has no target options", ErrInvalidRule, b.Dependent)
	}
	return nil
}

func (b ConditionalValue) String() string {
	return fmt.Sprintf("conditional %s -> %s", b.Master, b.Dependent)
}

// Bind implements Binding. A non-empty Fieldset narrows the scope to that
// fieldset of the scope's document.
func (b ConditionalValue) Bind(scope form.Scope) (func(), error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	target := scope
	if b.Fieldset != "" {
		fs, err := scope.Document().Fieldset(b.Fieldset)
		if err != nil {
			return nil, err
		}
		target = fs
	}
	master := form.Named(b.Master)

	changes := target.OnChange(master, func(ev form.ChangeEvent) {
		b.Apply(ev.Control)
	})
	inserts := target.OnInsert(func(ev form.RowEvent) {
		for _, c := range ev.Row.Find(master) {
			b.Apply(c)
		}
	})

	for _, c := range target.Controls(master) {
		b.Apply(c)
	}
	return releaseAll(changes, inserts), nil
}

// Apply evaluates the rule for one master control and sets its dependent.
func (b ConditionalValue) Apply(master *form.Control) {
	dependent, ok := b.dependentFor(master)
	if !ok {
		log.Debug(log.CatSync, "no dependent control", "master", master.Name(), "dependent", b.Dependent)
		return
	}

	conditional := b.Matches(master)
	value := b.optionFor(dependent, conditional)
	if value == "" {
		log.Debug(log.CatSync, "no dependent option matched", "dependent", dependent.Name(), "conditional", conditional)
	}

	if _, err := master.Fieldset().Document().SetValue(dependent, value); err != nil {
		log.ErrorErr(log.CatSync, "set dependent", err, "dependent", dependent.Name())
	}
}

// Matches reports whether master is in the conditional state.
func (b ConditionalValue) Matches(master *form.Control) bool {
	for _, v := range master.Values() {
		if slices.Contains(b.When.Values, v) {
			return true
		}
	}
	return b.When.Text != "" && text.Contains(master.DisplayText(), b.When.Text)
}

func (b ConditionalValue) dependentFor(master *form.Control) (*form.Control, bool) {
	loc := form.Named(b.Dependent)
	if found := master.Row().Find(loc); len(found) > 0 {
		return found[0], true
	}
	if found := master.Fieldset().Controls(loc); len(found) > 0 {
		return found[0], true
	}
	return nil, false
}

func (b ConditionalValue) optionFor(dependent *form.Control, conditional bool) string {
	if !b.Options.empty() {
		key := b.Options.Default
		if conditional {
			key = b.Options.Conditional
		}
		return resolveKey(dependent, key)
	}

	needle := b.DefaultText
	if conditional {
		needle = b.ConditionalText
	}
	return firstLabelMatch(dependent.Options(), needle)
}

// resolveKey accepts key when it is one of the dependent's static options, or
// when the dependent has no static options to check against.
func resolveKey(dependent *form.Control, key string) string {
	if key == "" {
		return ""
	}
	opts := dependent.Options()
	if len(opts) == 0 {
		return key
	}
	for _, opt := range opts {
		if opt.Value == key {
			return key
		}
	}
	return ""
}

func firstLabelMatch(opts []model.Option, needle string) string {
	if needle == "" {
		return ""
	}
	for _, opt := range opts {
		if text.Contains(opt.Label, needle) {
			return opt.Value
		}
	}
	return ""
}
