package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDocument is returned for files without content.
var ErrEmptyDocument = errors.New("rules: document is empty")

// Document is one page's set of rules.
type Document struct {
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Masters      []MasterRule      `json:"masters,omitempty" yaml:"masters,omitempty"`
	Selected     []SelectedRule    `json:"selected,omitempty" yaml:"selected,omitempty"`
	Conditionals []ConditionalRule `json:"conditionals,omitempty" yaml:"conditionals,omitempty"`
}

// MasterRule copies Master's value into the widget data of each dependent.
type MasterRule struct {
	Master     string   `json:"master" yaml:"master"`
	Dependents []string `json:"dependents" yaml:"dependents"`
}

// SelectedRule publishes the values chosen for Field across inline rows.
type SelectedRule struct {
	Field string `json:"field" yaml:"field"`
}

// ConditionalRule selects one of two dependent options from a master's state.
type ConditionalRule struct {
	Fieldset  string          `json:"fieldset,omitempty" yaml:"fieldset,omitempty"`
	Master    string          `json:"master" yaml:"master"`
	When      WhenRule        `json:"when" yaml:"when"`
	Dependent string          `json:"dependent" yaml:"dependent"`
	Options   OptionKeysRule  `json:"options,omitempty" yaml:"options,omitempty"`
	Text      OptionTextsRule `json:"text,omitempty" yaml:"text,omitempty"`
}

// WhenRule is the master condition.
type WhenRule struct {
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
}

// OptionKeysRule names dependent option values explicitly.
type OptionKeysRule struct {
	Conditional string `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// OptionTextsRule names dependent options by label text.
type OptionTextsRule struct {
	Conditional string `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Empty reports whether the document defines no rules.
func (d Document) Empty() bool {
	return len(d.Masters) == 0 && len(d.Selected) == 0 && len(d.Conditionals) == 0
}

// Validate reports every incomplete rule.
func (d Document) Validate() error {
	var errs []error
	for i, m := range d.Masters {
		if strings.TrimSpace(m.Master) == "" {
			errs = append(errs, fmt.Errorf("rules: %s masters[%d] has no master", d.Name, i))
		}
		if len(m.Dependents) == 0 {
			errs = append(errs, fmt.Errorf("rules: %s masters[%d] has no dependents", d.Name, i))
		}
		for j, dep := range m.Dependents {
			if strings.TrimSpace(dep) == "" {
				errs = append(errs, fmt.Errorf("rules: %s masters[%d].dependents[%d] is empty", d.Name, i, j))
			}
		}
	}
	for i, s := range d.Selected {
		if strings.TrimSpace(s.Field) == "" {
			errs = append(errs, fmt.Errorf("rules: %s selected[%d] has no field", d.Name, i))
		}
	}
	for i, c := range d.Conditionals {
		if strings.TrimSpace(c.Master) == "" || strings.TrimSpace(c.Dependent) == "" {
			errs = append(errs, fmt.Errorf("rules: %s conditionals[%d] needs master and dependent", d.Name, i))
		}
		if len(c.When.Values) == 0 && strings.TrimSpace(c.When.Text) == "" {
			errs = append(errs, fmt.Errorf("rules: %s conditionals[%d] has no condition", d.Name, i))
		}
		if c.Options == (OptionKeysRule{}) && c.Text == (OptionTextsRule{}) {
			errs = append(errs, fmt.Errorf("rules: %s conditionals[%d] names no dependent options", d.Name, i))
		}
	}
	return errors.Join(errs...)
}

// Merge concatenates the rules of several documents under name.
func Merge(name string, docs ...Document) Document {
	out := Document{Name: name}
	for _, d := range docs {
		out.Masters = append(out.Masters, d.Masters...)
		out.Selected = append(out.Selected, d.Selected...)
		out.Conditionals = append(out.Conditionals, d.Conditionals...)
	}
	return out
}
