package dependents

import "github.com/goliatone/go-formsync/pkg/rules"

// FromRules expands a rule document into bindings: one MasterValue per
// master/dependent pair, then the selected-value lists, then the conditional
// setters.
func FromRules(doc rules.Document) []Binding {
	var out []Binding
	for _, m := range doc.Masters {
		for _, dep := range m.Dependents {
			out = append(out, MasterValue{Master: m.Master, Dependent: dep})
		}
	}
	for _, s := range doc.Selected {
		out = append(out, SelectedValues{Field: s.Field})
	}
	for _, c := range doc.Conditionals {
		out = append(out, ConditionalValue{
			Fieldset:  c.Fieldset,
			Master:    c.Master,
			When:      When{Values: append([]string(nil), c.When.Values...), Text: c.When.Text},
			Dependent: c.Dependent,
			Options: OptionKeys{
				Conditional: c.Options.Conditional,
				Default:     c.Options.Default,
			},
			ConditionalText: c.Text.Conditional,
			DefaultText:     c.Text.Default,
		})
	}
	return out
}
