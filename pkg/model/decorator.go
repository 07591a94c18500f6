package model

// Decorator enriches a form definition after it has been built, for example
// by filling missing labels or attaching option facets.
type Decorator interface {
	Decorate(*Form) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Form) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *Form) error {
	return fn(form)
}

// LabelDecorator fills empty fieldset and field labels using labeler, or
// DefaultLabeler when labeler is nil.
func LabelDecorator(labeler func(string) string) Decorator {
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return DecoratorFunc(func(form *Form) error {
		if form == nil {
			return nil
		}
		for i := range form.Fieldsets {
			fs := &form.Fieldsets[i]
			if fs.Label == "" {
				fs.Label = labeler(fs.Name)
			}
			for j := range fs.Fields {
				if fs.Fields[j].Label == "" {
					fs.Fields[j].Label = labeler(fs.Fields[j].Name)
				}
			}
		}
		return nil
	})
}
