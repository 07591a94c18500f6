// Package testsupport holds fixtures shared by the package tests.
package testsupport

import (
	"context"
	"testing"

	"github.com/goliatone/go-formsync/pkg/dependents"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/rules"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// BottleDefinition returns the canonical bottle form: a bottle select in the
// main fieldset and an inline bottlefield_set whose field_name options are
// tagged with the bottle they belong to.
func BottleDefinition() model.Form {
	return model.Form{
		ID:    "bottle",
		Title: "Bottle",
		Fieldsets: []model.Fieldset{
			{
				Name: "main",
				Fields: []model.Field{{
					Name:     "bottle",
					Label:    "Bottle",
					Kind:     model.FieldKindSelect,
					Required: true,
					Options:  []model.Option{{Value: "7", Label: "Mail"}, {Value: "9", Label: "Post"}},
					Default:  []string{"7"},
				}},
			},
			{
				Name:        "bottlefield_set",
				Label:       "Bottle field",
				Inline:      true,
				InitialRows: 2,
				MaxRows:     4,
				Fields: []model.Field{
					{
						Name:  "field_name",
						Label: "Field name",
						Kind:  model.FieldKindAutocomplete,
						Options: []model.Option{
							{Value: "1", Label: "subject", Attrs: map[string]string{"bottle": "7"}},
							{Value: "2", Label: "body", Attrs: map[string]string{"bottle": "7"}},
							{Value: "3", Label: "src_ip", Attrs: map[string]string{"bottle": "9"}},
						},
					},
					{Name: "note", Label: "Note", Kind: model.FieldKindText},
				},
			},
		},
	}
}

// MustDocument builds a live document or fails the test.
func MustDocument(t testing.TB, def model.Form, opts ...form.Option) *form.Document {
	t.Helper()
	doc, err := form.New(def, opts...)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

// MustAttachPreset mounts a bundled rule document on scope and unmounts it
// when the test ends.
func MustAttachPreset(t testing.TB, scope form.Scope, name string) *dependents.Mount {
	t.Helper()
	preset, err := rules.Preset(name)
	if err != nil {
		t.Fatalf("preset %s: %v", name, err)
	}
	m, err := dependents.Attach(scope, dependents.FromRules(preset)...)
	if err != nil {
		t.Fatalf("attach %s: %v", name, err)
	}
	t.Cleanup(m.Unmount)
	return m
}
