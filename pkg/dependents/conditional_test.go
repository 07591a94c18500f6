package dependents

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
)

func actionsForm(rows int) model.Form {
	return model.Form{
		ID: "trigger",
		Fieldsets: []model.Fieldset{{
			Name:        "actions_set",
			Inline:      true,
			InitialRows: rows,
			Fields: []model.Field{
				{
					Name: "target",
					Kind: model.FieldKindSelect,
					Options: []model.Option{
						{Value: "1", Label: "<b>Generic Object</b>"},
						{Value: "2", Label: "Alert queue"},
					},
				},
				{
					Name: "content_type",
					Kind: model.FieldKindSelect,
					Options: []model.Option{
						{Value: "10", Label: "alert"},
						{Value: "11", Label: "generic object"},
						{Value: "12", Label: "taste"},
					},
				},
			},
		}},
	}
}

func textRule() ConditionalValue {
	return ConditionalValue{
		Fieldset:        "actions_set",
		Master:          "target",
		When:            When{Text: "Generic Object"},
		Dependent:       "content_type",
		ConditionalText: "generic",
		DefaultText:     "alert",
	}
}

func TestConditionalValue_TextFallback(t *testing.T) {
	doc := mustDocument(t, actionsForm(2))

	var events []form.ChangeEvent
	sub := doc.OnChange(form.Named("content_type"), func(ev form.ChangeEvent) {
		events = append(events, ev)
	})
	defer sub.Release()

	m, err := Attach(doc, textRule())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer m.Unmount()

	for _, name := range []string{"actions_set-0-content_type", "actions_set-1-content_type"} {
		if got := mustControl(t, doc, name).Value(); got != "10" {
			t.Fatalf("%s initial = %q, want default option 10", name, got)
		}
	}
	events = nil

	mustSet(t, doc, "actions_set-0-target", "1")
	if got := mustControl(t, doc, "actions_set-0-content_type").Value(); got != "11" {
		t.Fatalf("row 0 content_type = %q, want 11", got)
	}
	if got := mustControl(t, doc, "actions_set-1-content_type").Value(); got != "10" {
		t.Fatalf("row 1 content_type changed to %q", got)
	}

	if len(events) != 1 {
		t.Fatalf("expected one change event on the dependent, got %d", len(events))
	}
	if events[0].Control.Name() != "actions_set-0-content_type" {
		t.Fatalf("event control = %s", events[0].Control.Name())
	}
	if diff := cmp.Diff([]string{"10"}, events[0].Previous); diff != "" {
		t.Fatalf("previous mismatch (-want +got):\n%s", diff)
	}
	if events[0].Value() != "11" {
		t.Fatalf("event value = %q", events[0].Value())
	}

	mustSet(t, doc, "actions_set-0-target", "2")
	if got := mustControl(t, doc, "actions_set-0-content_type").Value(); got != "10" {
		t.Fatalf("row 0 content_type = %q after reset, want 10", got)
	}
}

func TestConditionalValue_ExplicitKeys(t *testing.T) {
	cases := []struct {
		name   string
		keys   OptionKeys
		master string
		want   string
	}{
		{name: "conditional key", keys: OptionKeys{Conditional: "12", Default: "10"}, master: "2", want: "12"},
		{name: "default key", keys: OptionKeys{Conditional: "12", Default: "10"}, master: "1", want: "10"},
		{name: "unknown key clears", keys: OptionKeys{Conditional: "99", Default: "10"}, master: "2", want: ""},
		{name: "missing default clears", keys: OptionKeys{Conditional: "12"}, master: "1", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDocument(t, actionsForm(1))
			rule := ConditionalValue{
				Master:    "target",
				When:      When{Values: []string{"2"}},
				Dependent: "content_type",
				Options:   tc.keys,
				// Explicit keys win over label text.
				ConditionalText: "generic",
				DefaultText:     "generic",
			}
			m, err := Attach(doc, rule)
			if err != nil {
				t.Fatalf("attach: %v", err)
			}
			defer m.Unmount()

			mustSet(t, doc, "actions_set-0-target", tc.master)
			if got := mustControl(t, doc, "actions_set-0-content_type").Value(); got != tc.want {
				t.Fatalf("content_type = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConditionalValue_InsertedRow(t *testing.T) {
	doc := mustDocument(t, actionsForm(0))
	m, err := Attach(doc, textRule())
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer m.Unmount()

	row, err := doc.AddRow("actions_set")
	if err != nil {
		t.Fatalf("add row: %v", err)
	}
	dep, _ := row.Control("content_type")
	if dep.Value() != "10" {
		t.Fatalf("inserted row content_type = %q, want 10", dep.Value())
	}
}

func TestConditionalValue_FreeTextDependent(t *testing.T) {
	def := model.Form{
		ID: "trigger",
		Fieldsets: []model.Fieldset{{
			Name: "main",
			Fields: []model.Field{
				{Name: "target", Kind: model.FieldKindSelect, Options: []model.Option{{Value: "1", Label: "Generic Object"}}},
				{Name: "content_type", Kind: model.FieldKindText},
			},
		}},
	}
	doc := mustDocument(t, def)
	m, err := Attach(doc, ConditionalValue{
		Master:    "target",
		When:      When{Text: "Generic Object"},
		Dependent: "content_type",
		Options:   OptionKeys{Conditional: "generic", Default: "alert"},
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer m.Unmount()

	if got := mustControl(t, doc, "content_type").Value(); got != "alert" {
		t.Fatalf("content_type = %q, want alert", got)
	}
	mustSet(t, doc, "target", "1")
	if got := mustControl(t, doc, "content_type").Value(); got != "generic" {
		t.Fatalf("content_type = %q, want generic", got)
	}
}

func TestConditionalValue_Validate(t *testing.T) {
	cases := map[string]ConditionalValue{
		"no master":    {Dependent: "b", When: When{Text: "x"}, Options: OptionKeys{Default: "y"}},
		"no condition": {Master: "a", Dependent: "b", Options: OptionKeys{Default: "y"}},
		"no targets":   {Master: "a", Dependent: "b", When: When{Values: []string{"1"}}},
	}
	for name, rule := range cases {
		if err := rule.Validate(); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("%s: expected ErrInvalidRule, got %v", name, err)
		}
	}

	doc := mustDocument(t, actionsForm(1))
	rule := textRule()
	rule.Fieldset = "missing_set"
	if _, err := Attach(doc, rule); !errors.Is(err, form.ErrUnknownFieldset) {
		t.Fatalf("expected ErrUnknownFieldset, got %v", err)
	}
}
