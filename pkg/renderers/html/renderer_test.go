package html

import (
	"context"
	"encoding/json"
	stdhtml "html"
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/dependents"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/rules"
)

var widgetAttrs = regexp.MustCompile(`name="([^"]+)" data-kind="autocomplete" data-widget-id="([^"]+)" data-autocomplete="([^"]*)"`)

func bottleDocument(t *testing.T) *form.Document {
	t.Helper()
	def := model.Form{
		ID:    "bottle",
		Title: "Bottle <fields>",
		Fieldsets: []model.Fieldset{
			{
				Name:  "main",
				Label: "Bottle",
				Fields: []model.Field{{
					Name:    "bottle",
					Label:   "Bottle",
					Kind:    model.FieldKindSelect,
					Options: []model.Option{{Value: "7", Label: "Mail"}, {Value: "9", Label: "Post"}},
					Default: []string{"7"},
				}},
			},
			{
				Name:        "bottlefield_set",
				Label:       "Bottle field",
				Inline:      true,
				InitialRows: 2,
				MaxRows:     3,
				Fields: []model.Field{
					{
						Name:  "field_name",
						Label: "<b>Field</b> name",
						Kind:  model.FieldKindAutocomplete,
						Options: []model.Option{
							{Value: "A", Label: "subject", Attrs: map[string]string{"bottle": "7"}},
							{Value: "B", Label: "body", Attrs: map[string]string{"bottle": "7"}},
							{Value: "C", Label: "src_ip", Attrs: map[string]string{"bottle": "9"}},
							{Value: "D", Label: "sender", Attrs: map[string]string{"bottle": "7"}},
						},
					},
					{Name: "note", Label: "Note", Kind: model.FieldKindText},
				},
			},
		},
	}
	doc, err := form.New(def)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	preset, err := rules.Preset("bottlefield")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	m, err := dependents.Attach(doc, dependents.FromRules(preset)...)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(m.Unmount)

	for name, value := range map[string]string{
		"bottlefield_set-0-field_name": "A",
		"bottlefield_set-1-field_name": "B",
	} {
		c, _ := doc.Control(name)
		if _, err := doc.SetValue(c, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	return doc
}

func TestRender_WidgetStateInMarkup(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	doc := bottleDocument(t)
	out, err := r.Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	matches := widgetAttrs.FindAllStringSubmatch(html, -1)
	if len(matches) != 2 {
		t.Fatalf("expected 2 autocomplete widgets, got %d in:\n%s", len(matches), html)
	}
	for _, m := range matches {
		c, _ := doc.Control(m[1])
		if m[2] != c.Widget().ID() {
			t.Fatalf("%s widget id = %s, want %s", m[1], m[2], c.Widget().ID())
		}
		var data map[string]string
		if err := json.Unmarshal([]byte(stdhtml.UnescapeString(m[3])), &data); err != nil {
			t.Fatalf("%s data: %v", m[1], err)
		}
		want := map[string]string{"bottle": "7", "field_name_list": `["A","B"]`}
		if diff := cmp.Diff(want, data); diff != "" {
			t.Fatalf("%s data mismatch (-want +got):\n%s", m[1], diff)
		}
	}

	for _, fragment := range []string{
		`<h1>Bottle &lt;fields&gt;</h1>`,
		`<label for="bottlefield_set-0-field_name">Field name</label>`,
		`<option value="A" selected>subject</option>`,
		`<option value="D">sender</option>`,
		`<option value="7" selected>Mail</option>`,
		`<input type="text" id="bottlefield_set-1-note" name="bottlefield_set-1-note" value="">`,
		`data-add-row="bottlefield_set"`,
	} {
		if !strings.Contains(html, fragment) {
			t.Errorf("output missing %q", fragment)
		}
	}
	// Chosen in another row, or outside the selected bottle.
	for _, fragment := range []string{`<option value="B">body</option>`, `<option value="C">`} {
		if strings.Contains(html, fragment) {
			t.Errorf("output should not offer %q", fragment)
		}
	}
}

func TestRenderPage(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.RenderPage(context.Background(), bottleDocument(t))
	if err != nil {
		t.Fatalf("render page: %v", err)
	}
	page := string(out)
	for _, fragment := range []string{"<!DOCTYPE html>", "<title>Bottle &lt;fields&gt;</title>", `<form id="bottle"`} {
		if !strings.Contains(page, fragment) {
			t.Errorf("page missing %q", fragment)
		}
	}
}

func TestWithTemplatesFS(t *testing.T) {
	files := fstest.MapFS{
		"form.tpl": {Data: []byte(`{{ form.ID }}:{% for fs in form.Fieldsets %}{{ fs.Name }}/{{ fs.Rows|length }};{% endfor %}`)},
	}
	r, err := New(WithTemplatesFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), bottleDocument(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := string(out); got != "bottle:main/1;bottlefield_set/2;" {
		t.Fatalf("output = %q", got)
	}

	if _, err := New(WithTemplatesFS(fstest.MapFS{})); err == nil {
		t.Fatal("expected missing template error")
	}
	if _, err := r.Render(context.Background(), nil); err == nil {
		t.Fatal("expected nil document error")
	}
}
