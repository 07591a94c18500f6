package dependents

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
)

// Every rendered dependent widget carries the master's latest value.
func TestMasterValue_PropagatesToEveryWidget(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(0, 6).Draw(rt, "rows")
		doc, err := form.New(bottleForm(rows))
		if err != nil {
			rt.Fatalf("new document: %v", err)
		}
		m, err := Attach(doc, MasterValue{Master: "bottle", Dependent: "field_name"})
		if err != nil {
			rt.Fatalf("attach: %v", err)
		}
		defer m.Unmount()

		bottle, _ := doc.Control("bottle")
		value := rapid.OneOf(
			rapid.SampledFrom([]string{"", "7", "9", " 9 ", "7\t", `a;b=c`, `["7"]`}),
			rapid.String(),
		)
		changes := rapid.SliceOfN(value, 1, 5).Draw(rt, "changes")
		for _, v := range changes {
			if _, err := doc.SetValue(bottle, v); err != nil {
				rt.Fatalf("set: %v", err)
			}
		}
		last := changes[len(changes)-1]

		widgets := doc.Controls(form.EndsWith("field_name"))
		if len(widgets) != rows {
			rt.Fatalf("expected %d widgets, got %d", rows, len(widgets))
		}
		for _, c := range widgets {
			if got, _ := c.Widget().Get("bottle"); got != last {
				rt.Fatalf("%s bottle = %q, want %q", c.Name(), got, last)
			}
		}
	})
}

// A master that allows multiple values publishes every selected value.
func TestMasterValue_MultipleValuesPublishList(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 4).Draw(rt, "rows")
		def := bottleForm(rows)
		def.Fieldsets[0].Fields[0].Multiple = true
		doc, err := form.New(def)
		if err != nil {
			rt.Fatalf("new document: %v", err)
		}
		m, err := Attach(doc, MasterValue{Master: "bottle", Dependent: "field_name"})
		if err != nil {
			rt.Fatalf("attach: %v", err)
		}
		defer m.Unmount()

		bottle, _ := doc.Control("bottle")
		picked := rapid.SliceOfN(rapid.SampledFrom([]string{"", "7", "9", " 13 "}), 0, 4).Draw(rt, "picked")
		if _, err := doc.SetValue(bottle, picked...); err != nil {
			rt.Fatalf("set: %v", err)
		}

		var set []string
		for _, v := range picked {
			if v != "" {
				set = append(set, v)
			}
		}
		want := ""
		if len(set) > 0 {
			want = autocomplete.EncodeList(set)
		}
		for _, c := range doc.Controls(form.EndsWith("field_name")) {
			if got, _ := c.Widget().Get("bottle"); got != want {
				rt.Fatalf("%s bottle = %q, want %q", c.Name(), got, want)
			}
		}
	})
}

// The published list holds exactly the non-empty selections in document order,
// and every widget sees the same list.
func TestSelectedValues_ListMatchesSelections(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 6).Draw(rt, "rows")
		doc, err := form.New(bottleForm(rows))
		if err != nil {
			rt.Fatalf("new document: %v", err)
		}
		m, err := Attach(doc, SelectedValues{Field: "field_name"})
		if err != nil {
			rt.Fatalf("attach: %v", err)
		}
		defer m.Unmount()

		picks := make([]string, rows)
		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			row := rapid.IntRange(0, rows-1).Draw(rt, "row")
			value := rapid.SampledFrom([]string{"", "A", "B", "C"}).Draw(rt, "value")
			c, ok := doc.Control(fmt.Sprintf("bottlefield_set-%d-field_name", row))
			if !ok {
				rt.Fatalf("row %d missing", row)
			}
			if _, err := doc.SetValue(c, value); err != nil {
				rt.Fatalf("set: %v", err)
			}
			picks[row] = value
		}

		want := []string{}
		for _, v := range picks {
			if v != "" {
				want = append(want, v)
			}
		}
		for _, c := range doc.Controls(form.EndsWith("field_name")) {
			got := c.Widget().Data().List(autocomplete.ListKey("field_name"))
			if diff := cmp.Diff(want, got); diff != "" {
				rt.Fatalf("%s list mismatch (-want +got):\n%s", c.Name(), diff)
			}
		}
	})
}

// Re-running a sync without intervening changes leaves widget data untouched.
func TestSync_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rows := rapid.IntRange(1, 4).Draw(rt, "rows")
		doc, err := form.New(bottleForm(rows))
		if err != nil {
			rt.Fatalf("new document: %v", err)
		}
		master := MasterValue{Master: "bottle", Dependent: "field_name"}
		selected := SelectedValues{Field: "field_name"}
		m, err := Attach(doc, master, selected)
		if err != nil {
			rt.Fatalf("attach: %v", err)
		}
		defer m.Unmount()

		for i := 0; i < rows; i++ {
			c, _ := doc.Control(fmt.Sprintf("bottlefield_set-%d-field_name", i))
			v := rapid.SampledFrom([]string{"", "A", "B"}).Draw(rt, "value")
			if _, err := doc.SetValue(c, v); err != nil {
				rt.Fatalf("set: %v", err)
			}
		}

		before := snapshot(doc)
		master.Sync(doc)
		selected.Sync(doc)
		selected.Sync(doc)
		if diff := cmp.Diff(before, snapshot(doc)); diff != "" {
			rt.Fatalf("repeated sync changed widget data (-before +after):\n%s", diff)
		}
	})
}

func snapshot(doc *form.Document) map[string]autocomplete.Data {
	out := make(map[string]autocomplete.Data)
	for _, c := range doc.Controls(nil) {
		if w := c.Widget(); w != nil {
			out[c.Name()] = w.Data()
		}
	}
	return out
}
