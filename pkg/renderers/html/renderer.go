package html

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/text"
)

const (
	formTemplate = "form.tpl"
	pageTemplate = "page.tpl"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplatesFS replaces the embedded templates. The filesystem must provide
// form.tpl and page.tpl at its root.
func WithTemplatesFS(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.files = files
		}
	}
}

// Renderer turns a live document into HTML. Autocomplete controls carry their
// widget id and data bag as data attributes, and their options are the ones
// the widget would currently suggest.
type Renderer struct {
	files fs.FS

	mu        sync.Mutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New builds a Renderer over the embedded templates unless overridden.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		files:     TemplatesFS(),
		templates: make(map[string]*pongo2.Template),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.set = pongo2.NewSet("formsync", pongo2.NewFSLoader(r.files))
	if _, err := r.template(formTemplate); err != nil {
		return nil, err
	}
	return r, nil
}

// Render returns the form fragment for doc.
func (r *Renderer) Render(ctx context.Context, doc *form.Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("html: document is nil")
	}
	view, err := buildView(ctx, doc)
	if err != nil {
		return nil, err
	}
	return r.execute(formTemplate, pongo2.Context{"form": view})
}

// RenderPage wraps the form fragment in a minimal HTML page.
func (r *Renderer) RenderPage(ctx context.Context, doc *form.Document) ([]byte, error) {
	body, err := r.Render(ctx, doc)
	if err != nil {
		return nil, err
	}
	title := doc.Definition().Title
	if title == "" {
		title = doc.Definition().ID
	}
	return r.execute(pageTemplate, pongo2.Context{"title": title, "body": string(body)})
}

func (r *Renderer) execute(name string, data pongo2.Context) ([]byte, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return nil, fmt.Errorf("html: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("html: load template %s: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

type formView struct {
	ID        string
	Title     string
	Fieldsets []fieldsetView
}

type fieldsetView struct {
	Name      string
	Label     string
	Inline    bool
	Prefix    string
	MaxRows   int
	CanAddRow bool
	Rows      []rowView
}

type rowView struct {
	Index    int
	Controls []controlView
}

type controlView struct {
	Name     string
	Label    string
	Kind     string
	Multiple bool
	Required bool
	Value    string
	WidgetID string
	Data     string
	Endpoint string
	Options  []optionView
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

func buildView(ctx context.Context, doc *form.Document) (formView, error) {
	def := doc.Definition()
	view := formView{ID: def.ID, Title: def.Title}
	for _, fs := range doc.Fieldsets() {
		fsDef := fs.Definition()
		fv := fieldsetView{
			Name:      fs.Name(),
			Label:     fsDef.Label,
			Inline:    fs.Inline(),
			Prefix:    fsDef.RowPrefix(),
			MaxRows:   fsDef.MaxRows,
			CanAddRow: fs.CanAddRow(),
		}
		for _, row := range fs.Rows() {
			rv := rowView{Index: row.Index()}
			for _, c := range row.Controls() {
				cv, err := buildControl(ctx, c)
				if err != nil {
					return formView{}, err
				}
				rv.Controls = append(rv.Controls, cv)
			}
			fv.Rows = append(fv.Rows, rv)
		}
		view.Fieldsets = append(view.Fieldsets, fv)
	}
	return view, nil
}

func buildControl(ctx context.Context, c *form.Control) (controlView, error) {
	field := c.Field()
	cv := controlView{
		Name:     c.Name(),
		Label:    text.Plain(field.Label),
		Kind:     string(c.Kind()),
		Multiple: field.Multiple,
		Required: field.Required,
		Value:    c.Value(),
	}
	if field.Endpoint != nil {
		cv.Endpoint = field.Endpoint.URL
	}

	selected := make(map[string]bool)
	for _, v := range c.Values() {
		selected[v] = true
	}
	// Current values stay listed even when the widget excludes them.
	labels := c.Labels()
	for i, v := range c.Values() {
		cv.Options = append(cv.Options, optionView{Value: v, Label: text.Plain(labels[i]), Selected: true})
	}

	candidates := c.Options()
	if w := c.Widget(); w != nil {
		payload, err := json.Marshal(w.Data())
		if err != nil {
			return controlView{}, fmt.Errorf("html: encode widget data for %s: %w", c.Name(), err)
		}
		cv.WidgetID = w.ID()
		cv.Data = string(payload)

		suggested, err := w.Suggest(ctx, "")
		switch {
		case errors.Is(err, autocomplete.ErrNoSource):
		case err != nil:
			log.Warn(log.CatRender, "suggest failed, using static options", "control", c.Name(), "error", err.Error())
		default:
			candidates = suggested
		}
	}
	for _, opt := range candidates {
		if selected[opt.Value] {
			continue
		}
		cv.Options = append(cv.Options, optionFor(opt))
	}
	return cv, nil
}

func optionFor(opt model.Option) optionView {
	return optionView{Value: opt.Value, Label: text.Plain(opt.Label)}
}
