package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/dependents"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/renderers/html"
	"github.com/goliatone/go-formsync/pkg/rules"
	"github.com/goliatone/go-formsync/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFetcher injects the fetcher used to read Request.Source.
func WithFetcher(fetcher *schema.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithRenderer injects the HTML renderer used by Generate.
func WithRenderer(renderer *html.Renderer) Option {
	return func(o *Orchestrator) {
		o.renderer = renderer
	}
}

// WithDocumentOptions forwards options to form.New, for example a source
// factory with tuned endpoint caching.
func WithDocumentOptions(opts ...form.Option) Option {
	return func(o *Orchestrator) {
		o.documentOptions = append(o.documentOptions, opts...)
	}
}

// WithSchemaTransformer registers a Transformer that can mutate the form
// definition after it is loaded and before decorators run.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against the definition before
// the live document is built.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// Orchestrator coordinates the pipeline from an OpenAPI document (or a ready
// definition) to a synchronised, rendered form.
type Orchestrator struct {
	fetcher           *schema.Fetcher
	renderer          *html.Renderer
	documentOptions   []form.Option
	decorators        []model.Decorator
	transformer       Transformer
	endpointOverrides map[string][]EndpointOverride
	initialiseErr     error
}

// New constructs an Orchestrator. Missing dependencies are initialised with
// the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = schema.NewFetcher()
	}
	if o.renderer == nil {
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = appendInitialiseError(o.initialiseErr, fmt.Errorf("orchestrator: default renderer: %w", err))
		}
		o.renderer = renderer
	}
	return o
}

// Request describes the inputs of one build.
type Request struct {
	// Source identifies where the OpenAPI document lives. Optional when
	// Schema or Definition is supplied.
	Source schema.Source

	// Schema carries raw OpenAPI bytes, bypassing the fetcher.
	Schema []byte

	// Definition bypasses OpenAPI entirely.
	Definition *model.Form

	// OperationID selects the operation whose request body becomes the form.
	OperationID string

	// Rules are merged after any rules embedded in the schema.
	Rules []rules.Document

	// Presets names embedded rule documents to merge last.
	Presets []string

	// SkipSchemaRules ignores the operation's x-formsync-rules extension.
	SkipSchemaRules bool

	// Rows adds rows to inline fieldsets, keyed by fieldset name, before the
	// rules are attached.
	Rows map[string]int

	// Values assigns control values, keyed by control name, after the rules
	// are attached so dependents follow them. Names are applied in sorted
	// order.
	Values map[string][]string

	// Changes are applied one by one after Values, in slice order. A later
	// change wins over anything an earlier change cascaded into.
	Changes []Assignment
}

// Assignment replaces the values of one control.
type Assignment struct {
	Name   string
	Values []string
}

// Result is a live, synchronised document.
type Result struct {
	Document *form.Document
	Mount    *dependents.Mount
	Rules    rules.Document
}

// Close releases the rule subscriptions.
func (r *Result) Close() {
	if r != nil && r.Mount != nil {
		r.Mount.Unmount()
	}
}

// Build resolves the definition and rules, builds the live document and
// attaches the dependent-field bindings.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	def, raw, err := o.resolveDefinition(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := o.prepare(ctx, req.OperationID, &def); err != nil {
		return nil, err
	}

	ruleDoc, err := o.resolveRules(ctx, req, raw, def.ID)
	if err != nil {
		return nil, err
	}

	doc, err := form.New(def, o.documentOptions...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build document: %w", err)
	}
	if err := addRows(doc, req.Rows); err != nil {
		return nil, err
	}

	mount, err := dependents.Attach(doc, dependents.FromRules(ruleDoc)...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: attach rules: %w", err)
	}
	result := &Result{Document: doc, Mount: mount, Rules: ruleDoc}

	if err := assignValues(doc, req.Values); err != nil {
		result.Close()
		return nil, err
	}
	if err := applyChanges(doc, req.Changes); err != nil {
		result.Close()
		return nil, err
	}
	log.Debug(log.CatSync, "document ready", "form", def.ID, "rules", ruleDoc.Name, "bindings", len(mount.Bindings()))
	return result, nil
}

// Generate builds the document and renders it as an HTML fragment.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	return o.generate(ctx, req, false)
}

// GeneratePage builds the document and renders a standalone HTML page.
func (o *Orchestrator) GeneratePage(ctx context.Context, req Request) ([]byte, error) {
	return o.generate(ctx, req, true)
}

func (o *Orchestrator) generate(ctx context.Context, req Request, page bool) ([]byte, error) {
	result, err := o.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var output []byte
	if page {
		output, err = o.renderer.RenderPage(ctx, result.Document)
	} else {
		output, err = o.renderer.Render(ctx, result.Document)
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) resolveDefinition(ctx context.Context, req Request) (model.Form, []byte, error) {
	if req.Definition != nil {
		return *req.Definition, nil, nil
	}
	if strings.TrimSpace(req.OperationID) == "" {
		return model.Form{}, nil, errors.New("orchestrator: operation id is required")
	}

	raw := req.Schema
	if len(raw) == 0 {
		if req.Source == nil {
			return model.Form{}, nil, errors.New("orchestrator: source, schema or definition is required")
		}
		data, err := o.fetcher.Fetch(ctx, req.Source)
		if err != nil {
			return model.Form{}, nil, fmt.Errorf("orchestrator: load document: %w", err)
		}
		raw = data
	}

	def, err := schema.Load(ctx, raw, req.OperationID)
	if err != nil {
		return model.Form{}, nil, fmt.Errorf("orchestrator: %w", err)
	}
	return def, raw, nil
}

func (o *Orchestrator) prepare(ctx context.Context, operationID string, def *model.Form) error {
	o.applyEndpointOverrides(operationID, def)
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, def); err != nil {
			return fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(def); err != nil {
			return fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) resolveRules(ctx context.Context, req Request, raw []byte, formID string) (rules.Document, error) {
	var docs []rules.Document
	if len(raw) > 0 && !req.SkipSchemaRules {
		embedded, ok, err := schema.Rules(ctx, raw, req.OperationID)
		if err != nil {
			return rules.Document{}, fmt.Errorf("orchestrator: %w", err)
		}
		if ok {
			docs = append(docs, embedded)
		}
	}
	docs = append(docs, req.Rules...)
	for _, name := range req.Presets {
		preset, err := rules.Preset(name)
		if err != nil {
			return rules.Document{}, fmt.Errorf("orchestrator: %w", err)
		}
		docs = append(docs, preset)
	}

	if len(docs) == 1 {
		return docs[0], nil
	}
	merged := rules.Merge(formID, docs...)
	if err := merged.Validate(); err != nil {
		return rules.Document{}, fmt.Errorf("orchestrator: %w", err)
	}
	return merged, nil
}

func addRows(doc *form.Document, rows map[string]int) error {
	for _, name := range sortedKeys(rows) {
		for i := 0; i < rows[name]; i++ {
			if _, err := doc.AddRow(name); err != nil {
				return fmt.Errorf("orchestrator: add row to %s: %w", name, err)
			}
		}
	}
	return nil
}

func assignValues(doc *form.Document, values map[string][]string) error {
	changes := make([]Assignment, 0, len(values))
	for _, name := range sortedKeys(values) {
		changes = append(changes, Assignment{Name: name, Values: values[name]})
	}
	return applyChanges(doc, changes)
}

func applyChanges(doc *form.Document, changes []Assignment) error {
	for _, change := range changes {
		control, ok := doc.Control(change.Name)
		if !ok {
			return fmt.Errorf("orchestrator: no control named %q", change.Name)
		}
		if _, err := doc.SetValue(control, change.Values...); err != nil {
			return fmt.Errorf("orchestrator: set %s: %w", change.Name, err)
		}
	}
	return nil
}

func appendInitialiseError(existing, next error) error {
	if existing == nil {
		return next
	}
	return errors.Join(existing, next)
}
