package form

import (
	"fmt"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/text"
)

// DefaultMaxCascadeDepth bounds how many nested dispatches a single change may
// trigger before ErrCascadeDepth stops it.
const DefaultMaxCascadeDepth = 32

// SourceFactory builds the option source for an autocomplete field.
type SourceFactory func(field model.Field) (autocomplete.Source, error)

// Option configures a Document.
type Option func(*Document)

// WithSourceFactory overrides how autocomplete sources are created.
func WithSourceFactory(factory SourceFactory) Option {
	return func(d *Document) {
		if factory != nil {
			d.sources = factory
		}
	}
}

// WithMaxCascadeDepth overrides DefaultMaxCascadeDepth.
func WithMaxCascadeDepth(depth int) Option {
	return func(d *Document) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// DefaultSourceFactory uses the field endpoint when present, otherwise the
// field's static options.
func DefaultSourceFactory(field model.Field) (autocomplete.Source, error) {
	if field.Endpoint != nil {
		return autocomplete.NewEndpointSource(*field.Endpoint)
	}
	return autocomplete.NewStaticSource(field.Options), nil
}

// Scope is a region of a document that behaviours can query and subscribe
// to. Both *Document and *Fieldset are scopes.
type Scope interface {
	Document() *Document
	Controls(loc Locator) []*Control
	OnChange(loc Locator, fn ChangeHandler) *Subscription
	OnInsert(fn RowHandler) *Subscription
	OnRemove(fn RowHandler) *Subscription
}

var (
	_ Scope = (*Document)(nil)
	_ Scope = (*Fieldset)(nil)
)

// Document is the live state of one form.
type Document struct {
	def       model.Form
	fieldsets []*Fieldset
	sources   SourceFactory
	subs      []*Subscription
	depth     int
	maxDepth  int
}

// Fieldset is a live group of rows. Plain fieldsets hold exactly one row.
type Fieldset struct {
	doc       *Document
	def       model.Fieldset
	rows      []*Row
	nextIndex int
}

// Row is one instance of a fieldset's fields.
type Row struct {
	fieldset *Fieldset
	index    int
	controls []*Control
	removed  bool
}

// Control is one rendered input.
type Control struct {
	name   string
	field  model.Field
	row    *Row
	values []string
	labels map[string]string
	widget *autocomplete.Widget
}

// New builds a document from a form definition. Inline fieldsets start with
// InitialRows rows; field defaults become initial values.
func New(def model.Form, opts ...Option) (*Document, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	d := &Document{
		def:      def,
		sources:  DefaultSourceFactory,
		maxDepth: DefaultMaxCascadeDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	for _, fsDef := range def.Fieldsets {
		fs := &Fieldset{doc: d, def: fsDef}
		d.fieldsets = append(d.fieldsets, fs)
		rows := 1
		if fsDef.Inline {
			rows = fsDef.InitialRows
		}
		for i := 0; i < rows; i++ {
			if _, err := fs.newRow(); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// Definition returns the form definition the document was built from.
func (d *Document) Definition() model.Form { return d.def }

// Document returns d; it satisfies Scope.
func (d *Document) Document() *Document { return d }

// Fieldsets returns the fieldsets in document order.
func (d *Document) Fieldsets() []*Fieldset {
	return append([]*Fieldset(nil), d.fieldsets...)
}

// Fieldset looks up a fieldset by name.
func (d *Document) Fieldset(name string) (*Fieldset, error) {
	for _, fs := range d.fieldsets {
		if fs.def.Name == name {
			return fs, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFieldset, name)
}

// Controls returns every control matching loc in document order.
func (d *Document) Controls(loc Locator) []*Control {
	var out []*Control
	for _, fs := range d.fieldsets {
		out = append(out, fs.Controls(loc)...)
	}
	return out
}

// Control returns the control with exactly this name.
func (d *Document) Control(name string) (*Control, bool) {
	matches := d.Controls(Exact(name))
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

// Values returns the current non-empty values keyed by control name.
func (d *Document) Values() map[string][]string {
	out := make(map[string][]string)
	for _, fs := range d.fieldsets {
		for _, row := range fs.rows {
			for _, c := range row.controls {
				if len(c.values) > 0 {
					out[c.name] = c.Values()
				}
			}
		}
	}
	return out
}

// OnChange subscribes fn to changes of controls matching loc anywhere in the
// document.
func (d *Document) OnChange(loc Locator, fn ChangeHandler) *Subscription {
	return d.subscribe(&Subscription{kind: subChange, locator: loc, onChange: fn})
}

// OnInsert subscribes fn to row insertions anywhere in the document.
func (d *Document) OnInsert(fn RowHandler) *Subscription {
	return d.subscribe(&Subscription{kind: subInsert, onRow: fn})
}

// OnRemove subscribes fn to row removals anywhere in the document.
func (d *Document) OnRemove(fn RowHandler) *Subscription {
	return d.subscribe(&Subscription{kind: subRemove, onRow: fn})
}

// SetValue replaces the values of c and delivers a ChangeEvent to matching
// subscribers before returning it. Empty strings are dropped; single-value
// controls keep only the first value. The event is delivered even when the
// values did not change.
func (d *Document) SetValue(c *Control, values ...string) (ChangeEvent, error) {
	if !d.owns(c) {
		return ChangeEvent{}, ErrForeignControl
	}
	if err := d.enter(); err != nil {
		log.Warn(log.CatForm, "change cascade stopped", "control", c.name, "depth", d.depth)
		return ChangeEvent{}, fmt.Errorf("%w: %s", err, c.name)
	}
	defer d.leave()

	next := normaliseValues(values, c.field.Multiple)
	ev := ChangeEvent{
		Control:  c,
		Values:   append([]string(nil), next...),
		Previous: c.Values(),
	}
	c.values = next
	log.Debug(log.CatForm, "value set", "control", c.name, "values", next)

	d.dispatchChange(ev)
	return ev, nil
}

// Select sets c to the given options, remembering their labels for
// DisplayText. It is how widgets backed by remote sources record a choice.
func (d *Document) Select(c *Control, opts ...model.Option) (ChangeEvent, error) {
	if !d.owns(c) {
		return ChangeEvent{}, ErrForeignControl
	}
	values := make([]string, 0, len(opts))
	for _, opt := range opts {
		if opt.Value == "" {
			continue
		}
		if c.labels == nil {
			c.labels = make(map[string]string)
		}
		c.labels[opt.Value] = opt.Label
		values = append(values, opt.Value)
	}
	return d.SetValue(c, values...)
}

// AddRow appends a row to an inline fieldset and announces it to insert
// subscribers.
func (d *Document) AddRow(fieldset string) (*Row, error) {
	fs, err := d.Fieldset(fieldset)
	if err != nil {
		return nil, err
	}
	if !fs.def.Inline {
		return nil, fmt.Errorf("%w: %q", ErrNotInline, fieldset)
	}
	if fs.def.MaxRows > 0 && len(fs.rows) >= fs.def.MaxRows {
		return nil, fmt.Errorf("%w: %q allows %d", ErrRowLimit, fieldset, fs.def.MaxRows)
	}
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()
	row, err := fs.newRow()
	if err != nil {
		return nil, err
	}
	d.dispatchRow(subInsert, RowEvent{Fieldset: fs, Row: row})
	return row, nil
}

// RemoveRow deletes an inline row and announces it to remove subscribers.
// Indices of the remaining rows are not renumbered.
func (d *Document) RemoveRow(row *Row) error {
	if row == nil || row.removed || row.fieldset == nil || row.fieldset.doc != d {
		return ErrForeignControl
	}
	fs := row.fieldset
	if !fs.def.Inline {
		return fmt.Errorf("%w: %q", ErrNotInline, fs.def.Name)
	}
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	rows := fs.rows[:0]
	for _, r := range fs.rows {
		if r != row {
			rows = append(rows, r)
		}
	}
	fs.rows = rows
	row.removed = true
	d.dispatchRow(subRemove, RowEvent{Fieldset: fs, Row: row})
	return nil
}

func (d *Document) owns(c *Control) bool {
	return c != nil && c.row != nil && !c.row.removed && c.row.fieldset != nil && c.row.fieldset.doc == d
}

func normaliseValues(values []string, multiple bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, v)
		if !multiple {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Name returns the fieldset name.
func (fs *Fieldset) Name() string { return fs.def.Name }

// Definition returns the fieldset definition.
func (fs *Fieldset) Definition() model.Fieldset { return fs.def }

// Inline reports whether the fieldset repeats.
func (fs *Fieldset) Inline() bool { return fs.def.Inline }

// Document returns the owning document.
func (fs *Fieldset) Document() *Document { return fs.doc }

// Rows returns the current rows in order.
func (fs *Fieldset) Rows() []*Row {
	return append([]*Row(nil), fs.rows...)
}

// CanAddRow reports whether MaxRows still allows another row.
func (fs *Fieldset) CanAddRow() bool {
	return fs.def.Inline && (fs.def.MaxRows <= 0 || len(fs.rows) < fs.def.MaxRows)
}

// Controls returns the fieldset's controls matching loc in document order.
func (fs *Fieldset) Controls(loc Locator) []*Control {
	var out []*Control
	for _, row := range fs.rows {
		for _, c := range row.controls {
			if matches(loc, c.name) {
				out = append(out, c)
			}
		}
	}
	return out
}

// OnChange subscribes fn to changes of this fieldset's controls only.
func (fs *Fieldset) OnChange(loc Locator, fn ChangeHandler) *Subscription {
	return fs.doc.subscribe(&Subscription{kind: subChange, scope: fs, locator: loc, onChange: fn})
}

// OnInsert subscribes fn to row insertions in this fieldset only.
func (fs *Fieldset) OnInsert(fn RowHandler) *Subscription {
	return fs.doc.subscribe(&Subscription{kind: subInsert, scope: fs, onRow: fn})
}

// OnRemove subscribes fn to row removals in this fieldset only.
func (fs *Fieldset) OnRemove(fn RowHandler) *Subscription {
	return fs.doc.subscribe(&Subscription{kind: subRemove, scope: fs, onRow: fn})
}

func (fs *Fieldset) newRow() (*Row, error) {
	row := &Row{fieldset: fs, index: -1}
	if fs.def.Inline {
		row.index = fs.nextIndex
		fs.nextIndex++
	}
	for _, field := range fs.def.Fields {
		c := &Control{
			name:   controlName(fs.def, row.index, field.Name),
			field:  field,
			row:    row,
			values: normaliseValues(field.Default, field.Multiple),
		}
		if field.Kind == model.FieldKindAutocomplete {
			source, err := fs.doc.sources(field)
			if err != nil {
				return nil, fmt.Errorf("form: source for %s: %w", c.name, err)
			}
			c.widget = autocomplete.NewWidget(c.name, source)
		}
		row.controls = append(row.controls, c)
	}
	fs.rows = append(fs.rows, row)
	return row, nil
}

func controlName(fs model.Fieldset, index int, field string) string {
	if !fs.Inline {
		return field
	}
	return fmt.Sprintf("%s-%d-%s", fs.RowPrefix(), index, field)
}

// Index returns the inline row index, or -1 for plain fieldsets.
func (r *Row) Index() int { return r.index }

// Fieldset returns the owning fieldset.
func (r *Row) Fieldset() *Fieldset { return r.fieldset }

// Controls returns the row's controls in field order.
func (r *Row) Controls() []*Control {
	return append([]*Control(nil), r.controls...)
}

// Control returns the row's control for a field name.
func (r *Row) Control(field string) (*Control, bool) {
	for _, c := range r.controls {
		if c.field.Name == field {
			return c, true
		}
	}
	return nil, false
}

// Find returns the row's controls matching loc.
func (r *Row) Find(loc Locator) []*Control {
	var out []*Control
	for _, c := range r.controls {
		if matches(loc, c.name) {
			out = append(out, c)
		}
	}
	return out
}

// Name returns the rendered control name.
func (c *Control) Name() string { return c.name }

// Field returns the field definition.
func (c *Control) Field() model.Field { return c.field }

// Kind returns the field kind.
func (c *Control) Kind() model.FieldKind { return c.field.Kind }

// Row returns the owning row.
func (c *Control) Row() *Row { return c.row }

// Fieldset returns the owning fieldset.
func (c *Control) Fieldset() *Fieldset { return c.row.fieldset }

// Values returns a copy of the current values.
func (c *Control) Values() []string {
	if len(c.values) == 0 {
		return nil
	}
	return append([]string(nil), c.values...)
}

// Value returns the first selected value or "".
func (c *Control) Value() string {
	if len(c.values) == 0 {
		return ""
	}
	return c.values[0]
}

// Options returns the field's static options.
func (c *Control) Options() []model.Option {
	return append([]model.Option(nil), c.field.Options...)
}

// Widget returns the autocomplete widget, or nil for other kinds.
func (c *Control) Widget() *autocomplete.Widget { return c.widget }

// Labels returns the display labels of the current values. Values chosen
// through Select keep their source label; unknown values fall back to the
// value itself.
func (c *Control) Labels() []string {
	out := make([]string, 0, len(c.values))
	for _, v := range c.values {
		out = append(out, c.labelFor(v))
	}
	return out
}

// DisplayText is the plain text shown for the current selection.
func (c *Control) DisplayText() string {
	return text.Join(c.Labels())
}

func (c *Control) labelFor(value string) string {
	for _, opt := range c.field.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	if label, ok := c.labels[value]; ok && label != "" {
		return label
	}
	return value
}
