package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/model"
)

// ListSuffix is appended to a field name to form the data key under which the
// values already chosen across sibling rows are published.
const ListSuffix = "_list"

// ErrNoSource is returned by Suggest when the widget has no option source.
var ErrNoSource = errors.New("autocomplete: widget has no option source")

// ListKey returns the data key used for the selected-value list of field.
func ListKey(field string) string {
	return field + ListSuffix
}

// Data is the widget data bag: string keys and values the option source
// receives on every lookup.
type Data map[string]string

// Clone returns an independent copy.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Keys returns the data keys in sorted order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List decodes a JSON encoded list stored under key. Missing or malformed
// values decode to nil.
func (d Data) List(key string) []string {
	raw := strings.TrimSpace(d[key])
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// EncodeList renders values the way list entries are stored in widget data.
// A nil slice encodes as an empty list.
func EncodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(payload)
}

// Query is what a Source receives: the search term typed by the user and a
// snapshot of the widget data at lookup time.
type Query struct {
	Term string
	Data Data
}

// Source resolves the options an autocomplete widget offers.
type Source interface {
	Options(ctx context.Context, q Query) ([]model.Option, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, q Query) ([]model.Option, error)

// Options calls the underlying function.
func (fn SourceFunc) Options(ctx context.Context, q Query) ([]model.Option, error) {
	return fn(ctx, q)
}

// Widget is one autocomplete instance attached to a control. Writes to its
// data are visible to the next Suggest call.
type Widget struct {
	id     string
	field  string
	data   Data
	source Source
}

// NewWidget creates a widget for the named control.
func NewWidget(field string, source Source) *Widget {
	return &Widget{
		id:     uuid.NewString(),
		field:  field,
		data:   make(Data),
		source: source,
	}
}

// ID returns the widget instance id.
func (w *Widget) ID() string {
	if w == nil {
		return ""
	}
	return w.id
}

// Field returns the name of the control the widget is attached to.
func (w *Widget) Field() string {
	if w == nil {
		return ""
	}
	return w.field
}

// Set overwrites a data entry.
func (w *Widget) Set(key, value string) {
	if w == nil {
		return
	}
	w.data[key] = value
	log.Debug(log.CatWidget, "data set", "widget", w.field, "key", key, "value", value)
}

// Get reads a data entry.
func (w *Widget) Get(key string) (string, bool) {
	if w == nil {
		return "", false
	}
	v, ok := w.data[key]
	return v, ok
}

// Data returns a snapshot of the widget data.
func (w *Widget) Data() Data {
	if w == nil {
		return nil
	}
	return w.data.Clone()
}

// Source returns the widget's option source.
func (w *Widget) Source() Source {
	if w == nil {
		return nil
	}
	return w.source
}

// Suggest asks the source for options matching term, parameterised by the
// current widget data.
func (w *Widget) Suggest(ctx context.Context, term string) ([]model.Option, error) {
	if w == nil || w.source == nil {
		return nil, ErrNoSource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.source.Options(ctx, Query{Term: term, Data: w.data.Clone()})
}
