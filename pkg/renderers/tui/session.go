package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/text"
)

const defaultEmptyLabel = "---------"

// Session fills a live document from the terminal. Every answer goes through
// the document, so dependent-field bindings mounted on it run between prompts
// and later autocomplete prompts only offer what their widget suggests.
type Session struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	emptyLabel        string
}

// New constructs a session with defaults (survey driver, JSON output).
func New(options ...Option) *Session {
	s := &Session{
		outputFormat: OutputFormatJSON,
		emptyLabel:   defaultEmptyLabel,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s
}

// ContentType reports the serialization format used by Fill.
func (s *Session) ContentType() string {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Fill prompts for every control in document order and returns the collected
// values serialized in the configured format. Inline fieldsets offer to add
// rows until MaxRows is reached.
func (s *Session) Fill(ctx context.Context, doc *form.Document) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, fs := range doc.Fieldsets() {
		if err := s.fillFieldset(ctx, doc, fs); err != nil {
			return nil, err
		}
	}

	values, err := Collect(doc)
	if err != nil {
		return nil, err
	}
	if s.submitTransformer != nil {
		values, err = s.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return s.serialize(values)
}

func (s *Session) fillFieldset(ctx context.Context, doc *form.Document, fs *form.Fieldset) error {
	label := text.Plain(fs.Definition().Label)
	if !fs.Inline() {
		return s.fillRow(ctx, doc, fs.Rows()[0])
	}

	for pos := 0; ; pos++ {
		rows := fs.Rows()
		if pos < len(rows) {
			if err := s.fillRow(ctx, doc, rows[pos]); err != nil {
				return err
			}
			continue
		}
		if !fs.CanAddRow() {
			return nil
		}
		more, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add another %s?", label),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if _, err := doc.AddRow(fs.Name()); err != nil {
			return err
		}
	}
}

func (s *Session) fillRow(ctx context.Context, doc *form.Document, row *form.Row) error {
	for _, c := range row.Controls() {
		if err := s.promptControl(ctx, doc, c); err != nil {
			return fmt.Errorf("tui: %s: %w", c.Name(), err)
		}
	}
	return nil
}

func (s *Session) promptControl(ctx context.Context, doc *form.Document, c *form.Control) error {
	field := c.Field()
	message := promptLabel(c)

	if c.Kind() == model.FieldKindText {
		val, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   c.Value(),
			Help:      field.Description,
			Validator: requiredValidator(field.Required),
		})
		if err != nil {
			return err
		}
		_, err = doc.SetValue(c, strings.TrimSpace(val))
		return err
	}

	options, err := s.choices(ctx, c)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return s.promptFreeValue(ctx, doc, c, message)
	}

	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = text.Plain(opt.Label)
		if labels[i] == "" {
			labels[i] = opt.Value
		}
	}

	if field.Multiple {
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  labels,
			Defaults: indicesOf(options, c.Values()),
			Help:     field.Description,
		})
		if err != nil {
			return err
		}
		_, err = doc.Select(c, pick(options, indices)...)
		return err
	}

	emptyOffset := 0
	if !field.Required {
		labels = append([]string{s.emptyLabel}, labels...)
		emptyOffset = 1
	}
	defaultIdx := 0
	if found := indicesOf(options, []string{c.Value()}); len(found) == 1 {
		defaultIdx = found[0] + emptyOffset
	}
	for {
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         field.Description,
		})
		if err != nil {
			return err
		}
		idx -= emptyOffset
		switch {
		case idx == -1 && emptyOffset == 1:
			_, err = doc.SetValue(c)
			return err
		case idx < 0 || idx >= len(options):
			_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", message))
			continue
		}
		_, err = doc.Select(c, options[idx])
		return err
	}
}

// choices lists the current selection followed by what the control offers:
// the widget's suggestions for autocompletes, static options otherwise.
func (s *Session) choices(ctx context.Context, c *form.Control) ([]model.Option, error) {
	candidates := c.Options()
	if w := c.Widget(); w != nil {
		suggested, err := w.Suggest(ctx, "")
		switch {
		case err == nil:
			candidates = suggested
		case errors.Is(err, autocomplete.ErrNoSource):
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			log.Warn(log.CatRender, "suggest failed, using static options", "control", c.Name(), "error", err.Error())
			_ = s.driver.Info(ctx, fmt.Sprintf("Could not load options for %s: %v", promptLabel(c), err))
		}
	}

	var out []model.Option
	seen := make(map[string]struct{})
	labels := c.Labels()
	for i, v := range c.Values() {
		out = append(out, model.Option{Value: v, Label: labels[i]})
		seen[v] = struct{}{}
	}
	for _, opt := range candidates {
		if _, dup := seen[opt.Value]; dup {
			continue
		}
		seen[opt.Value] = struct{}{}
		out = append(out, opt)
	}
	return out, nil
}

// promptFreeValue asks for raw values when a control has nothing to offer.
func (s *Session) promptFreeValue(ctx context.Context, doc *form.Document, c *form.Control, message string) error {
	field := c.Field()
	help := field.Description
	if field.Multiple {
		help = strings.TrimSpace(help + " (comma separated)")
	}
	val, err := s.driver.Input(ctx, InputConfig{
		Message:   message,
		Default:   strings.Join(c.Values(), ","),
		Help:      help,
		Validator: requiredValidator(field.Required),
	})
	if err != nil {
		return err
	}
	values := []string{strings.TrimSpace(val)}
	if field.Multiple {
		values = splitList(val)
	}
	_, err = doc.SetValue(c, values...)
	return err
}

// Collect gathers the document values into nested maps: plain fieldsets
// contribute top-level keys, inline fieldsets a list of row maps. Multiple
// controls yield lists; empty controls and rows are omitted.
func Collect(doc *form.Document) (map[string]any, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	state := NewState()
	for _, fs := range doc.Fieldsets() {
		pos := 0
		for _, row := range fs.Rows() {
			prefix := ""
			if fs.Inline() {
				prefix = fs.Name() + "." + strconv.Itoa(pos) + "."
			}
			written := false
			for _, c := range row.Controls() {
				values := c.Values()
				if len(values) == 0 {
					continue
				}
				var value any = values[0]
				if c.Field().Multiple {
					value = toAnySlice(values)
				}
				if err := state.SetValue(prefix+c.Field().Name, value); err != nil {
					return nil, err
				}
				written = true
			}
			if written {
				pos++
			}
		}
	}
	return state.Values(), nil
}

func (s *Session) serialize(values map[string]any) ([]byte, error) {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func promptLabel(c *form.Control) string {
	label := text.Plain(c.Field().Label)
	if label == "" {
		label = c.Field().Name
	}
	if idx := c.Row().Index(); idx >= 0 {
		label = fmt.Sprintf("%s #%d", label, idx+1)
	}
	return label
}

func requiredValidator(required bool) func(string) error {
	if !required {
		return nil
	}
	return func(val string) error {
		if strings.TrimSpace(val) == "" {
			return errors.New("value is required")
		}
		return nil
	}
}

func indicesOf(options []model.Option, values []string) []int {
	want := make(map[string]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}
	var out []int
	for i, opt := range options {
		if _, ok := want[opt.Value]; ok {
			out = append(out, i)
		}
	}
	return out
}

func pick(options []model.Option, indices []int) []model.Option {
	var out []model.Option
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(joinKey(prefix, key), val, out)
		}
	case []any:
		for idx, val := range v {
			if _, nested := val.(map[string]any); nested {
				flatten(fmt.Sprintf("%s.%d", prefix, idx), val, out)
				continue
			}
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, joinKey(prefix, key), v[key])
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
