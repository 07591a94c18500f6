package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/rules"
)

// MainFieldset names the plain fieldset that holds top-level scalar
// properties.
const MainFieldset = "main"

// Vendor extensions read from request body schemas and operations.
const (
	ExtWidget   = "x-formsync-widget"   // "autocomplete" | "select" | "text"
	ExtEndpoint = "x-formsync-endpoint" // model.Endpoint object
	ExtLabels   = "x-formsync-labels"   // enum value -> label
	ExtAttrs    = "x-formsync-attrs"    // enum value -> facet map
	ExtOrder    = "x-formsync-order"    // sort key among siblings
	ExtRows     = "x-formsync-rows"     // initial inline rows
	ExtPrefix   = "x-formsync-prefix"   // inline control prefix
	ExtRules    = "x-formsync-rules"    // rules.Document on the operation
)

var (
	// ErrOperationNotFound is returned when no operation has the requested id.
	ErrOperationNotFound = errors.New("schema: operation not found")
	// ErrNoRequestBody is returned when the operation has no object request body.
	ErrNoRequestBody = errors.New("schema: operation has no object request body")
)

// Load builds a form definition from the request body of operationID.
//
// Scalar properties become fields of MainFieldset, nested objects become
// plain fieldsets and arrays of objects become inline fieldsets. Enums become
// options. Missing labels are filled with model.DefaultLabeler.
func Load(ctx context.Context, data []byte, operationID string) (model.Form, error) {
	op, err := operation(ctx, data, operationID)
	if err != nil {
		return model.Form{}, err
	}
	body := requestSchema(op.RequestBody)
	if body == nil || !isType(body, openapi3.TypeObject) {
		return model.Form{}, fmt.Errorf("%w: %s", ErrNoRequestBody, operationID)
	}

	form := model.Form{ID: operationID, Title: op.Summary}
	main := model.Fieldset{Name: MainFieldset}
	for _, prop := range orderedProperties(body) {
		s := prop.schema
		switch {
		case isObjectArray(s):
			fs, err := inlineFieldset(prop.name, s)
			if err != nil {
				return model.Form{}, err
			}
			form.Fieldsets = append(form.Fieldsets, fs)
		case isType(s, openapi3.TypeObject):
			fields, err := objectFields(s)
			if err != nil {
				return model.Form{}, err
			}
			form.Fieldsets = append(form.Fieldsets, model.Fieldset{Name: prop.name, Label: s.Title, Fields: fields})
		default:
			field, err := buildField(prop.name, s, contains(body.Required, prop.name))
			if err != nil {
				return model.Form{}, err
			}
			main.Fields = append(main.Fields, field)
		}
	}
	if len(main.Fields) > 0 {
		form.Fieldsets = append([]model.Fieldset{main}, form.Fieldsets...)
	}

	if err := model.LabelDecorator(nil).Decorate(&form); err != nil {
		return model.Form{}, err
	}
	if err := form.Validate(); err != nil {
		return model.Form{}, fmt.Errorf("schema: %s: %w", operationID, err)
	}
	log.Debug(log.CatSchema, "form loaded", "operation", operationID, "fieldsets", len(form.Fieldsets))
	return form, nil
}

// Rules returns the rule document embedded in the operation under ExtRules.
// The boolean is false when the operation carries none.
func Rules(ctx context.Context, data []byte, operationID string) (rules.Document, bool, error) {
	op, err := operation(ctx, data, operationID)
	if err != nil {
		return rules.Document{}, false, err
	}
	raw, ok := op.Extensions[ExtRules]
	if !ok || raw == nil {
		return rules.Document{}, false, nil
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return rules.Document{}, false, fmt.Errorf("schema: %s %s: %w", operationID, ExtRules, err)
	}
	doc, err := rules.Load(payload, operationID+".json")
	if err != nil {
		return rules.Document{}, false, err
	}
	return doc, true, nil
}

// Operations lists the operation ids of the document in sorted order.
func Operations(ctx context.Context, data []byte) ([]string, error) {
	spec, err := parse(ctx, data)
	if err != nil {
		return nil, err
	}
	var ids []string
	for path, item := range spec.Paths.Map() {
		for method, op := range item.Operations() {
			ids = append(ids, operationKey(method, path, op))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func parse(ctx context.Context, data []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("schema: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("schema: validate: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("schema: document does not contain any paths")
	}
	return spec, nil
}

func operation(ctx context.Context, data []byte, operationID string) (*openapi3.Operation, error) {
	spec, err := parse(ctx, data)
	if err != nil {
		return nil, err
	}
	for path, item := range spec.Paths.Map() {
		for method, op := range item.Operations() {
			if operationKey(method, path, op) == operationID {
				return op, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
}

// operationKey falls back to "<method>:<path>" for operations without an id.
func operationKey(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

type property struct {
	name   string
	schema *openapi3.Schema
	order  int
}

func orderedProperties(s *openapi3.Schema) []property {
	props := make([]property, 0, len(s.Properties))
	for name, ref := range s.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		order, ok := intExtension(ref.Value.Extensions, ExtOrder)
		if !ok {
			order = int(^uint(0) >> 1)
		}
		props = append(props, property{name: name, schema: ref.Value, order: order})
	}
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].order != props[j].order {
			return props[i].order < props[j].order
		}
		return props[i].name < props[j].name
	})
	return props
}

func objectFields(s *openapi3.Schema) ([]model.Field, error) {
	var fields []model.Field
	for _, prop := range orderedProperties(s) {
		if isType(prop.schema, openapi3.TypeObject) || isObjectArray(prop.schema) {
			log.Debug(log.CatSchema, "nested property skipped", "property", prop.name)
			continue
		}
		field, err := buildField(prop.name, prop.schema, contains(s.Required, prop.name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func inlineFieldset(name string, s *openapi3.Schema) (model.Fieldset, error) {
	fields, err := objectFields(s.Items.Value)
	if err != nil {
		return model.Fieldset{}, err
	}
	fs := model.Fieldset{
		Name:   name,
		Label:  s.Title,
		Inline: true,
		Fields: fields,
	}
	if rows, ok := intExtension(s.Extensions, ExtRows); ok {
		fs.InitialRows = rows
	} else {
		fs.InitialRows = int(s.MinItems)
	}
	if s.MaxItems != nil {
		fs.MaxRows = int(*s.MaxItems)
	}
	if prefix, ok := s.Extensions[ExtPrefix].(string); ok {
		fs.Prefix = prefix
	}
	return fs, nil
}

func buildField(name string, s *openapi3.Schema, required bool) (model.Field, error) {
	field := model.Field{
		Name:        name,
		Label:       s.Title,
		Required:    required,
		Description: s.Description,
		Kind:        model.FieldKindText,
	}

	valueSchema := s
	if isType(s, openapi3.TypeArray) && s.Items != nil && s.Items.Value != nil {
		field.Multiple = true
		valueSchema = s.Items.Value
	}

	var labels map[string]string
	if err := decodeExtension(s.Extensions, ExtLabels, &labels); err != nil {
		return model.Field{}, fmt.Errorf("schema: field %s: %w", name, err)
	}
	var attrs map[string]map[string]string
	if err := decodeExtension(s.Extensions, ExtAttrs, &attrs); err != nil {
		return model.Field{}, fmt.Errorf("schema: field %s: %w", name, err)
	}

	enum := valueSchema.Enum
	if len(enum) == 0 && isType(valueSchema, openapi3.TypeBoolean) {
		enum = []any{true, false}
	}
	for _, v := range enum {
		value := stringify(v)
		field.Options = append(field.Options, model.Option{
			Value: value,
			Label: firstNonEmpty(labels[value], value),
			Attrs: attrs[value],
		})
	}
	if len(field.Options) > 0 {
		field.Kind = model.FieldKindSelect
	}

	var endpoint model.Endpoint
	if err := decodeExtension(s.Extensions, ExtEndpoint, &endpoint); err != nil {
		return model.Field{}, fmt.Errorf("schema: field %s: %w", name, err)
	}
	if endpoint.URL != "" {
		field.Endpoint = &endpoint
		field.Kind = model.FieldKindAutocomplete
	}

	if widget, ok := s.Extensions[ExtWidget].(string); ok {
		kind := model.FieldKind(strings.ToLower(strings.TrimSpace(widget)))
		if !kind.Valid() {
			return model.Field{}, fmt.Errorf("schema: field %s: unknown %s %q", name, ExtWidget, widget)
		}
		field.Kind = kind
	}

	switch d := s.Default.(type) {
	case nil:
	case []any:
		for _, v := range d {
			field.Default = append(field.Default, stringify(v))
		}
	default:
		field.Default = []string{stringify(d)}
	}
	return field, nil
}

func isType(s *openapi3.Schema, typ string) bool {
	if s == nil || s.Type == nil {
		return false
	}
	return contains(s.Type.Slice(), typ)
}

func isObjectArray(s *openapi3.Schema) bool {
	return isType(s, openapi3.TypeArray) && s.Items != nil && isType(s.Items.Value, openapi3.TypeObject)
}

func decodeExtension(ext map[string]any, key string, out any) error {
	raw, ok := ext[key]
	if !ok || raw == nil {
		return nil
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func intExtension(ext map[string]any, key string) (int, bool) {
	switch v := ext[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func contains(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
