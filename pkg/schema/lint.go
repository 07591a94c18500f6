package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/rules"
)

const extensionNamespace = "x-formsync"

// Violation is one unsupported or malformed x-formsync extension.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	return v.Location + " -> " + v.Message
}

var (
	operationExtensions = []string{ExtRules}
	schemaExtensions    = []string{ExtWidget, ExtEndpoint, ExtLabels, ExtAttrs, ExtOrder, ExtRows, ExtPrefix}
)

// Lint reports every x-formsync extension on an operation or its request
// body schema that is unknown or cannot be decoded. Violations are sorted by
// location.
func Lint(ctx context.Context, data []byte) ([]Violation, error) {
	spec, err := parse(ctx, data)
	if err != nil {
		return nil, err
	}

	l := &linter{}
	for path, item := range spec.Paths.Map() {
		for method, op := range item.Operations() {
			base := []string{"operation", operationKey(method, path, op)}
			l.extensions(base, op.Extensions, operationExtensions, nil)
			if body := requestSchema(op.RequestBody); body != nil {
				l.schema(appendPath(base, "requestBody"), body, map[*openapi3.Schema]bool{})
			}
		}
	}

	sort.Slice(l.violations, func(i, j int) bool {
		if l.violations[i].Location == l.violations[j].Location {
			return l.violations[i].Message < l.violations[j].Message
		}
		return l.violations[i].Location < l.violations[j].Location
	})
	return l.violations, nil
}

type linter struct {
	violations []Violation
}

func (l *linter) report(path []string, format string, args ...any) {
	l.violations = append(l.violations, Violation{
		Location: strings.Join(path, " > "),
		Message:  fmt.Sprintf(format, args...),
	})
}

// schema walks properties and items. seen holds the schemas on the current
// branch so recursive $refs terminate.
func (l *linter) schema(path []string, s *openapi3.Schema, seen map[*openapi3.Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	defer delete(seen, s)

	l.extensions(path, s.Extensions, schemaExtensions, s)

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ref := s.Properties[name]; ref != nil {
			l.schema(appendPath(path, "properties."+name), ref.Value, seen)
		}
	}
	if s.Items != nil {
		l.schema(appendPath(path, "items"), s.Items.Value, seen)
	}
}

func (l *linter) extensions(path []string, ext map[string]any, allowed []string, owner *openapi3.Schema) {
	keys := make([]string, 0, len(ext))
	for key := range ext {
		if strings.HasPrefix(key, extensionNamespace) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !contains(allowed, key) {
			l.report(path, "unsupported extension %q here (supported: %s)", key, strings.Join(allowed, ", "))
			continue
		}
		if msg := checkExtension(key, ext, owner); msg != "" {
			l.report(appendPath(path, key), "%s", msg)
		}
	}
}

func checkExtension(key string, ext map[string]any, owner *openapi3.Schema) string {
	switch key {
	case ExtWidget:
		widget, ok := ext[key].(string)
		if !ok {
			return fmt.Sprintf("must be a string (got %T)", ext[key])
		}
		if !model.FieldKind(strings.ToLower(strings.TrimSpace(widget))).Valid() {
			return fmt.Sprintf("unknown widget %q", widget)
		}
	case ExtEndpoint:
		var endpoint model.Endpoint
		if err := decodeExtension(ext, key, &endpoint); err != nil {
			return err.Error()
		}
		if strings.TrimSpace(endpoint.URL) == "" {
			return "endpoint url is required"
		}
	case ExtLabels:
		var labels map[string]string
		if err := decodeExtension(ext, key, &labels); err != nil {
			return err.Error()
		}
	case ExtAttrs:
		var attrs map[string]map[string]string
		if err := decodeExtension(ext, key, &attrs); err != nil {
			return err.Error()
		}
	case ExtOrder:
		if _, ok := intExtension(ext, key); !ok {
			return fmt.Sprintf("must be an integer (got %T)", ext[key])
		}
	case ExtRows:
		n, ok := intExtension(ext, key)
		if !ok || n < 0 {
			return "must be a non-negative integer"
		}
		if !isObjectArray(owner) {
			return "only applies to arrays of objects"
		}
	case ExtPrefix:
		if prefix, ok := ext[key].(string); !ok || strings.TrimSpace(prefix) == "" {
			return "must be a non-empty string"
		}
		if !isObjectArray(owner) {
			return "only applies to arrays of objects"
		}
	case ExtRules:
		payload, err := json.Marshal(ext[key])
		if err != nil {
			return err.Error()
		}
		if _, err := rules.Load(payload, "inline.json"); err != nil {
			return err.Error()
		}
	}
	return ""
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}
