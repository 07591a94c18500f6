package orchestrator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formsync/pkg/model"
)

// EndpointOverride supplies a remote lookup for a field whose schema omits
// the x-formsync-endpoint extension. FieldPath is "<fieldset>.<field>" or a
// bare field name, which matches the first field with that name.
type EndpointOverride struct {
	OperationID string
	FieldPath   string
	Endpoint    model.Endpoint
}

// WithEndpointOverrides registers endpoint overrides that run after the
// definition is loaded. Overrides are scoped per operation and only applied
// when the target field has no endpoint. The field becomes an autocomplete.
func WithEndpointOverrides(overrides []EndpointOverride) Option {
	cloned := cloneEndpointOverrides(overrides)
	return func(o *Orchestrator) {
		if len(cloned) == 0 || o == nil {
			return
		}
		if o.endpointOverrides == nil {
			o.endpointOverrides = make(map[string][]EndpointOverride)
		}
		for _, override := range cloned {
			if err := validateEndpointOverride(override); err != nil {
				o.initialiseErr = appendInitialiseError(o.initialiseErr, err)
				continue
			}
			o.endpointOverrides[override.OperationID] = append(o.endpointOverrides[override.OperationID], override)
		}
	}
}

func cloneEndpointOverrides(overrides []EndpointOverride) []EndpointOverride {
	if len(overrides) == 0 {
		return nil
	}
	cloned := make([]EndpointOverride, 0, len(overrides))
	for _, override := range overrides {
		copied := override
		copied.Endpoint.Params = cloneStringMap(override.Endpoint.Params)
		cloned = append(cloned, copied)
	}
	return cloned
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

// ErrInvalidOverride is wrapped by every rejected EndpointOverride.
var ErrInvalidOverride = errors.New("orchestrator: invalid endpoint override")

func validateEndpointOverride(override EndpointOverride) error {
	if strings.TrimSpace(override.OperationID) == "" {
		return fmt.Errorf("%w: missing operation id", ErrInvalidOverride)
	}
	if strings.TrimSpace(override.FieldPath) == "" {
		return fmt.Errorf("%w: %q missing field path", ErrInvalidOverride, override.OperationID)
	}
	if strings.TrimSpace(override.Endpoint.URL) == "" {
		return fmt.Errorf("%w: %q for %s missing endpoint url", ErrInvalidOverride, override.OperationID, override.FieldPath)
	}
	return nil
}

func (o *Orchestrator) applyEndpointOverrides(operationID string, def *model.Form) {
	if def == nil || len(o.endpointOverrides) == 0 {
		return
	}
	for _, override := range o.endpointOverrides[operationID] {
		target := findField(def, override.FieldPath)
		if target == nil || target.Endpoint != nil {
			continue
		}
		endpoint := override.Endpoint
		endpoint.Method = strings.ToUpper(strings.TrimSpace(endpoint.Method))
		endpoint.Params = cloneStringMap(endpoint.Params)
		target.Endpoint = &endpoint
		target.Kind = model.FieldKindAutocomplete
	}
}

// findField resolves "<fieldset>.<field>" or a bare field name.
func findField(def *model.Form, path string) *model.Field {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	fieldset, name, scoped := strings.Cut(path, ".")
	if !scoped {
		name, fieldset = fieldset, ""
	}
	for i := range def.Fieldsets {
		fs := &def.Fieldsets[i]
		if scoped && fs.Name != fieldset {
			continue
		}
		for j := range fs.Fields {
			if fs.Fields[j].Name == name {
				return &fs.Fields[j]
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
