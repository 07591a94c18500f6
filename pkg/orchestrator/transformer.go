package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsync/pkg/model"
)

// Transformer mutates a form definition before decorators run.
type Transformer interface {
	Transform(ctx context.Context, form *model.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PatchTransformer applies declarative overrides loaded from a JSON or YAML
// document. Field keys use the same paths as EndpointOverride:
//
//	title: Bottle
//	fields:
//	  main.bottle:
//	    label: Bottle
//	  bottlefield_set.field_name:
//	    required: true
//	    default: ["1"]
type PatchTransformer struct {
	document patchDocument
}

type patchDocument struct {
	Title  string                `yaml:"title"`
	Fields map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Label       string   `yaml:"label"`
	Description string   `yaml:"description"`
	Required    *bool    `yaml:"required"`
	Multiple    *bool    `yaml:"multiple"`
	Default     []string `yaml:"default"`
	Rename      string   `yaml:"rename"`
}

// NewPatchTransformer constructs a transformer from raw bytes. JSON input is
// accepted since it is valid YAML.
func NewPatchTransformer(data []byte) (*PatchTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("patch transformer: document is empty")
	}
	var document patchDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("patch transformer: parse document: %w", err)
	}
	return &PatchTransformer{document: document}, nil
}

// NewPatchTransformerFromFS loads a patch document from fsys.
func NewPatchTransformerFromFS(fsys fs.FS, path string) (*PatchTransformer, error) {
	if fsys == nil {
		return nil, errors.New("patch transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("patch transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("patch transformer: read %s: %w", path, err)
	}
	return NewPatchTransformer(data)
}

// Transform applies the declarative patches onto the supplied form.
func (t *PatchTransformer) Transform(ctx context.Context, form *model.Form) error {
	if form == nil {
		return errors.New("patch transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.document.Title != "" {
		form.Title = t.document.Title
	}
	for _, path := range sortedKeys(t.document.Fields) {
		field := findField(form, path)
		if field == nil {
			return fmt.Errorf("patch transformer: field %q not found", path)
		}
		applyFieldPatch(field, t.document.Fields[path])
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Description != "" {
		field.Description = patch.Description
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Multiple != nil {
		field.Multiple = *patch.Multiple
	}
	if len(patch.Default) > 0 {
		field.Default = append([]string(nil), patch.Default...)
	}
	if name := strings.TrimSpace(patch.Rename); name != "" {
		field.Name = name
	}
}
