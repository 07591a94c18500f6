package model

import (
	"errors"
	"fmt"
	"strings"
)

// FieldKind enumerates the control kinds a document knows how to hold.
type FieldKind string

const (
	FieldKindSelect       FieldKind = "select"
	FieldKindAutocomplete FieldKind = "autocomplete"
	FieldKindText         FieldKind = "text"
)

// Valid reports whether the kind is one of the known constants.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldKindSelect, FieldKindAutocomplete, FieldKindText:
		return true
	default:
		return false
	}
}

// Option is a selectable choice. Attrs carries facets (for example the id of
// the bottle a field belongs to) that filtering option sources match against
// widget data. Labels may contain markup; callers that compare label text go
// through pkg/text first.
type Option struct {
	Value string            `json:"value" yaml:"value"`
	Label string            `json:"label" yaml:"label"`
	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Endpoint describes a remote option lookup. It mirrors the
// relationship.endpoint.* metadata used by relationship fields: widget data
// is appended to Params as query parameters on every lookup.
type Endpoint struct {
	URL         string            `json:"url" yaml:"url"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	ValueField  string            `json:"valueField,omitempty" yaml:"valueField,omitempty"`
	LabelField  string            `json:"labelField,omitempty" yaml:"labelField,omitempty"`
	ResultsPath string            `json:"resultsPath,omitempty" yaml:"resultsPath,omitempty"`
	SearchParam string            `json:"searchParam,omitempty" yaml:"searchParam,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Field models one input inside a fieldset. For inline fieldsets it is the
// template every row instantiates.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        FieldKind `json:"kind" yaml:"kind"`
	Multiple    bool      `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Endpoint    *Endpoint `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Default     []string  `json:"default,omitempty" yaml:"default,omitempty"`
}

// Fieldset groups fields. Inline fieldsets repeat their fields once per row
// and prefix control names with "<Prefix>-<index>-".
type Fieldset struct {
	Name        string  `json:"name" yaml:"name"`
	Label       string  `json:"label,omitempty" yaml:"label,omitempty"`
	Inline      bool    `json:"inline,omitempty" yaml:"inline,omitempty"`
	Prefix      string  `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
	InitialRows int     `json:"initialRows,omitempty" yaml:"initialRows,omitempty"`
	MaxRows     int     `json:"maxRows,omitempty" yaml:"maxRows,omitempty"`
}

// RowPrefix returns the name prefix used by inline rows. It defaults to the
// fieldset name.
func (fs Fieldset) RowPrefix() string {
	if prefix := strings.TrimSpace(fs.Prefix); prefix != "" {
		return prefix
	}
	return fs.Name
}

// Form is the top-level definition a live document is built from.
type Form struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Fieldsets []Fieldset `json:"fieldsets" yaml:"fieldsets"`
}

// Fieldset looks up a fieldset definition by name.
func (f Form) Fieldset(name string) (Fieldset, bool) {
	for _, fs := range f.Fieldsets {
		if fs.Name == name {
			return fs, true
		}
	}
	return Fieldset{}, false
}

// Validate checks structural constraints. All problems are reported together.
func (f Form) Validate() error {
	var errs []error
	if len(f.Fieldsets) == 0 {
		errs = append(errs, errors.New("model: form has no fieldsets"))
	}

	seenSets := make(map[string]struct{}, len(f.Fieldsets))
	for _, fs := range f.Fieldsets {
		name := strings.TrimSpace(fs.Name)
		if name == "" {
			errs = append(errs, errors.New("model: fieldset with empty name"))
			continue
		}
		if _, dup := seenSets[name]; dup {
			errs = append(errs, fmt.Errorf("model: duplicate fieldset %q", name))
		}
		seenSets[name] = struct{}{}

		if fs.MaxRows > 0 && fs.InitialRows > fs.MaxRows {
			errs = append(errs, fmt.Errorf("model: fieldset %q starts with %d rows but allows %d", name, fs.InitialRows, fs.MaxRows))
		}

		seenFields := make(map[string]struct{}, len(fs.Fields))
		for _, field := range fs.Fields {
			if strings.TrimSpace(field.Name) == "" {
				errs = append(errs, fmt.Errorf("model: fieldset %q has a field with empty name", name))
				continue
			}
			if _, dup := seenFields[field.Name]; dup {
				errs = append(errs, fmt.Errorf("model: fieldset %q repeats field %q", name, field.Name))
			}
			seenFields[field.Name] = struct{}{}
			if !field.Kind.Valid() {
				errs = append(errs, fmt.Errorf("model: field %q has unknown kind %q", field.Name, field.Kind))
			}
		}
	}
	return errors.Join(errs...)
}
