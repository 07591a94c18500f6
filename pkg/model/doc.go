// Package model defines the static form definitions a live document is built
// from: fieldsets (plain or inline), fields and their options. Option facets
// (Attrs) and remote endpoints describe how an autocomplete widget narrows its
// choices; the live state (selected values, widget data) lives in pkg/form.
package model
