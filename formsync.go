// Package formsync builds admin forms whose autocomplete fields follow the
// values of other fields. It re-exports the common entry points of
// pkg/orchestrator for callers that just want HTML output.
package formsync

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formsync/pkg/orchestrator"
	"github.com/goliatone/go-formsync/pkg/renderers/html"
	"github.com/goliatone/go-formsync/pkg/rules"
	"github.com/goliatone/go-formsync/pkg/schema"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// Assignment aliases orchestrator.Assignment.
type Assignment = orchestrator.Assignment

// Result aliases orchestrator.Result.
type Result = orchestrator.Result

// EndpointOverride configures a remote lookup for a field whose schema has
// none.
type EndpointOverride = orchestrator.EndpointOverride

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewFetcher exposes the schema fetcher constructor.
func NewFetcher(options ...schema.FetchOption) *schema.Fetcher {
	return schema.NewFetcher(options...)
}

// GenerateHTML loads the OpenAPI source, builds the form for operationID,
// applies the operation's rules plus the named presets and renders the
// synchronised document as an HTML fragment.
func GenerateHTML(ctx context.Context, source schema.Source, operationID string, presets []string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, Request{
		Source:      source,
		OperationID: operationID,
		Presets:     presets,
	})
}

// GenerateHTMLFromSchema renders a form from raw OpenAPI bytes, bypassing the
// fetcher.
func GenerateHTMLFromSchema(ctx context.Context, data []byte, operationID string, presets []string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, Request{
		Schema:      data,
		OperationID: operationID,
		Presets:     presets,
	})
}

// WithEndpointOverrides registers endpoint overrides that can be passed to
// GenerateHTML alongside other orchestrator options.
func WithEndpointOverrides(overrides []EndpointOverride) orchestrator.Option {
	return orchestrator.WithEndpointOverrides(overrides)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// EmbeddedPresets exposes the bundled rule documents.
func EmbeddedPresets() fs.FS {
	return rules.PresetsFS()
}
