package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-formsync/pkg/autocomplete"
	"github.com/goliatone/go-formsync/pkg/form"
	"github.com/goliatone/go-formsync/pkg/model"
	"github.com/goliatone/go-formsync/pkg/orchestrator"
	"github.com/goliatone/go-formsync/pkg/rules"
	"github.com/goliatone/go-formsync/pkg/schema"
)

// buildOptions are the per-invocation inputs shared by render and fill.
type buildOptions struct {
	rows   map[string]int
	values []string
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (a *app) newOrchestrator() *orchestrator.Orchestrator {
	client := httpClient(a.cfg.Endpoint.Timeout)
	ttl := a.cfg.Endpoint.CacheTTL

	sources := func(field model.Field) (autocomplete.Source, error) {
		if field.Endpoint != nil {
			return autocomplete.NewEndpointSource(*field.Endpoint,
				autocomplete.WithHTTPClient(client),
				autocomplete.WithCacheTTL(ttl),
			)
		}
		return autocomplete.NewStaticSource(field.Options), nil
	}

	return orchestrator.New(
		orchestrator.WithFetcher(schema.NewFetcher(
			schema.WithHTTPClient(client),
			schema.WithTimeout(a.cfg.Endpoint.Timeout),
		)),
		orchestrator.WithDocumentOptions(form.WithSourceFactory(sources)),
	)
}

func (a *app) request(opts buildOptions) (orchestrator.Request, error) {
	if strings.TrimSpace(a.cfg.Schema) == "" {
		return orchestrator.Request{}, errors.New("no schema given: pass --schema or set schema in the config file")
	}
	if strings.TrimSpace(a.cfg.Operation) == "" {
		return orchestrator.Request{}, errors.New("no operation given: pass --operation or set operation in the config file")
	}
	src, err := schema.ParseSource(a.cfg.Schema)
	if err != nil {
		return orchestrator.Request{}, err
	}
	docs, err := loadRuleFiles(a.cfg.Rules)
	if err != nil {
		return orchestrator.Request{}, err
	}
	changes, err := parseAssignments(opts.values)
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{
		Source:      src,
		OperationID: a.cfg.Operation,
		Rules:       docs,
		Presets:     a.cfg.Presets,
		Rows:        opts.rows,
		Changes:     changes,
	}, nil
}

// watchedPaths lists the local files a render depends on.
func (a *app) watchedPaths() []string {
	var paths []string
	if src, err := schema.ParseSource(a.cfg.Schema); err == nil && src.Kind() == schema.SourceKindFile {
		paths = append(paths, src.Location())
	}
	return append(paths, a.cfg.Rules...)
}

func loadRuleFiles(paths []string) ([]rules.Document, error) {
	docs := make([]rules.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rules: %w", err)
		}
		doc, err := rules.Load(data, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// parseAssignments turns name=value flags into changes, kept in flag order.
// Consecutive flags for the same name append to one change, which fills
// multiple-value controls; a name repeated later starts a new change.
func parseAssignments(raw []string) ([]orchestrator.Assignment, error) {
	var out []orchestrator.Assignment
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", item)
		}
		if n := len(out); n > 0 && out[n-1].Name == name {
			out[n-1].Values = append(out[n-1].Values, value)
			continue
		}
		out = append(out, orchestrator.Assignment{Name: name, Values: []string{value}})
	}
	return out, nil
}
