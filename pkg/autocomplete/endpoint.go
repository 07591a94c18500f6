package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-formsync/internal/log"
	"github.com/goliatone/go-formsync/pkg/model"
)

const (
	// DefaultCacheTTL bounds how long an endpoint response is reused for the
	// same data snapshot.
	DefaultCacheTTL        = 30 * time.Second
	defaultCleanupInterval = 5 * time.Minute
	defaultSearchParam     = "q"
)

// EndpointOption configures an EndpointSource.
type EndpointOption func(*EndpointSource)

// WithHTTPClient overrides the client used for lookups.
func WithHTTPClient(client *http.Client) EndpointOption {
	return func(s *EndpointSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithCacheTTL sets the response cache lifetime. Zero or negative disables
// caching.
func WithCacheTTL(ttl time.Duration) EndpointOption {
	return func(s *EndpointSource) {
		s.ttl = ttl
	}
}

// EndpointSource resolves options over HTTP. Widget data and the search term
// are sent as query parameters on top of the endpoint's static params, so a
// master value or an excluded-value list reaches the server on every lookup.
// It is safe for concurrent use.
type EndpointSource struct {
	endpoint model.Endpoint
	client   *http.Client
	ttl      time.Duration
	cache    *gocache.Cache
}

// NewEndpointSource validates the endpoint and builds a source for it.
func NewEndpointSource(endpoint model.Endpoint, opts ...EndpointOption) (*EndpointSource, error) {
	if strings.TrimSpace(endpoint.URL) == "" {
		return nil, errors.New("autocomplete: endpoint url is required")
	}
	if _, err := url.Parse(endpoint.URL); err != nil {
		return nil, fmt.Errorf("autocomplete: parse endpoint url: %w", err)
	}
	endpoint.Method = strings.ToUpper(strings.TrimSpace(endpoint.Method))
	if endpoint.Method == "" {
		endpoint.Method = http.MethodGet
	}
	if endpoint.SearchParam == "" {
		endpoint.SearchParam = defaultSearchParam
	}

	s := &EndpointSource{
		endpoint: endpoint,
		client:   http.DefaultClient,
		ttl:      DefaultCacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ttl > 0 {
		s.cache = gocache.New(s.ttl, defaultCleanupInterval)
	}
	return s, nil
}

// Options implements Source.
func (s *EndpointSource) Options(ctx context.Context, q Query) ([]model.Option, error) {
	params := s.params(q)
	key := cacheKeyFor(s.endpoint.Method, s.endpoint.URL, params)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if opts, ok := cached.([]model.Option); ok {
				log.Debug(log.CatWidget, "endpoint cache hit", "key", key)
				return opts, nil
			}
		}
	}

	opts, err := s.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, opts, gocache.DefaultExpiration)
	}
	return opts, nil
}

func (s *EndpointSource) params(q Query) map[string]string {
	params := make(map[string]string, len(s.endpoint.Params)+len(q.Data)+1)
	for k, v := range s.endpoint.Params {
		if strings.TrimSpace(v) != "" {
			params[k] = v
		}
	}
	for k, v := range q.Data {
		params[k] = v
	}
	if term := strings.TrimSpace(q.Term); term != "" {
		params[s.endpoint.SearchParam] = term
	}
	return params
}

func cacheKeyFor(method, rawURL string, params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return method + " " + rawURL + "?" + values.Encode()
}

func (s *EndpointSource) fetch(ctx context.Context, params map[string]string) ([]model.Option, error) {
	reqURL, err := url.Parse(s.endpoint.URL)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: parse url: %w", err)
	}
	values := reqURL.Query()
	for k, v := range params {
		values.Set(k, v)
	}

	var req *http.Request
	if s.endpoint.Method == http.MethodGet {
		reqURL.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, s.endpoint.Method, reqURL.String(), strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("autocomplete: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("autocomplete: unexpected status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("autocomplete: decode: %w", err)
	}

	valueField := s.endpoint.ValueField
	if valueField == "" {
		valueField = "id"
	}
	labelField := s.endpoint.LabelField
	if labelField == "" {
		labelField = "text"
	}

	var opts []model.Option
	for _, item := range extractResults(payload, s.endpoint.ResultsPath) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		val := pickValue(obj, valueField)
		if val == "" {
			continue
		}
		lbl := pickValue(obj, labelField)
		if lbl == "" {
			lbl = val
		}
		opts = append(opts, model.Option{Value: val, Label: lbl})
	}
	log.Debug(log.CatWidget, "endpoint lookup", "url", s.endpoint.URL, "results", len(opts))
	return opts, nil
}

func extractResults(payload any, path string) []any {
	cur := payload
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = node[segment]
		}
	}
	items, _ := cur.([]any)
	return items
}

func pickValue(m map[string]any, path string) string {
	cur := any(m)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	switch v := cur.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
