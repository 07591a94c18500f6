package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-formsync/internal/log"
)

// Source identifies where an OpenAPI document comes from.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the fetch strategies.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS returns a Source naming an entry of the fetcher's fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceFromURL validates raw and returns a Source for it.
func SourceFromURL(raw string) (Source, error) {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	return source{kind: SourceKindURL, location: raw}, nil
}

// ParseSource picks a URL source for http(s) locations and a file source
// otherwise.
func ParseSource(location string) (Source, error) {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return SourceFromURL(location)
	}
	if location == "" {
		return nil, errors.New("schema: empty source location")
	}
	return SourceFromFile(location), nil
}

// Fetcher reads raw documents from files, an fs.FS or HTTP.
type Fetcher struct {
	fs      fs.FS
	client  *http.Client
	timeout time.Duration
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithFileSystem enables SourceKindFS lookups.
func WithFileSystem(files fs.FS) FetchOption {
	return func(f *Fetcher) { f.fs = files }
}

// WithHTTPClient enables SourceKindURL lookups with client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *Fetcher) { f.client = client }
}

// WithTimeout caps HTTP fetches.
func WithTimeout(timeout time.Duration) FetchOption {
	return func(f *Fetcher) { f.timeout = timeout }
}

// NewFetcher builds a Fetcher. HTTP is disabled unless a client is supplied.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch returns the raw bytes behind src.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("schema: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug(log.CatSchema, "fetch", "kind", src.Kind(), "location", src.Location())

	switch src.Kind() {
	case SourceKindFile:
		return os.ReadFile(src.Location())
	case SourceKindFS:
		if f.fs == nil {
			return nil, errors.New("schema: filesystem is not configured")
		}
		return fs.ReadFile(f.fs, src.Location())
	case SourceKindURL:
		if f.client == nil {
			return nil, errors.New("schema: http support disabled")
		}
		return f.fetchHTTP(ctx, src.Location())
	default:
		return nil, fmt.Errorf("schema: unsupported source kind %q", src.Kind())
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schema: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
