package autocomplete

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/model"
)

func fieldOptions() []model.Option {
	return []model.Option{
		{Value: "1", Label: "src_ip", Attrs: map[string]string{"bottle": "7"}},
		{Value: "2", Label: "dst_ip", Attrs: map[string]string{"bottle": "7"}},
		{Value: "3", Label: "subject", Attrs: map[string]string{"bottle": "9"}},
		{Value: "4", Label: "<b>shared</b>"},
	}
}

func values(opts []model.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

func TestStaticSource_Filters(t *testing.T) {
	src := NewStaticSource(fieldOptions())
	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{name: "no data", q: Query{}, want: []string{"1", "2", "3", "4"}},
		{name: "facet", q: Query{Data: Data{"bottle": "7"}}, want: []string{"1", "2", "4"}},
		{name: "empty facet ignored", q: Query{Data: Data{"bottle": ""}}, want: []string{"1", "2", "3", "4"}},
		{name: "exclusion list", q: Query{Data: Data{"bottle": "7", ListKey("field_name"): `["1"]`}}, want: []string{"2", "4"}},
		{name: "term through markup", q: Query{Term: "SHA"}, want: []string{"4"}},
		{name: "list facet", q: Query{Data: Data{"bottle": `["7","9"]`}}, want: []string{"1", "2", "3", "4"}},
		{name: "single entry list facet", q: Query{Data: Data{"bottle": `["9"]`}}, want: []string{"3", "4"}},
		{name: "malformed list ignored", q: Query{Data: Data{"field_name_list": "nope"}}, want: []string{"1", "2", "3", "4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := src.Options(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("options: %v", err)
			}
			if diff := cmp.Diff(tc.want, values(got)); diff != "" {
				t.Fatalf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWidget_SetOverwritesAndSuggestSeesWrites(t *testing.T) {
	w := NewWidget("bottlefield_set-0-field_name", NewStaticSource(fieldOptions()))
	if w.ID() == "" {
		t.Fatal("expected widget id")
	}

	w.Set("bottle", "9")
	w.Set("bottle", "7")
	if got, _ := w.Get("bottle"); got != "7" {
		t.Fatalf("bottle = %q, want 7", got)
	}

	opts, err := w.Suggest(context.Background(), "")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "4"}, values(opts)); diff != "" {
		t.Fatalf("suggest mismatch (-want +got):\n%s", diff)
	}

	snap := w.Data()
	snap["bottle"] = "mutated"
	if got, _ := w.Get("bottle"); got != "7" {
		t.Fatal("snapshot must not alias widget data")
	}
}

func TestWidget_SuggestWithoutSource(t *testing.T) {
	w := NewWidget("x", nil)
	if _, err := w.Suggest(context.Background(), ""); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestEncodeAndDecodeList(t *testing.T) {
	if got := EncodeList(nil); got != "[]" {
		t.Fatalf("EncodeList(nil) = %q", got)
	}
	d := Data{"k": EncodeList([]string{"A", "B"})}
	if diff := cmp.Diff([]string{"A", "B"}, d.List("k")); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestEndpointSource_SendsDataAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		if q.Get("bottle") != "7" || q.Get("kind") != "field" || q.Get("term") != "ip" {
			http.Error(w, "bad query: "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"results": []any{
					map[string]any{"pk": 1, "name": "src_ip"},
					map[string]any{"pk": 2},
					map[string]any{"name": "no id"},
				},
			},
		})
	}))
	defer srv.Close()

	src, err := NewEndpointSource(model.Endpoint{
		URL:         srv.URL,
		ValueField:  "pk",
		LabelField:  "name",
		ResultsPath: "data.results",
		SearchParam: "term",
		Params:      map[string]string{"kind": "field"},
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	q := Query{Term: "ip", Data: Data{"bottle": "7"}}
	for i := 0; i < 2; i++ {
		got, err := src.Options(context.Background(), q)
		if err != nil {
			t.Fatalf("options: %v", err)
		}
		want := []model.Option{{Value: "1", Label: "src_ip"}, {Value: "2", Label: "2"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("options mismatch (-want +got):\n%s", diff)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single request, got %d", hits.Load())
	}

	if _, err := src.Options(context.Background(), Query{Term: "ip", Data: Data{"bottle": "8"}}); err == nil {
		t.Fatal("expected error for a changed data snapshot rejected by the server")
	}
	if hits.Load() != 2 {
		t.Fatalf("changed data must bypass the cache, hits = %d", hits.Load())
	}
}

func TestCacheKeyFor_EscapesParams(t *testing.T) {
	joined := cacheKeyFor("GET", "https://example.test/fields", map[string]string{"bottle": "7;field_name_list=[]"})
	split := cacheKeyFor("GET", "https://example.test/fields", map[string]string{"bottle": "7", "field_name_list": "[]"})
	if joined == split {
		t.Fatalf("distinct params share cache key %q", joined)
	}
	reordered := cacheKeyFor("GET", "https://example.test/fields", map[string]string{"field_name_list": "[]", "bottle": "7"})
	if split != reordered {
		t.Fatalf("key depends on map order: %q vs %q", split, reordered)
	}
	if post := cacheKeyFor("POST", "https://example.test/fields", map[string]string{"bottle": "7", "field_name_list": "[]"}); post == split {
		t.Fatal("method not part of cache key")
	}
}

func TestNewEndpointSource_RequiresURL(t *testing.T) {
	if _, err := NewEndpointSource(model.Endpoint{}); err == nil {
		t.Fatal("expected error")
	}
}
