package aidbox

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Params holds search parameter overrides. Values are rendered to their
// string form when applied.
type Params map[string]any

// SearchSet is an immutable, lazily-evaluated query description over one
// resource type. Every mutator returns a new SearchSet, so a base query
// can be shared and derived from safely; no network call happens until
// Execute, Count, First, Get or All.
type SearchSet struct {
	client       *Client
	resourceType string
	params       map[string]string
}

func newSearchSet(client *Client, resourceType string) *SearchSet {
	return &SearchSet{
		client:       client,
		resourceType: resourceType,
		params:       map[string]string{},
	}
}

// Clone copies the current parameters, applies overrides and returns a new
// SearchSet. The receiver is never mutated.
func (s *SearchSet) Clone(overrides Params) *SearchSet {
	params := make(map[string]string, len(s.params)+len(overrides))
	maps.Copy(params, s.params)
	for k, v := range overrides {
		params[k] = paramValue(v)
	}
	return &SearchSet{
		client:       s.client,
		resourceType: s.resourceType,
		params:       params,
	}
}

// Search adds filter parameters; it is an alias for Clone.
func (s *SearchSet) Search(filters Params) *SearchSet {
	return s.Clone(filters)
}

// Limit caps the number of returned records (_count).
func (s *SearchSet) Limit(n int) *SearchSet {
	return s.Clone(Params{"_count": n})
}

// Page selects a result page (_page).
func (s *SearchSet) Page(n int) *SearchSet {
	return s.Clone(Params{"_page": n})
}

// Sort sets the server-side sort order (_sort) from one or more keys.
func (s *SearchSet) Sort(keys ...string) *SearchSet {
	return s.Clone(Params{"_sort": strings.Join(keys, ",")})
}

// Execute issues the search and materializes matching records as trusted
// resources. Records whose declared type does not match the target type
// are dropped; server order is preserved.
func (s *SearchSet) Execute(ctx context.Context, opts ...RequestOption) ([]*Resource, error) {
	res, err := s.client.fetch(ctx, s.resourceType, s.query(), opts...)
	if err != nil {
		return nil, err
	}

	b, err := decodeBundle(res)
	if err != nil {
		return nil, err
	}

	results := make([]*Resource, 0, len(b.Entry))
	for _, entry := range b.Entry {
		if declared, _ := entry.Resource["resource_type"].(string); declared != s.resourceType {
			continue
		}
		resource, err := newResource(ctx, s.client, s.resourceType, entry.Resource, modeTrusted)
		if err != nil {
			return nil, err
		}
		results = append(results, resource)
	}

	return results, nil
}

// Count issues a dedicated count-mode request and returns the
// server-reported total. It never derives the total from Execute.
func (s *SearchSet) Count(ctx context.Context, opts ...RequestOption) (int, error) {
	counted := s.Clone(Params{"_count": 1, "_totalMethod": "count"})

	res, err := s.client.fetch(ctx, s.resourceType, counted.query(), opts...)
	if err != nil {
		return 0, err
	}

	b, err := decodeBundle(res)
	if err != nil {
		return 0, err
	}
	if b.Total == nil {
		return 0, fmt.Errorf("aidbox: search response has no total")
	}
	return *b.Total, nil
}

// First executes the query limited to one record and returns it, or nil
// when the result is empty.
func (s *SearchSet) First(ctx context.Context, opts ...RequestOption) (*Resource, error) {
	results, err := s.Limit(1).Execute(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Get fetches a single resource by id. Unlike First it fails with
// *NotFoundError when no record comes back.
func (s *SearchSet) Get(ctx context.Context, id string, opts ...RequestOption) (*Resource, error) {
	resource, err := s.Search(Params{"_id": id}).First(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, &NotFoundError{
			APIError:     APIError{StatusCode: http.StatusNotFound},
			ResourceType: s.resourceType,
			ResourceID:   id,
		}
	}
	return resource, nil
}

// All returns an iterator over the query results. Each range over the
// returned sequence re-executes the query; results are never cached across
// iterations.
func (s *SearchSet) All(ctx context.Context, opts ...RequestOption) iter.Seq2[*Resource, error] {
	return func(yield func(*Resource, error) bool) {
		results, err := s.Execute(ctx, opts...)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, resource := range results {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(resource, nil) {
				return
			}
		}
	}
}

// Last has no defined server-side semantics yet.
func (s *SearchSet) Last(_ context.Context) (*Resource, error) {
	return nil, fmt.Errorf("last: %w", ErrNotSupported)
}

// Include has no defined behavior yet; resource graph inclusion is
// unsupported.
func (s *SearchSet) Include(_, _ string) (*SearchSet, error) {
	return nil, fmt.Errorf("include: %w", ErrNotSupported)
}

// Revinclude has no defined behavior yet; reverse inclusion is
// unsupported.
func (s *SearchSet) Revinclude(_, _ string) (*SearchSet, error) {
	return nil, fmt.Errorf("revinclude: %w", ErrNotSupported)
}

func (s *SearchSet) String() string {
	return fmt.Sprintf("<SearchSet %s?%s>", s.resourceType, s.query().Encode())
}

func (s *SearchSet) query() url.Values {
	q := make(url.Values, len(s.params))
	for k, v := range s.params {
		q.Set(k, v)
	}
	return q
}

func paramValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// bundle is the server's result envelope.
type bundle struct {
	Entry []bundleEntry `mapstructure:"entry"`
	Total *int          `mapstructure:"total"`
}

type bundleEntry struct {
	Resource map[string]any `mapstructure:"resource"`
}

func decodeBundle(v any) (*bundle, error) {
	var b bundle
	if err := mapstructure.Decode(v, &b); err != nil {
		return nil, fmt.Errorf("decoding bundle: %w", err)
	}
	return &b, nil
}
