package aidbox

import (
	"context"
	"net/url"
	"sync"

	"github.com/tphakala/go-aidbox/internal/convert"
)

// fieldSet is the set of field names a resource type accepts.
type fieldSet map[string]struct{}

func (s fieldSet) contains(name string) bool {
	_, ok := s[name]
	return ok
}

// schemaCache memoizes per-type field sets for one client. Entries are
// never refreshed once stored; see Client.InvalidateSchema. Concurrent
// first-time fetches for the same type may race, in which case the last
// write wins; the stored sets are equivalent either way.
type schemaCache struct {
	mu    sync.RWMutex
	types map[string]fieldSet
}

func newSchemaCache() *schemaCache {
	return &schemaCache{
		types: make(map[string]fieldSet),
	}
}

func (c *schemaCache) get(resourceType string) (fieldSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.types[resourceType]
	return s, ok
}

func (c *schemaCache) put(resourceType string, s fieldSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[resourceType] = s
}

func (c *schemaCache) invalidate(resourceType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.types, resourceType)
}

// schemaFor returns the cached field set for a resource type, fetching it
// from the server on first use.
func (c *Client) schemaFor(ctx context.Context, resourceType string) (fieldSet, error) {
	if s, ok := c.schemas.get(resourceType); ok {
		return s, nil
	}

	s, err := c.fetchSchema(ctx, resourceType)
	if err != nil {
		return nil, err
	}

	c.schemas.put(resourceType, s)
	c.logger.Debug("schema fetched", "resource_type", resourceType, "fields", len(s))
	return s, nil
}

// fetchSchema queries the Attribute meta-resource for the type's field
// names. The field set is the local-convention form of the first path
// segment of each attribute, always including the synthetic id field.
func (c *Client) fetchSchema(ctx context.Context, resourceType string) (fieldSet, error) {
	res, err := c.fetch(ctx, "Attribute", url.Values{"entity": {resourceType}})
	if err != nil {
		return nil, err
	}

	b, err := decodeBundle(res)
	if err != nil {
		return nil, err
	}

	fields := fieldSet{"id": {}}
	for _, entry := range b.Entry {
		segments, ok := entry.Resource["path"].([]any)
		if !ok || len(segments) == 0 {
			continue
		}
		first, ok := segments[0].(string)
		if !ok || first == "" {
			continue
		}
		fields[convert.FieldName(first)] = struct{}{}
	}

	return fields, nil
}
