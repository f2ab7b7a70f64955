package aidbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
)

// constructionMode controls how unknown fields are handled when a
// resource is built.
type constructionMode int

const (
	// modeValidated rejects any field outside the type's schema. Used for
	// client-side construction.
	modeValidated constructionMode = iota

	// modeTrusted silently drops fields outside the schema. Used for
	// records materialized from server responses, which may echo system
	// fields the schema does not list.
	modeTrusted
)

// Resource is a schema-bound record representing one remote entity. Field
// access is validated against the resource type's schema, which is fetched
// from the server the first time the type is seen by the client.
//
// A Resource is not safe for concurrent mutation.
type Resource struct {
	client       *Client
	resourceType string
	schema       fieldSet
	fields       map[string]any
	meta         map[string]any
}

func newResource(ctx context.Context, client *Client, resourceType string, fields map[string]any, mode constructionMode) (*Resource, error) {
	schema, err := client.schemaFor(ctx, resourceType)
	if err != nil {
		return nil, err
	}

	r := &Resource{
		client:       client,
		resourceType: resourceType,
		schema:       schema,
		fields:       make(map[string]any, len(fields)),
		meta:         map[string]any{},
	}

	if meta, ok := fields["meta"].(map[string]any); ok {
		r.meta = meta
	}

	for name, value := range fields {
		if name == "meta" || name == "resource_type" {
			continue
		}
		if err := r.SetField(name, value); err != nil {
			var fieldErr *FieldError
			if mode == modeTrusted && errors.As(err, &fieldErr) {
				continue
			}
			return nil, err
		}
	}

	return r, nil
}

// Type returns the resource type.
func (r *Resource) Type() string {
	return r.resourceType
}

// ID returns the resource id, or "" for a resource that has never been
// saved.
func (r *Resource) ID() string {
	id, _ := r.fields["id"].(string)
	return id
}

// SetField stores a field value after validating the name against the
// type's schema. An unknown name fails with *FieldError.
func (r *Resource) SetField(name string, value any) error {
	if !r.schema.contains(name) {
		return &FieldError{ResourceType: r.resourceType, Field: name}
	}
	r.fields[name] = value
	return nil
}

// GetField returns the stored value for a schema field, or nil if it was
// never set. An unknown name fails with *FieldError.
func (r *Resource) GetField(name string) (any, error) {
	if !r.schema.contains(name) {
		return nil, &FieldError{ResourceType: r.resourceType, Field: name}
	}
	return r.fields[name], nil
}

// Meta returns the server-managed metadata blob. It is not subject to
// schema validation.
func (r *Resource) Meta() map[string]any {
	return r.meta
}

// SetMeta replaces the metadata blob.
func (r *Resource) SetMeta(meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	r.meta = meta
}

// Path returns "{type}/{id}" for a saved resource and "{type}" for one
// without an id, which is also what routes Save between update and create.
func (r *Resource) Path() string {
	if id := r.ID(); id != "" {
		return r.resourceType + "/" + id
	}
	return r.resourceType
}

// Save persists the resource: an update (PUT) when the id is set, a create
// (POST) otherwise. On success the local id and meta are overwritten from
// the server response.
func (r *Resource) Save(ctx context.Context, opts ...RequestOption) error {
	method := http.MethodPost
	if r.ID() != "" {
		method = http.MethodPut
	}

	res, err := r.client.do(ctx, method, r.Path(), r.Serialize(), nil, opts...)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	var saved struct {
		ID   string         `mapstructure:"id"`
		Meta map[string]any `mapstructure:"meta"`
	}
	if err := mapstructure.Decode(res, &saved); err != nil {
		return fmt.Errorf("decoding save response: %w", err)
	}

	r.SetMeta(saved.Meta)
	if saved.ID != "" {
		r.fields["id"] = saved.ID
	}
	return nil
}

// Delete removes the remote resource and returns the raw server response.
// The local id and fields are retained: the object does not become empty,
// and a subsequent Save would recreate the resource at the same path.
func (r *Resource) Delete(ctx context.Context, opts ...RequestOption) (any, error) {
	return r.client.do(ctx, http.MethodDelete, r.Path(), nil, nil, opts...)
}

// ToReference produces a reference carrying this resource's type and id.
func (r *Resource) ToReference(opts ...ReferenceOption) *Reference {
	return newReference(r.resourceType, r.ID(), opts...)
}

// Serialize deep-converts the field map into a plain nested structure.
// Embedded *Resource values collapse into their reference form rather than
// being inlined, so a resource graph never duplicates full payloads on the
// wire; *Reference values serialize through their own Serialize.
func (r *Resource) Serialize() map[string]any {
	out := make(map[string]any, len(r.fields))
	for name, value := range r.fields {
		out[name] = serializeValue(value)
	}
	return out
}

// serializeValue walks arbitrarily nested maps and slices, converting
// resources and references along the way.
func serializeValue(v any) any {
	switch t := v.(type) {
	case *Resource:
		return t.ToReference().Serialize()
	case *Reference:
		return t.Serialize()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = serializeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = serializeValue(val)
		}
		return out
	default:
		return v
	}
}

func (r *Resource) String() string {
	return fmt.Sprintf("<Resource %s>", r.Path())
}
