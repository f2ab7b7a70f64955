package aidbox

import "fmt"

// Reference is a lightweight pointer to a resource by type and id, with
// optional display text and an optional embedded resource. It is
// immutable after construction and freely shareable.
type Reference struct {
	resourceType string
	id           string
	display      string
	resource     any
}

// ReferenceOption configures optional Reference fields at construction.
type ReferenceOption func(*Reference)

// WithDisplay sets human-readable display text on the reference.
func WithDisplay(display string) ReferenceOption {
	return func(r *Reference) {
		r.display = display
	}
}

// WithEmbedded attaches an embedded copy of the referenced resource,
// either a *Resource or a raw payload.
func WithEmbedded(resource any) ReferenceOption {
	return func(r *Reference) {
		r.resource = resource
	}
}

func newReference(resourceType, id string, opts ...ReferenceOption) *Reference {
	r := &Reference{
		resourceType: resourceType,
		id:           id,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Type returns the referenced resource type.
func (r *Reference) Type() string {
	return r.resourceType
}

// ID returns the referenced resource id.
func (r *Reference) ID() string {
	return r.id
}

// Display returns the display text, if any.
func (r *Reference) Display() string {
	return r.display
}

// Embedded returns the embedded resource, if any.
func (r *Reference) Embedded() any {
	return r.resource
}

// Serialize returns the compact wire form of the reference. Only keys with
// non-empty values are emitted; there are never null-valued keys.
func (r *Reference) Serialize() map[string]any {
	out := make(map[string]any, 4)
	if r.id != "" {
		out["id"] = r.id
	}
	if r.resourceType != "" {
		out["resource_type"] = r.resourceType
	}
	if r.display != "" {
		out["display"] = r.display
	}
	if r.resource != nil {
		out["resource"] = serializeValue(r.resource)
	}
	return out
}

func (r *Reference) String() string {
	return fmt.Sprintf("<Reference %s/%s>", r.resourceType, r.id)
}
