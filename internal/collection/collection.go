// Package collection holds the collection registry and the document
// read operations built on the afterread pipeline.
package collection

import (
	"fmt"

	field "github.com/quillcms/quill/internal/field"
)

// Collection is one document type: a slug plus its field schema.
type Collection struct {
	Slug   string
	Fields []*field.Field
}

// Registry is the validated set of collections a process serves.
// Registration order is preserved for listings.
type Registry struct {
	order  []*Collection
	bySlug map[string]*Collection
}

// NewRegistry validates and indexes the given collections. Duplicate
// slugs and invalid field schemas are startup errors.
func NewRegistry(collections ...*Collection) (*Registry, error) {
	r := &Registry{bySlug: make(map[string]*Collection, len(collections))}
	for _, c := range collections {
		if c.Slug == "" {
			return nil, fmt.Errorf("collection without a slug")
		}
		if _, dup := r.bySlug[c.Slug]; dup {
			return nil, fmt.Errorf("duplicate collection slug %q", c.Slug)
		}
		if err := field.Validate(c.Fields); err != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Slug, err)
		}
		r.order = append(r.order, c)
		r.bySlug[c.Slug] = c
	}
	return r, nil
}

// Get looks up a collection by slug.
func (r *Registry) Get(slug string) (*Collection, bool) {
	c, ok := r.bySlug[slug]
	return c, ok
}

// All returns the collections in registration order.
func (r *Registry) All() []*Collection { return r.order }
