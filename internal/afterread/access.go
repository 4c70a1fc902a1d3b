package afterread

import (
	"context"

	field "github.com/quillcms/quill/internal/field"
)

// applyReadAccess evaluates the field's read rule and reports whether
// the value may stay. Denial is not an error: the key is deleted from
// the sibling container and the read continues. Overridden access
// always grants.
func (s *State) applyReadAccess(ctx context.Context, f *field.Field, sibling map[string]any) (bool, error) {
	if f.ReadAccess == nil || s.overrideAccess {
		return true, nil
	}
	allowed, err := f.ReadAccess(ctx, field.AccessArgs{
		ID:         s.doc["id"],
		Doc:        s.doc,
		SiblingDoc: sibling,
		Req:        s.req,
	})
	if err != nil {
		return false, err
	}
	if !allowed {
		delete(sibling, f.Name)
	}
	return allowed, nil
}
