package afterread

import (
	"context"

	field "github.com/quillcms/quill/internal/field"
)

// applyDefault fills a still-absent field value from its configured
// default. It runs after hooks and access control; callers skip it for
// access-denied fields.
func (s *State) applyDefault(ctx context.Context, f *field.Field, sibling map[string]any) error {
	if f.Name == "" {
		return nil
	}
	if _, present := sibling[f.Name]; present {
		return nil
	}
	switch {
	case f.DefaultFunc != nil:
		v, err := f.DefaultFunc(ctx, s.req.User, s.locale)
		if err != nil {
			return err
		}
		sibling[f.Name] = v
	case f.DefaultValue != nil:
		sibling[f.Name] = f.DefaultValue
	}
	return nil
}
