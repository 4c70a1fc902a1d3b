package afterread

import (
	field "github.com/quillcms/quill/internal/field"
)

// sanitizeField applies per-type normalization before the field's hooks
// run. Container slots are coerced so nested hooks always have an
// object to populate into; malformed point geometry is tolerated by
// dropping the value; a richText field without a resolved editor
// adapter aborts the read.
func (s *State) sanitizeField(f *field.Field, sibling map[string]any) error {
	switch f.Type {
	case field.TypeGroup:
		if _, ok := sibling[f.Name]; !ok {
			sibling[f.Name] = map[string]any{}
		}

	case field.TypeTabs:
		for _, tab := range f.Tabs {
			if tab.Name == "" {
				continue
			}
			if v, ok := sibling[tab.Name]; !ok || v == nil {
				sibling[tab.Name] = map[string]any{}
			}
		}

	case field.TypeRichText:
		if f.Editor == nil {
			return &field.ConfigError{Field: f.Name, Reason: "richText field has no editor adapter"}
		}
		if _, ok := f.Editor.(field.RichTextAdapter); !ok {
			return &field.ConfigError{Field: f.Name, Reason: "richText editor adapter was never resolved"}
		}

	case field.TypePoint:
		if _, ok := sibling[f.Name]; !ok {
			return nil
		}
		if point, ok := sibling[f.Name].(map[string]any); ok {
			if coords, ok := point["coordinates"].([]any); ok && len(coords) == 2 {
				sibling[f.Name] = coords
				return nil
			}
		}
		// Malformed or partial geometry reads as absent.
		delete(sibling, f.Name)
	}
	return nil
}
