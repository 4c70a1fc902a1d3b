package afterread

import (
	"sort"

	field "github.com/quillcms/quill/internal/field"
)

// TraverseFields applies the read pipeline to every field of one
// sibling container and recurses into nested containers. Fields are
// processed in schema declaration order; that order fixes hook
// side-effect ordering when the queues are drained.
func (s *State) TraverseFields(fields []*field.Field, sibling map[string]any, parentPath []any, parentSchemaPath []string) error {
	for i, f := range fields {
		if err := s.traverseField(f, sibling, parentPath, parentSchemaPath, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) traverseField(f *field.Field, sibling map[string]any, parentPath []any, parentSchemaPath []string, index int) error {
	path, schemaPath := field.Paths(f, parentPath, parentSchemaPath, index)

	if field.AffectsData(f) && f.Hidden && !s.showHidden {
		delete(sibling, f.Name)
	}

	s.hoistLocalizedValue(f, sibling)
	if err := s.sanitizeField(f, sibling); err != nil {
		return err
	}

	if field.AffectsData(f) {
		s.fieldTasks = append(s.fieldTasks, s.newFieldTask(f, sibling, path, schemaPath))
	}

	// Recursion happens immediately, without waiting for the field's own
	// queued task. Nested field tasks land behind the parent's task in
	// the queue, so the sequential drain still runs parents first.
	switch f.Type {
	case field.TypeGroup:
		if nested, ok := sibling[f.Name].(map[string]any); ok {
			return s.TraverseFields(f.Fields, nested, path, schemaPath)
		}

	case field.TypeArray:
		return s.traverseRows(f, sibling, path, schemaPath, func(row map[string]any, rowPath []any) error {
			return s.TraverseFields(f.Fields, row, rowPath, schemaPath)
		})

	case field.TypeBlocks:
		return s.traverseRows(f, sibling, path, schemaPath, func(row map[string]any, rowPath []any) error {
			tag, _ := row[field.BlockTypeKey].(string)
			block := blockForSlug(f, tag)
			if block == nil {
				// Unknown discriminator: leave the row untouched.
				return nil
			}
			return s.TraverseFields(block.Fields, row, rowPath, append(schemaPath, block.Slug))
		})

	case field.TypeRow, field.TypeCollapsible:
		return s.TraverseFields(f.Fields, sibling, path, schemaPath)

	case field.TypeTabs:
		for ti, tab := range f.Tabs {
			tabPath, tabSchemaPath := field.TabPaths(tab, path, schemaPath, ti)
			if tab.Name == "" {
				if err := s.TraverseFields(tab.Fields, sibling, tabPath, tabSchemaPath); err != nil {
					return err
				}
				continue
			}
			if nested, ok := sibling[tab.Name].(map[string]any); ok {
				if err := s.TraverseFields(tab.Fields, nested, tabPath, tabSchemaPath); err != nil {
					return err
				}
			}
		}

	case field.TypeRichText:
		// Opaque to the traversal; only the adapter's hook chain runs.
	}

	return nil
}

// traverseRows recurses into the rows of an array-shaped field. A bare
// slice holds the rows directly; a map on a localized field is an
// unflattened locale map of row slices, visited per locale with the
// locale code in the instance path but not the schema path. Any other
// value is coerced to an empty slice.
func (s *State) traverseRows(f *field.Field, sibling map[string]any, path []any, schemaPath []string, visit func(row map[string]any, rowPath []any) error) error {
	switch rows := sibling[f.Name].(type) {
	case []any:
		return s.visitRowSlice(rows, path, visit)
	case map[string]any:
		if !f.Localized {
			sibling[f.Name] = []any{}
			return nil
		}
		codes := make([]string, 0, len(rows))
		for code := range rows {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			localeRows, ok := rows[code].([]any)
			if !ok {
				continue
			}
			if err := s.visitRowSlice(localeRows, append(append([]any{}, path...), code), visit); err != nil {
				return err
			}
		}
		return nil
	default:
		sibling[f.Name] = []any{}
		return nil
	}
}

func (s *State) visitRowSlice(rows []any, path []any, visit func(row map[string]any, rowPath []any) error) error {
	for i, row := range rows {
		rowMap, ok := row.(map[string]any)
		if !ok {
			continue
		}
		rowPath := append(append([]any{}, path...), i)
		if err := visit(rowMap, rowPath); err != nil {
			return err
		}
	}
	return nil
}

func blockForSlug(f *field.Field, slug string) *field.Block {
	for _, b := range f.Blocks {
		if b.Slug == slug {
			return b
		}
	}
	return nil
}
