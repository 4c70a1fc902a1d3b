package field

import (
	"fmt"
	"strings"
)

// Violation is a single configuration defect found while validating a
// field schema.
type Violation struct {
	Message    string `json:"message"`
	SchemaPath string `json:"schemaPath,omitempty"`
}

// ValidationError aggregates every violation found in one schema.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "invalid field schema:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.SchemaPath != "" {
			line += " at " + v.SchemaPath
		}
		msg += line + "\n"
	}
	return msg
}

// ConfigError reports a field configuration defect discovered during a
// read, such as a richText field whose editor adapter was never
// resolved. It indicates a deployment problem, not bad document data.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("field %q misconfigured: %s", e.Field, e.Reason)
}

// Validate checks a field schema at startup. It catches the defects the
// read pipeline cannot tolerate: duplicate sibling names, container
// fields without nested schemas, blocks without discriminators,
// reference fields without targets, and richText fields without a
// resolved editor adapter.
func Validate(fields []*Field) error {
	var violations ValidationError
	validateFields(fields, nil, &violations)
	if len(violations) > 0 {
		return violations
	}
	return nil
}

func validateFields(fields []*Field, parentSchemaPath []string, out *ValidationError) {
	seen := map[string]struct{}{}
	for i, f := range fields {
		_, schemaPath := Paths(f, nil, parentSchemaPath, i)
		at := strings.Join(schemaPath, ".")

		if AffectsData(f) {
			if _, dup := seen[f.Name]; dup {
				*out = append(*out, &Violation{Message: fmt.Sprintf("duplicate field name %q", f.Name), SchemaPath: at})
			}
			seen[f.Name] = struct{}{}
		}

		switch f.Type {
		case TypeGroup, TypeArray:
			if f.Name == "" {
				*out = append(*out, &Violation{Message: fmt.Sprintf("%s field requires a name", f.Type), SchemaPath: at})
			}
			if len(f.Fields) == 0 {
				*out = append(*out, &Violation{Message: fmt.Sprintf("%s field has no nested fields", f.Type), SchemaPath: at})
			}
			validateFields(f.Fields, schemaPath, out)
		case TypeRow, TypeCollapsible:
			validateFields(f.Fields, schemaPath, out)
		case TypeBlocks:
			if len(f.Blocks) == 0 {
				*out = append(*out, &Violation{Message: "blocks field has no blocks", SchemaPath: at})
			}
			slugs := map[string]struct{}{}
			for _, b := range f.Blocks {
				if b.Slug == "" {
					*out = append(*out, &Violation{Message: "block without a slug", SchemaPath: at})
					continue
				}
				if _, dup := slugs[b.Slug]; dup {
					*out = append(*out, &Violation{Message: fmt.Sprintf("duplicate block slug %q", b.Slug), SchemaPath: at})
				}
				slugs[b.Slug] = struct{}{}
				validateFields(b.Fields, append(schemaPath, b.Slug), out)
			}
		case TypeTabs:
			tabNames := map[string]struct{}{}
			for ti, t := range f.Tabs {
				_, tabSchemaPath := TabPaths(t, nil, schemaPath, ti)
				if t.Name != "" {
					if _, dup := tabNames[t.Name]; dup {
						*out = append(*out, &Violation{Message: fmt.Sprintf("duplicate tab name %q", t.Name), SchemaPath: at})
					}
					tabNames[t.Name] = struct{}{}
				}
				validateFields(t.Fields, tabSchemaPath, out)
			}
		case TypeRichText:
			if f.Editor == nil {
				*out = append(*out, &Violation{Message: "richText field has no editor adapter", SchemaPath: at})
			} else if _, ok := f.Editor.(RichTextAdapter); !ok {
				*out = append(*out, &Violation{Message: "richText editor is not a resolved adapter", SchemaPath: at})
			}
		case TypeRelationship, TypeUpload, TypeJoin:
			if len(f.RelationTo) == 0 {
				*out = append(*out, &Violation{Message: fmt.Sprintf("%s field names no target collection", f.Type), SchemaPath: at})
			}
		}
	}
}
