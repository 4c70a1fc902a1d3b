package field

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type noopAdapter struct{}

func (noopAdapter) AfterRead() []Hook { return nil }

func TestValidate_AcceptsWellFormedSchema(t *testing.T) {
	fields := []*Field{
		{Name: "title", Type: TypeText},
		{Name: "meta", Type: TypeGroup, Fields: []*Field{
			{Name: "description", Type: TypeTextarea},
		}},
		{Name: "body", Type: TypeRichText, Editor: noopAdapter{}},
		{Name: "author", Type: TypeRelationship, RelationTo: []string{"authors"}},
		{Name: "layout", Type: TypeBlocks, Blocks: []*Block{
			{Slug: "hero", Fields: []*Field{{Name: "heading", Type: TypeText}}},
		}},
	}
	require.NoError(t, Validate(fields))
}

func TestValidate_DuplicateSiblingNames(t *testing.T) {
	err := Validate([]*Field{
		{Name: "title", Type: TypeText},
		{Name: "title", Type: TypeNumber},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate field name "title"`)
}

func TestValidate_RowChildrenValidated(t *testing.T) {
	err := Validate([]*Field{
		{Type: TypeRow, Fields: []*Field{{Name: "author", Type: TypeRelationship}}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "names no target collection")
}

func TestValidate_ContainerWithoutNestedFields(t *testing.T) {
	err := Validate([]*Field{{Name: "meta", Type: TypeGroup}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "group field has no nested fields")
}

func TestValidate_UnnamedGroup(t *testing.T) {
	err := Validate([]*Field{{Type: TypeArray, Fields: []*Field{{Name: "x", Type: TypeText}}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "array field requires a name")
}

func TestValidate_BlocksDefects(t *testing.T) {
	err := Validate([]*Field{{Name: "layout", Type: TypeBlocks, Blocks: []*Block{
		{Slug: "hero", Fields: []*Field{{Name: "h", Type: TypeText}}},
		{Slug: "hero", Fields: []*Field{{Name: "h", Type: TypeText}}},
		{Fields: []*Field{{Name: "h", Type: TypeText}}},
	}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate block slug "hero"`)
	require.Contains(t, err.Error(), "block without a slug")
}

func TestValidate_ReferenceWithoutTarget(t *testing.T) {
	err := Validate([]*Field{{Name: "author", Type: TypeRelationship}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "relationship field names no target collection")
}

func TestValidate_RichTextEditor(t *testing.T) {
	err := Validate([]*Field{{Name: "body", Type: TypeRichText}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "richText field has no editor adapter")

	factory := AdapterFactory(func() RichTextAdapter { return noopAdapter{} })
	err = Validate([]*Field{{Name: "body", Type: TypeRichText, Editor: factory}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a resolved adapter")
}

func TestValidate_ReportsSchemaPath(t *testing.T) {
	err := Validate([]*Field{
		{Name: "meta", Type: TypeGroup, Fields: []*Field{
			{Name: "author", Type: TypeRelationship},
		}},
	})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr, 1)
	require.Equal(t, "meta.author", verr[0].SchemaPath)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	err := Validate([]*Field{
		{Name: "a", Type: TypeText},
		{Name: "a", Type: TypeText},
		{Name: "rel", Type: TypeUpload},
	})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr, 2)
}

// Hooks still compile against the same signature validation assumes.
var _ Hook = func(ctx context.Context, args HookArgs) (any, error) { return Unchanged, nil }
