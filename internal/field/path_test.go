package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPaths_NamedField(t *testing.T) {
	f := &Field{Name: "title", Type: TypeText}

	path, schemaPath := Paths(f, []any{"meta"}, []string{"meta"}, 0)

	require.Equal(t, []any{"meta", "title"}, path)
	require.Equal(t, []string{"meta", "title"}, schemaPath)
}

func TestPaths_UnnamedFieldGetsIndexSegment(t *testing.T) {
	f := &Field{Type: TypeRow}

	path, schemaPath := Paths(f, []any{"meta"}, []string{"meta"}, 3)

	require.Equal(t, []any{"meta"}, path)
	require.Equal(t, []string{"meta", "_index-3"}, schemaPath)
}

func TestPaths_CopiesParentBacking(t *testing.T) {
	parent := make([]any, 1, 4)
	parent[0] = "meta"
	parentSchema := make([]string, 1, 4)
	parentSchema[0] = "meta"

	aPath, aSchema := Paths(&Field{Name: "a"}, parent, parentSchema, 0)
	bPath, bSchema := Paths(&Field{Name: "b"}, parent, parentSchema, 1)

	require.Equal(t, []any{"meta", "a"}, aPath)
	require.Equal(t, []any{"meta", "b"}, bPath)
	require.Equal(t, []string{"meta", "a"}, aSchema)
	require.Equal(t, []string{"meta", "b"}, bSchema)
}

func TestTabPaths(t *testing.T) {
	named, namedSchema := TabPaths(&Tab{Name: "seo"}, nil, []string{"_index-0"}, 0)
	require.Equal(t, []any{"seo"}, named)
	require.Equal(t, []string{"_index-0", "seo"}, namedSchema)

	unnamed, unnamedSchema := TabPaths(&Tab{}, nil, []string{"_index-0"}, 1)
	require.Empty(t, unnamed)
	require.Equal(t, []string{"_index-0", "_index-1"}, unnamedSchema)
}

func TestPathString(t *testing.T) {
	cases := []struct {
		path []any
		want string
	}{
		{nil, ""},
		{[]any{"title"}, "title"},
		{[]any{"items", 2, "label"}, "items[2].label"},
		{[]any{"a", "b"}, "a.b"},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, PathString(c.path)); diff != "" {
			t.Errorf("PathString(%v) mismatch (-want +got):\n%s", c.path, diff)
		}
	}
}

func TestAffectsData(t *testing.T) {
	require.True(t, AffectsData(&Field{Name: "title", Type: TypeText}))
	require.True(t, AffectsData(&Field{Name: "meta", Type: TypeGroup}))
	require.False(t, AffectsData(&Field{Type: TypeRow}))
	require.False(t, AffectsData(&Field{Type: TypeCollapsible}))
	require.False(t, AffectsData(&Field{Type: TypeTabs}))
	require.False(t, AffectsData(&Field{Type: TypeText}))
}
