package afterread

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	field "github.com/quillcms/quill/internal/field"
	locale "github.com/quillcms/quill/internal/locale"
)

func TestHooks_RunInDeclaredOrder(t *testing.T) {
	h1 := func(ctx context.Context, args field.HookArgs) (any, error) {
		return "a", nil
	}
	h2 := func(ctx context.Context, args field.HookArgs) (any, error) {
		s, _ := args.Value.(string)
		return strings.ToUpper(s), nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{h1, h2}}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "ignored"}})
	require.NoError(t, err)
	require.Equal(t, "A", got["title"])
}

func TestHooks_UnchangedLeavesValue(t *testing.T) {
	noop := func(ctx context.Context, args field.HookArgs) (any, error) {
		return field.Unchanged, nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{noop}}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "kept"}})
	require.NoError(t, err)
	require.Equal(t, "kept", got["title"])
}

func TestHooks_NilReturnWritesNull(t *testing.T) {
	redact := func(ctx context.Context, args field.HookArgs) (any, error) {
		return nil, nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{redact}}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "secret"}})
	require.NoError(t, err)
	v, present := got["title"]
	require.True(t, present)
	require.Nil(t, v)
}

func TestHooks_ErrorAbortsRead(t *testing.T) {
	boom := errors.New("boom")
	failing := func(ctx context.Context, args field.HookArgs) (any, error) {
		return nil, boom
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{failing}}}

	_, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "x"}})
	require.ErrorIs(t, err, boom)
}

func TestHooks_PerLocaleFanOut(t *testing.T) {
	upper := func(ctx context.Context, args field.HookArgs) (any, error) {
		s, _ := args.Value.(string)
		return args.Locale + ":" + strings.ToUpper(s), nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, Localized: true, AfterRead: []field.Hook{upper}}}
	doc := map[string]any{"title": map[string]any{"en": "hello", "de": "hallo"}}

	got, err := Run(context.Background(), Args{
		Fields:         fields,
		Doc:            doc,
		Localization:   testLocalization,
		Locale:         locale.All,
		FlattenLocales: true,
	})
	require.NoError(t, err)

	want := map[string]any{"title": map[string]any{"en": "en:HELLO", "de": "de:HALLO"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHooks_FanOutCompletesBeforeNextHook(t *testing.T) {
	// The second hook must observe every locale already transformed by
	// the first.
	mark := func(ctx context.Context, args field.HookArgs) (any, error) {
		s, _ := args.Value.(string)
		return s + "+1", nil
	}
	verify := func(ctx context.Context, args field.HookArgs) (any, error) {
		s, _ := args.Value.(string)
		if !strings.HasSuffix(s, "+1") {
			return nil, errors.New("second hook ran before first settled")
		}
		return s + "+2", nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, Localized: true, AfterRead: []field.Hook{mark, verify}}}
	doc := map[string]any{"title": map[string]any{"en": "a", "de": "b", "fr": "c"}}

	got, err := Run(context.Background(), Args{
		Fields:         fields,
		Doc:            doc,
		Localization:   testLocalization,
		Locale:         locale.All,
		FlattenLocales: true,
	})
	require.NoError(t, err)

	want := map[string]any{"title": map[string]any{"en": "a+1+2", "de": "b+1+2", "fr": "c+1+2"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestHooks_RichTextAdapterChainRuns(t *testing.T) {
	fieldHook := func(ctx context.Context, args field.HookArgs) (any, error) {
		return "field", nil
	}
	adapterHook := func(ctx context.Context, args field.HookArgs) (any, error) {
		s, _ := args.Value.(string)
		return s + "+adapter", nil
	}
	fields := []*field.Field{{
		Name:      "body",
		Type:      field.TypeRichText,
		AfterRead: []field.Hook{fieldHook},
		Editor:    testAdapter{hooks: []field.Hook{adapterHook}},
	}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"body": "raw"}})
	require.NoError(t, err)
	// Adapter hooks run after the field's own chain.
	require.Equal(t, "field+adapter", got["body"])
}

func TestHooks_DisableHooksSkipsChain(t *testing.T) {
	called := false
	h := func(ctx context.Context, args field.HookArgs) (any, error) {
		called = true
		return nil, nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{h}}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "kept"}, DisableHooks: true})
	require.NoError(t, err)
	require.False(t, called)
	require.Equal(t, "kept", got["title"])
}

func TestHooks_ParentGroupHookRunsBeforeNestedFieldHook(t *testing.T) {
	var order []string
	parent := func(ctx context.Context, args field.HookArgs) (any, error) {
		order = append(order, "parent")
		return field.Unchanged, nil
	}
	nested := func(ctx context.Context, args field.HookArgs) (any, error) {
		order = append(order, "nested")
		return field.Unchanged, nil
	}
	fields := []*field.Field{{
		Name:      "meta",
		Type:      field.TypeGroup,
		AfterRead: []field.Hook{parent},
		Fields:    []*field.Field{{Name: "title", Type: field.TypeText, AfterRead: []field.Hook{nested}}},
	}}
	doc := map[string]any{"meta": map[string]any{"title": "x"}}

	_, err := Run(context.Background(), Args{Fields: fields, Doc: doc})
	require.NoError(t, err)
	require.Equal(t, []string{"parent", "nested"}, order)
}
