package afterread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	field "github.com/quillcms/quill/internal/field"
	request "github.com/quillcms/quill/internal/request"
)

func denyAll(ctx context.Context, args field.AccessArgs) (bool, error) { return false, nil }

func TestAccess_DenialRemovesKey(t *testing.T) {
	fields := []*field.Field{{Name: "salary", Type: field.TypeNumber, ReadAccess: denyAll}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"salary": float64(90000)}})
	require.NoError(t, err)

	_, present := got["salary"]
	require.False(t, present, "denied field must be removed entirely")
}

func TestAccess_DenialSuppressesDefault(t *testing.T) {
	fields := []*field.Field{{
		Name:         "salary",
		Type:         field.TypeNumber,
		ReadAccess:   denyAll,
		DefaultValue: float64(0),
	}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"salary": float64(90000)}})
	require.NoError(t, err)

	_, present := got["salary"]
	require.False(t, present, "denied field must never be backfilled with a default")
}

func TestAccess_OverrideSkipsPredicate(t *testing.T) {
	calls := 0
	gate := func(ctx context.Context, args field.AccessArgs) (bool, error) {
		calls++
		return false, nil
	}
	fields := []*field.Field{{Name: "salary", Type: field.TypeNumber, ReadAccess: gate}}

	got, err := Run(context.Background(), Args{
		Fields:         fields,
		Doc:            map[string]any{"salary": float64(1)},
		OverrideAccess: true,
	})
	require.NoError(t, err)
	require.Zero(t, calls)
	require.Equal(t, float64(1), got["salary"])
}

func TestAccess_PredicateReceivesContext(t *testing.T) {
	user := map[string]any{"role": "editor"}
	var gotArgs field.AccessArgs
	gate := func(ctx context.Context, args field.AccessArgs) (bool, error) {
		gotArgs = args
		return true, nil
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, ReadAccess: gate}}
	doc := map[string]any{"id": "doc-1", "title": "x"}

	_, err := Run(context.Background(), Args{
		Fields: fields,
		Doc:    doc,
		Req:    &request.Context{User: user},
	})
	require.NoError(t, err)
	require.Equal(t, "doc-1", gotArgs.ID)
	require.Equal(t, user, gotArgs.Req.User)
	require.Equal(t, doc, gotArgs.Doc)
}

func TestAccess_PredicateErrorAbortsRead(t *testing.T) {
	boom := errors.New("acl backend down")
	gate := func(ctx context.Context, args field.AccessArgs) (bool, error) {
		return false, boom
	}
	fields := []*field.Field{{Name: "title", Type: field.TypeText, ReadAccess: gate}}

	_, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"title": "x"}})
	require.ErrorIs(t, err, boom)
}

func TestDefaults_LiteralAppliedWhenAbsent(t *testing.T) {
	fields := []*field.Field{{Name: "status", Type: field.TypeSelect, DefaultValue: "published"}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{}})
	require.NoError(t, err)
	require.Equal(t, "published", got["status"])
}

func TestDefaults_NotAppliedWhenPresent(t *testing.T) {
	fields := []*field.Field{{Name: "status", Type: field.TypeSelect, DefaultValue: "published"}}

	got, err := Run(context.Background(), Args{Fields: fields, Doc: map[string]any{"status": "archived"}})
	require.NoError(t, err)
	require.Equal(t, "archived", got["status"])
}

func TestDefaults_ComputedFromUserAndLocale(t *testing.T) {
	fields := []*field.Field{{
		Name: "greeting",
		Type: field.TypeText,
		DefaultFunc: func(ctx context.Context, user any, loc string) (any, error) {
			name, _ := user.(string)
			return name + "/" + loc, nil
		},
	}}

	got, err := Run(context.Background(), Args{
		Fields:         fields,
		Doc:            map[string]any{},
		Req:            &request.Context{User: "ana"},
		Localization:   testLocalization,
		Locale:         "de",
		FlattenLocales: true,
	})
	require.NoError(t, err)
	require.Equal(t, "ana/de", got["greeting"])
}
