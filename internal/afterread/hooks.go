package afterread

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	field "github.com/quillcms/quill/internal/field"
	locale "github.com/quillcms/quill/internal/locale"
)

// newFieldTask bundles the deferred half of the field pipeline: hook
// chain, read access, default substitution, and population scheduling.
// The closure reads the field's value at drain time, not queue time, so
// it observes whatever earlier tasks wrote.
func (s *State) newFieldTask(f *field.Field, sibling map[string]any, path []any, schemaPath []string) Task {
	return func(ctx context.Context) error {
		if s.runHooks {
			if err := s.runHookChain(ctx, f, sibling, path, schemaPath); err != nil {
				return err
			}
		}

		allowed := true
		if s.runAccess {
			var err error
			allowed, err = s.applyReadAccess(ctx, f, sibling)
			if err != nil {
				return err
			}
		}
		// A denied field must never be backfilled with a default.
		if allowed {
			if err := s.applyDefault(ctx, f, sibling); err != nil {
				return err
			}
		}

		if field.IsReference(f) {
			s.schedulePopulation(f, sibling)
		}
		return nil
	}
}

// runHookChain executes the field's after-read hooks strictly in
// declaration order; each hook waits for the previous one. RichText
// fields additionally run their editor adapter's chain after the
// field-level hooks.
func (s *State) runHookChain(ctx context.Context, f *field.Field, sibling map[string]any, path []any, schemaPath []string) error {
	for _, h := range f.AfterRead {
		if err := s.invokeHook(ctx, h, f, sibling, path, schemaPath); err != nil {
			return err
		}
	}
	if f.Type == field.TypeRichText {
		adapter, _ := f.Editor.(field.RichTextAdapter)
		if adapter != nil {
			for _, h := range adapter.AfterRead() {
				if err := s.invokeHook(ctx, h, f, sibling, path, schemaPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// invokeHook runs one hook against the field's current value. When the
// field is localized and the value is still a locale map (the caller
// asked for all locales, or flattening was off), the hook fans out once
// per locale concurrently; locales are independent, and all must settle
// before the chain advances. Results are written back under a lock, and
// only when the hook returned something other than field.Unchanged.
func (s *State) invokeHook(ctx context.Context, h field.Hook, f *field.Field, sibling map[string]any, path []any, schemaPath []string) error {
	value := sibling[f.Name]

	if f.Localized && (s.locale == locale.All || !s.flatten) {
		if byLocale, ok := value.(map[string]any); ok {
			g, gctx := errgroup.WithContext(ctx)
			var mu sync.Mutex
			for code, localeValue := range byLocale {
				g.Go(func() error {
					out, err := h(gctx, s.hookArgs(f, sibling, path, schemaPath, code, localeValue))
					if err != nil {
						return err
					}
					if out != field.Unchanged {
						mu.Lock()
						byLocale[code] = out
						mu.Unlock()
					}
					return nil
				})
			}
			return g.Wait()
		}
	}

	out, err := h(ctx, s.hookArgs(f, sibling, path, schemaPath, s.locale, value))
	if err != nil {
		return err
	}
	if out != field.Unchanged {
		sibling[f.Name] = out
	}
	return nil
}

func (s *State) hookArgs(f *field.Field, sibling map[string]any, path []any, schemaPath []string, localeCode string, value any) field.HookArgs {
	return field.HookArgs{
		Doc:              s.doc,
		SiblingDoc:       sibling,
		Value:            value,
		Field:            f,
		Path:             path,
		SchemaPath:       schemaPath,
		Locale:           localeCode,
		Depth:            s.depth,
		CurrentDepth:     s.currentDepth,
		Draft:            s.draft,
		Operation:        "read",
		OverrideAccess:   s.overrideAccess,
		ShowHiddenFields: s.showHidden,
		Req:              s.req,
	}
}
