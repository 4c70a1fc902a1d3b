package afterread

import (
	field "github.com/quillcms/quill/internal/field"
	locale "github.com/quillcms/quill/internal/locale"
)

// hoistLocalizedValue collapses a localized field's locale→value map to
// the requested locale, applying fallback-locale substitution. It runs
// before sanitization and hooks so both observe single-locale data.
//
// The step is skipped when flattening was not requested, the field is
// not localized, localization is disabled, the caller asked for the
// all-locales view, or the slot holds no locale map.
func (s *State) hoistLocalizedValue(f *field.Field, sibling map[string]any) {
	if !s.flatten || s.localization == nil || !f.Localized {
		return
	}
	if f.Name == "" || s.locale == locale.All {
		return
	}
	raw, ok := sibling[f.Name]
	if !ok || raw == nil {
		return
	}
	byLocale, ok := raw.(map[string]any)
	if !ok {
		return
	}

	value := byLocale[s.locale]
	if fb := s.fallbackLocale; fb != "" && fb != s.locale {
		if fallbackValue := byLocale[fb]; truthy(fallbackValue) {
			if field.IsTextLike(f.Type) {
				if value == nil || value == "" {
					value = fallbackValue
				}
			} else if value == nil {
				value = fallbackValue
			}
		}
	}
	sibling[f.Name] = value
}

// truthy mirrors the loose emptiness test used for fallback values:
// nil, false, empty strings and numeric zero do not trigger
// substitution.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}
