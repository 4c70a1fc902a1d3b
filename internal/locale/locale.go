// Package locale holds the localization settings a document read runs
// under.
package locale

// All is the locale sentinel requesting the unflattened, every-locale
// view of localized fields.
const All = "all"

// Config enables localization for a set of collections. A nil *Config
// disables localization entirely.
type Config struct {
	// Locales lists the supported locale codes.
	Locales []string
	// Default is the locale used when a request names none.
	Default string
	// Fallback is the locale substituted for missing values during
	// flattening. Empty disables fallback substitution.
	Fallback string
}

// Supported reports whether code is a configured locale.
func (c *Config) Supported(code string) bool {
	if c == nil {
		return false
	}
	for _, l := range c.Locales {
		if l == code {
			return true
		}
	}
	return false
}
