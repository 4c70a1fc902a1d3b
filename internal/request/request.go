// Package request carries request-scoped state through the read pipeline.
package request

// Context describes the request a read runs under: the acting user, an
// access-override flag, and arbitrary request-scoped data. Hooks and
// access rules receive it as-is; the pipeline never inspects User.
type Context struct {
	// User is the acting user, or nil for unauthenticated reads.
	User any

	// OverrideAccess skips field read-access rules when true. Internal
	// callers (population, local API) set it; HTTP requests never do.
	OverrideAccess bool

	// Data holds arbitrary request-scoped values shared between hooks.
	Data map[string]any
}
