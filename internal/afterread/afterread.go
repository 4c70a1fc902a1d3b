package afterread

import (
	"context"

	field "github.com/quillcms/quill/internal/field"
	locale "github.com/quillcms/quill/internal/locale"
	request "github.com/quillcms/quill/internal/request"
)

// Args configures one document read.
type Args struct {
	// Fields is the document's field schema.
	Fields []*field.Field
	// Doc is the document being read. It is mutated in place and
	// returned by Run. A nil Doc is treated as empty.
	Doc map[string]any

	Req      *request.Context
	Resolver Resolver

	// Localization enables locale hoisting. Nil disables it.
	Localization   *locale.Config
	Locale         string
	FallbackLocale string

	// Depth limits how many population levels replace ids with
	// documents; CurrentDepth is the distance already travelled from
	// the root read.
	Depth        int
	CurrentDepth int

	Draft bool

	// FlattenLocales collapses localized values to Locale. It is
	// ignored when Locale is the locale.All sentinel.
	FlattenLocales bool

	OverrideAccess   bool
	ShowHiddenFields bool

	// DisableHooks and DisableAccessControl skip the corresponding
	// pipeline steps. Used by internal callers that re-enter the
	// pipeline on data that already went through them.
	DisableHooks         bool
	DisableAccessControl bool
}

// Task is one queued unit of deferred per-field work.
type Task func(ctx context.Context) error

// State threads the traversal's context and its two caller-owned queues
// through the recursion. It is single-goroutine: concurrency happens
// only inside drains, behind a join.
type State struct {
	req      *request.Context
	doc      map[string]any
	resolver Resolver

	localization   *locale.Config
	locale         string
	fallbackLocale string
	flatten        bool

	depth        int
	currentDepth int
	draft        bool

	overrideAccess bool
	showHidden     bool
	runHooks       bool
	runAccess      bool

	fieldTasks    []Task
	populateTasks []*populateTask
}

// NewState prepares a traversal over args.Doc.
func NewState(args Args) *State {
	req := args.Req
	if req == nil {
		req = &request.Context{}
	}
	doc := args.Doc
	if doc == nil {
		doc = map[string]any{}
	}
	return &State{
		req:            req,
		doc:            doc,
		resolver:       args.Resolver,
		localization:   args.Localization,
		locale:         args.Locale,
		fallbackLocale: args.FallbackLocale,
		flatten:        args.FlattenLocales && args.Locale != locale.All,
		depth:          args.Depth,
		currentDepth:   args.CurrentDepth,
		draft:          args.Draft,
		overrideAccess: args.OverrideAccess || req.OverrideAccess,
		showHidden:     args.ShowHiddenFields,
		runHooks:       !args.DisableHooks,
		runAccess:      !args.DisableAccessControl,
	}
}

// Run traverses the document, drains the field-task queue, then drains
// the population queue, and returns the fully resolved document.
func Run(ctx context.Context, args Args) (map[string]any, error) {
	s := NewState(args)
	if err := s.TraverseFields(args.Fields, s.doc, nil, nil); err != nil {
		return nil, err
	}
	if err := s.DrainFieldTasks(ctx); err != nil {
		return nil, err
	}
	if err := s.DrainPopulation(ctx); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// DrainFieldTasks runs every queued field task in append order. Each
// task owns a disjoint slot of its sibling container, and append order
// places parents before their nested fields, so sequential execution
// both is safe and preserves author-declared hook ordering.
func (s *State) DrainFieldTasks(ctx context.Context) error {
	for len(s.fieldTasks) > 0 {
		tasks := s.fieldTasks
		s.fieldTasks = nil
		for _, t := range tasks {
			if err := t(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
