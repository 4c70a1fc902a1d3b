package collection

import (
	"context"
	"fmt"
	"time"

	afterread "github.com/quillcms/quill/internal/afterread"
	eventbus "github.com/quillcms/quill/internal/eventbus"
	events "github.com/quillcms/quill/internal/events"
	locale "github.com/quillcms/quill/internal/locale"
	request "github.com/quillcms/quill/internal/request"
)

// Store is the persistence seam the read operations run against. Get
// returns (nil, nil) for unknown ids and for drafts when draft
// visibility was not requested.
type Store interface {
	Get(ctx context.Context, collection, id string, draft bool) (map[string]any, error)
	List(ctx context.Context, collection string, draft bool, limit, page int) (docs []map[string]any, total int, err error)
}

// ErrNotFound reports a findByID miss.
type ErrNotFound struct {
	Collection string
	ID         string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("document %q not found in collection %q", e.ID, e.Collection)
}

// ErrUnknownCollection reports a request against an unregistered slug.
type ErrUnknownCollection struct {
	Slug string
}

func (e *ErrUnknownCollection) Error() string {
	return fmt.Sprintf("unknown collection %q", e.Slug)
}

// API exposes the document read operations for one registry and store.
type API struct {
	registry     *Registry
	store        Store
	localization *locale.Config
}

// NewAPI wires the read operations.
func NewAPI(registry *Registry, store Store, localization *locale.Config) *API {
	return &API{registry: registry, store: store, localization: localization}
}

// ReadArgs configures one read operation.
type ReadArgs struct {
	Collection     string
	ID             string // findByID only
	Locale         string // empty selects the default locale
	FallbackLocale string // empty selects the configured fallback
	Depth          int
	Draft          bool
	Limit          int // find only; <= 0 returns everything
	Page           int // find only; 1-based

	ShowHiddenFields bool
	Req              *request.Context
}

// FindResult is one page of resolved documents.
type FindResult struct {
	Docs        []map[string]any `json:"docs"`
	TotalDocs   int              `json:"totalDocs"`
	Limit       int              `json:"limit"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages"`
	HasNextPage bool             `json:"hasNextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
}

// FindByID loads one document and runs the full read pipeline on it.
func (a *API) FindByID(ctx context.Context, args ReadArgs) (map[string]any, error) {
	col, ok := a.registry.Get(args.Collection)
	if !ok {
		return nil, &ErrUnknownCollection{Slug: args.Collection}
	}
	args = a.withLocaleDefaults(args)

	start := time.Now()
	eventbus.Publish(ctx, events.ReadStart{Collection: col.Slug, ID: args.ID, Locale: args.Locale, Depth: args.Depth, Draft: args.Draft})
	doc, err := a.findByID(ctx, col, args)
	docs := 0
	if doc != nil {
		docs = 1
	}
	eventbus.Publish(ctx, events.ReadFinish{Collection: col.Slug, ID: args.ID, Locale: args.Locale, Depth: args.Depth, Draft: args.Draft, Docs: docs, Err: err, Duration: time.Since(start)})
	return doc, err
}

func (a *API) findByID(ctx context.Context, col *Collection, args ReadArgs) (map[string]any, error) {
	raw, err := a.store.Get(ctx, col.Slug, args.ID, args.Draft)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &ErrNotFound{Collection: col.Slug, ID: args.ID}
	}
	return afterread.Run(ctx, a.pipelineArgs(col, args, raw))
}

// Find loads one page of a collection and runs the read pipeline on
// every document.
func (a *API) Find(ctx context.Context, args ReadArgs) (*FindResult, error) {
	col, ok := a.registry.Get(args.Collection)
	if !ok {
		return nil, &ErrUnknownCollection{Slug: args.Collection}
	}
	args = a.withLocaleDefaults(args)

	start := time.Now()
	eventbus.Publish(ctx, events.ReadStart{Collection: col.Slug, Locale: args.Locale, Depth: args.Depth, Draft: args.Draft})
	res, err := a.find(ctx, col, args)
	docs := 0
	if res != nil {
		docs = len(res.Docs)
	}
	eventbus.Publish(ctx, events.ReadFinish{Collection: col.Slug, Locale: args.Locale, Depth: args.Depth, Draft: args.Draft, Docs: docs, Err: err, Duration: time.Since(start)})
	return res, err
}

func (a *API) find(ctx context.Context, col *Collection, args ReadArgs) (*FindResult, error) {
	raws, total, err := a.store.List(ctx, col.Slug, args.Draft, args.Limit, args.Page)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, len(raws))
	for i, raw := range raws {
		doc, err := afterread.Run(ctx, a.pipelineArgs(col, args, raw))
		if err != nil {
			return nil, err
		}
		out[i] = doc
	}

	res := &FindResult{Docs: out, TotalDocs: total, Limit: args.Limit, Page: args.Page}
	if res.Page < 1 {
		res.Page = 1
	}
	if args.Limit > 0 {
		res.TotalPages = (total + args.Limit - 1) / args.Limit
		res.HasNextPage = res.Page < res.TotalPages
		res.HasPrevPage = res.Page > 1
	} else {
		res.TotalPages = 1
	}
	return res, nil
}

func (a *API) pipelineArgs(col *Collection, args ReadArgs, doc map[string]any) afterread.Args {
	return afterread.Args{
		Fields:           col.Fields,
		Doc:              doc,
		Req:              args.Req,
		Resolver:         &storeResolver{api: a},
		Localization:     a.localization,
		Locale:           args.Locale,
		FallbackLocale:   args.FallbackLocale,
		Depth:            args.Depth,
		Draft:            args.Draft,
		FlattenLocales:   args.Locale != locale.All,
		ShowHiddenFields: args.ShowHiddenFields,
	}
}

// withLocaleDefaults fills the request's locale settings from the
// localization config. Without localization both stay empty and the
// pipeline skips hoisting.
func (a *API) withLocaleDefaults(args ReadArgs) ReadArgs {
	if a.localization == nil {
		args.Locale = ""
		args.FallbackLocale = ""
		return args
	}
	if args.Locale == "" {
		args.Locale = a.localization.Default
	}
	if args.FallbackLocale == "" {
		args.FallbackLocale = a.localization.Fallback
	}
	return args
}

// storeResolver adapts the registry and store to the pipeline's
// population seam: it pairs each fetched document with its collection's
// schema.
type storeResolver struct {
	api *API
}

func (r *storeResolver) ResolveDocument(ctx context.Context, req afterread.ResolveRequest) (*afterread.ResolvedDocument, error) {
	col, ok := r.api.registry.Get(req.Collection)
	if !ok {
		// A reference into an unregistered collection reads as dangling.
		return nil, nil
	}
	id, ok := req.ID.(string)
	if !ok {
		return nil, nil
	}
	doc, err := r.api.store.Get(ctx, col.Slug, id, req.Draft)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &afterread.ResolvedDocument{Doc: doc, Fields: col.Fields}, nil
}
