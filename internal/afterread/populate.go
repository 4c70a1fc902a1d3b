package afterread

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	eventbus "github.com/quillcms/quill/internal/eventbus"
	events "github.com/quillcms/quill/internal/events"
	field "github.com/quillcms/quill/internal/field"
)

// Resolver is the document-store seam used by deferred population
// tasks.
//
// Contract
//   - The pipeline calls ResolveDocument once per (collection, id)
//     reference it populates. Calls for one drain may run concurrently;
//     implementations must be safe for concurrent use.
//   - Draft governs visibility: when false, draft-only documents must
//     resolve as missing.
//   - A missing document is (nil, nil), not an error; the reference then
//     reads as null. Errors are reserved for store failures and abort
//     the whole read.
//   - The returned Doc is owned by the pipeline and will be mutated;
//     implementations must return a copy, never shared storage.
//   - Fields must be the target collection's schema so the pipeline can
//     process the document before splicing it in.
type Resolver interface {
	ResolveDocument(ctx context.Context, req ResolveRequest) (*ResolvedDocument, error)
}

// ResolveRequest identifies one reference to load.
type ResolveRequest struct {
	Collection     string
	ID             any
	Draft          bool
	Locale         string
	FallbackLocale string
}

// ResolvedDocument is a raw document plus the schema to process it
// with.
type ResolvedDocument struct {
	Doc    map[string]any
	Fields []*field.Field
}

// populateTask captures one reference field occurrence. The value is
// read from the sibling at drain time.
type populateTask struct {
	field   *field.Field
	sibling map[string]any
}

// keepValue signals that a drained task found nothing to rewrite.
type keepMarker struct{}

var keepValue any = keepMarker{}

// schedulePopulation appends a deferred population task for a
// reference field. Population never runs inline: it loads another
// document and re-enters this pipeline, which must not interleave with
// the current traversal.
func (s *State) schedulePopulation(f *field.Field, sibling map[string]any) {
	s.populateTasks = append(s.populateTasks, &populateTask{field: f, sibling: sibling})
}

// DrainPopulation resolves every scheduled reference. Target documents
// are fetched and processed concurrently; write-backs into sibling
// containers happen sequentially after the join, since two tasks may
// share a sibling. A failed task aborts the read.
func (s *State) DrainPopulation(ctx context.Context) error {
	tasks := s.populateTasks
	s.populateTasks = nil
	if len(tasks) == 0 {
		return nil
	}

	start := time.Now()
	eventbus.Publish(ctx, events.PopulateStart{Tasks: len(tasks)})

	results := make([]any, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			v, err := s.populateValue(gctx, t)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	err := g.Wait()
	eventbus.Publish(ctx, events.PopulateFinish{Tasks: len(tasks), Duration: time.Since(start), Err: err})
	if err != nil {
		return err
	}

	for i, t := range tasks {
		if results[i] == keepValue {
			continue
		}
		t.sibling[t.field.Name] = results[i]
	}
	return nil
}

// populateValue computes the replacement value for one task without
// touching the sibling container.
func (s *State) populateValue(ctx context.Context, t *populateTask) (any, error) {
	f := t.field
	value, ok := t.sibling[f.Name]
	if !ok || value == nil {
		return keepValue, nil
	}

	if f.Type == field.TypeJoin {
		return s.populateJoin(ctx, f, value)
	}

	if rows, ok := value.([]any); ok {
		populated := make([]any, len(rows))
		for i, item := range rows {
			v, err := s.populateItem(ctx, f, item)
			if err != nil {
				return nil, err
			}
			populated[i] = v
		}
		return populated, nil
	}

	return s.populateItem(ctx, f, value)
}

// populateJoin rewrites the id list under a join value's "docs" key,
// preserving the surrounding envelope.
func (s *State) populateJoin(ctx context.Context, f *field.Field, value any) (any, error) {
	join, ok := value.(map[string]any)
	if !ok {
		return keepValue, nil
	}
	ids, ok := join["docs"].([]any)
	if !ok {
		return keepValue, nil
	}
	populated := make([]any, len(ids))
	for i, id := range ids {
		v, err := s.populateItem(ctx, f, id)
		if err != nil {
			return nil, err
		}
		populated[i] = v
	}
	join["docs"] = populated
	return join, nil
}

// populateItem resolves one stored reference. Polymorphic references
// carry a {relationTo, value} envelope and keep it after population.
func (s *State) populateItem(ctx context.Context, f *field.Field, item any) (any, error) {
	if env, ok := item.(map[string]any); ok {
		slug, _ := env["relationTo"].(string)
		if slug == "" {
			// Already populated or unrecognized shape; leave it alone.
			return item, nil
		}
		doc, err := s.populateRef(ctx, f, slug, env["value"])
		if err != nil {
			return nil, err
		}
		return map[string]any{"relationTo": slug, "value": doc}, nil
	}
	if len(f.RelationTo) == 0 {
		return item, nil
	}
	return s.populateRef(ctx, f, f.RelationTo[0], item)
}

// populateRef loads one referenced document and runs the read pipeline
// on it with the depth counter advanced. Beyond the depth limit the
// bare id stays; a dangling reference reads as null.
func (s *State) populateRef(ctx context.Context, f *field.Field, collection string, id any) (any, error) {
	if s.resolver == nil || s.depth <= 0 || s.currentDepth >= s.depth {
		return id, nil
	}
	res, err := s.resolver.ResolveDocument(ctx, ResolveRequest{
		Collection:     collection,
		ID:             id,
		Draft:          s.draft,
		Locale:         s.locale,
		FallbackLocale: s.fallbackLocale,
	})
	if err != nil {
		return nil, fmt.Errorf("populate %s from %s[%v]: %w", f.Name, collection, id, err)
	}
	if res == nil || res.Doc == nil {
		return nil, nil
	}
	return Run(ctx, Args{
		Fields:           res.Fields,
		Doc:              res.Doc,
		Req:              s.req,
		Resolver:         s.resolver,
		Localization:     s.localization,
		Locale:           s.locale,
		FallbackLocale:   s.fallbackLocale,
		Depth:            s.depth,
		CurrentDepth:     s.currentDepth + 1,
		Draft:            s.draft,
		FlattenLocales:   s.flatten,
		OverrideAccess:   s.overrideAccess,
		ShowHiddenFields: s.showHidden,
	})
}
