// Package afterread implements the document read pipeline: a recursive
// traversal of a document's field schema that applies locale flattening,
// per-type sanitization, ordered after-read hook chains, field-level
// read access control, default values, and deferred relationship
// population.
//
// # Overview
//
// A read processes one document at a time. The traversal walks the
// collection's field schema in declaration order and, per field, runs a
// fixed pipeline:
//
//  1. Path resolution — compute the field's instance path (string and
//     int segments, including array/block indices) and schema path
//     (string segments only; unnamed structural fields contribute a
//     synthetic "_index-<n>" segment).
//  2. Locale hoisting — when flattening is requested and the field is
//     localized, collapse its locale→value map to the requested locale,
//     substituting the fallback locale for missing values (and for
//     empty strings on text-like fields). Runs before sanitization and
//     hooks so they observe single-locale data.
//  3. Sanitization — per-type normalization: group and named-tab slots
//     are coerced to objects, point geometry is collapsed to its
//     coordinate pair (or dropped when malformed), and richText fields
//     fail fast when their editor adapter is missing or unresolved.
//  4. Hooks, access, defaults, population scheduling — bundled into one
//     field task appended to the state's task queue. The task runs the
//     field's after-read hooks strictly in order (with concurrent
//     per-locale fan-out when the value is still a locale map), then
//     the read-access rule (denial deletes the key and suppresses the
//     default), then default substitution, and finally schedules a
//     population task for reference fields.
//
// After the pipeline, the traversal recurses into nested containers:
// group objects, array and blocks rows (blocks rows select their
// sub-schema by discriminator tag; unknown tags are skipped untouched),
// transparent row/collapsible wrappers, and tabs. RichText content is
// opaque; only its adapter's hook chain runs.
//
// # Two-phase drain
//
// Traversal itself performs only the synchronous steps (hoisting,
// sanitization, structural coercion) and queue appends. The caller then
// drains the two queues in order:
//
//	s := afterread.NewState(args)
//	err := s.TraverseFields(args.Fields, args.Doc, nil, nil)
//	err = s.DrainFieldTasks(ctx)  // hooks, access, defaults
//	err = s.DrainPopulation(ctx)  // deferred reference resolution
//
// Run composes the three phases. Field tasks run sequentially in append
// order, so a nested field's hooks always observe its parent container
// field's post-hook value. Population is deferred past the whole
// traversal because resolving a reference loads another document's
// schema and runs this same pipeline on it up to the requested depth;
// interleaving that with the current document's traversal would tangle
// depth bookkeeping and mutate unrelated documents mid-walk.
//
// Population tasks fetch their target documents concurrently and write
// results back single-threaded after the join, so no two goroutines
// ever mutate the same sibling container.
//
// # Errors
//
// A misconfigured richText field aborts the read immediately with a
// *field.ConfigError. Access denial is not an error: the field's key is
// silently removed. A failing population task aborts the read when the
// population queue is drained; there is no partial-result fallback.
// Malformed document data (bad point geometry, unknown block tags,
// non-array array values) is tolerated by coercion or omission.
package afterread
