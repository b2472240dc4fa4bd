// Package graph maps schema changes to the output files they invalidate.
//
// It is the intermediate step between the differ and regeneration: given
// the change records produced by comparing two schema sets, it returns
// the affected output paths, each annotated with the generator
// responsible and the reasons regeneration is required.
//
// # Static mapping
//
// The mapping from a change to output paths is a closed, deterministic
// function over the change kind and its field-level diff:
//
//	entity -> model file, plus (field-diff dependent) a dated migration,
//	          Form/Table/Modal components, an API route, and four pages
//	enum   -> enum model file plus the shared enum index file
//	page   -> a single page file
//	app    -> root layout, plus (field-diff dependent) the navigation
//	          component and the auth route
//
// When a change carries no field diff (creations, deletions, raw watcher
// records), the mapping conservatively assumes UI, API, and page
// regeneration is required.
//
// # Merging
//
// When several changes invalidate the same path, their reasons are
// appended (never deduplicated) and their schema source dependencies are
// unioned, so the merged record explains every contributing change.
//
// # Edge store
//
// The Graph additionally offers a general-purpose dependency edge store
// (AddDependency, Dependents) for ad-hoc bookkeeping by callers. The
// static mapping never consults it.
package graph
