// Package schema defines the value types for the schemaforge schema model.
//
// A [Set] is the aggregate root: maps of entity, enum, and page schemas
// keyed by name, plus exactly one app schema. Sets are produced by the
// loader, compared by the differ, and consumed by generators. Once built,
// a Set and the schemas inside it are treated as immutable values.
//
// Every schema object keeps two representations: typed fields for
// convenient access, and the raw decoded document for structural
// comparison. The differ operates on the documents so that unknown or
// extension fields participate in change detection.
//
// # Schema kinds
//
// The four kinds mirror the on-disk layout of a schema directory:
//
//	entities/*.json  -> KindEntity
//	enums/*.json     -> KindEnum
//	pages/*.json     -> KindPage
//	app.json         -> KindApp
//
// Object names default to the file stem; entity documents may override
// the table name explicitly.
package schema
