// Package api defines wire-format types and converters for the HTTP backend
// protocol. It translates internal order models into transport-friendly DTOs
// that internal/server writes and internal/backend/httpbackend reads, so both
// sides agree on one JSON shape without sharing internal structs.
//
// # Key Types
//
// Job, Asset, Stack: transport representations of the order model.
//
// StackSet: the authoritative asset and stack state of a job with its revision.
//
// CommitRequest/CommitResponse: the single atomic lock payload.
//
// ErrorResponse: error body carrying a machine-readable Code plus the stack,
// problem, or file lists of typed errors.
//
// # Converters
//
// FromJob/ToJob, FromAsset/ToAsset, FromStack/ToStack, FromStackSet/ToStackSet
// convert in both directions. Timestamps use RFC3339 with milliseconds,
// capture times keep full precision because bracket detection compares them.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Directives and tours are passed as their
// domain types, which already carry stable JSON tags.
package api
