// Package order holds the domain model of a photography order: jobs, uploaded
// assets, production stacks, the closed room-type enumeration, and the
// workflow state a job moves through before it is locked for editing.
//
// Treat this package as the single source of truth for enum values; when a
// new stack type or room type is added, extend the ordered lists here so
// parsing, validation, and presentation stay in sync.
package order
