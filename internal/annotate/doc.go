// Package annotate records per-stack room types and comments and maintains
// the panorama tour graph for a job.
//
// Room type and comment changes are written through to the backend before the
// local inventory changes, so an authoritative refetch keeps them. Tour edits
// stay local until the lock gate commits them. Every mutator is a silent no-op
// once the job is locked.
package annotate
