// Package backend declares the collaborators the workflow engine consumes.
//
// Backend is the authoritative source of jobs, assets, and stacks. Two
// implementations exist: internal/store works against the local SQLite
// database and httpbackend talks to a running lichtwerkd over HTTP. The
// components never depend on either directly; each declares the narrow slice
// of Backend it needs.
package backend
