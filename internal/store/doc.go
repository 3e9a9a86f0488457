// Package store is the authoritative SQLite backend for jobs, assets, stack
// annotations, and lock commits.
//
// Store implements backend.Client. Uploaded bytes go to a media.BlobStore
// and the matching asset rows are inserted in one transaction; identical
// content already attached to a job is skipped. Stacks are never stored:
// FetchStacks regroups the job's assets on every call and overlays the
// persisted per-stack annotations, which stay attached because stack IDs are
// derived from their member assets.
//
// Every write bumps nothing but the job revision it changes; Commit checks the
// caller's revision and rejects stale sessions with services.ErrConflict.
package store
