// Package ingest submits upload batches for a job and reconciles local state.
//
// A batch is filtered down to supported photo and video files, uploaded in a
// single backend call, and followed immediately by a refetch whose assets and
// stacks replace the local inventory wholesale. Failures leave the inventory
// untouched.
package ingest
