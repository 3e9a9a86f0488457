// Package server exposes the authoritative backend over HTTP.
//
// The chi router serves the backend protocol consumed by
// internal/backend/httpbackend: job administration, multipart uploads, stack
// listing, per-stack annotations and the atomic commit. Stored media bytes
// are served below /media/. Every route except /api/health requires the
// configured bearer token when one is set.
//
// Errors are translated with api.FromError so clients can recover the
// services error classification from the status code and body.
package server
