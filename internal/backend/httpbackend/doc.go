// Package httpbackend implements backend.Client against a remote lichtwerkd
// server.
//
// Network failures, undecodable replies and 5xx responses surface as
// *services.TransportError. Error bodies written by the server carry a code
// that restores the original classification: 404 becomes services.ErrNotFound,
// 409 services.ErrConflict, 415 *services.UnsupportedAssetError, and 422
// either services.ErrRejected or a validation error.
package httpbackend
