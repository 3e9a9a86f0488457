// Package preflight provides readiness checks for the filesystem paths and
// the remote backend that Lichtwerk depends on.
//
// These checks run in two contexts:
//   - lichtwerkd calls RunAll at startup and refuses to serve when a data
//     directory is unusable.
//   - The CLI "lichtwerk status" command prints every result.
//
// The backend health check only runs when backend.mode is http.
package preflight
