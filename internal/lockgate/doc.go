// Package lockgate is the single validation checkpoint before a job is
// irreversibly locked for production.
//
// Gate.Lock refuses to commit while any stack lacks a room type or the tour
// graph is inconsistent, sending the workflow back to room assignment. When
// validation passes it compiles the directives, serializes the tour, and
// issues exactly one commit; only an acknowledged commit marks the job
// locked.
package lockgate
