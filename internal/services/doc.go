// Package services defines shared utilities consumed by the workflow
// components and their backend collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, workflow steps, and correlation
//     identifiers for logging.
//   - Structured error markers, typed errors, and the Wrap helper that keep
//     transport, validation, and ingestion failures distinguishable with
//     errors.Is / errors.As at every boundary.
//
// Use these helpers when wiring new components so operational behaviour (error
// classification, retries, observability) stays uniform across the engine.
package services
