// Package logging builds the structured slog loggers used across Lichtwerk.
//
// New selects between a human-oriented console handler and a JSON handler,
// while NewFromConfig derives outputs from the configured log directory. Field
// constants keep attribute names consistent (component, job_id, step, stack_id)
// and WithContext lifts identifiers stored on a context by the services
// package onto a logger.
package logging
