package logging

import (
	"context"
	"log/slog"

	"lichtwerk/internal/services"
)

// Attribute keys shared by every component.
const (
	FieldComponent     = "component"
	FieldJobID         = "job_id"
	FieldStep          = "step"
	FieldStackID       = "stack_id"
	FieldCorrelationID = "correlation_id"

	// FieldEventType, FieldErrorHint and FieldImpact accompany warnings and
	// errors so operators can tell what happened and what to do next.
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
)

// WithContext attaches the job, step and request identifiers found on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.JobIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldJobID, id))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		args = append(args, slog.Int(FieldStep, step))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldCorrelationID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
