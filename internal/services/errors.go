package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport        = errors.New("transport error")
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedAsset = errors.New("unsupported asset")
	ErrNotFound         = errors.New("not found")
	ErrRejected         = errors.New("rejected by backend")
	ErrConflict         = errors.New("revision conflict")
	ErrConfiguration    = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// TransportError reports an upload, fetch, or commit failure between the
// engine and its backend. Local state is never changed when one is returned.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ErrTransport.Error()
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrTransport, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// NewTransportError wraps err as a TransportError for the named operation.
// Errors that already classify as transport failures are returned unchanged.
func NewTransportError(op string, err error) error {
	var existing *TransportError
	if errors.As(err, &existing) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// ValidationError lists the stacks (and tour problems) that block a lock.
type ValidationError struct {
	Stacks   []string
	Problems []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, 2)
	if n := len(e.Stacks); n > 0 {
		noun := "stacks"
		if n == 1 {
			noun = "stack"
		}
		parts = append(parts, fmt.Sprintf("%d %s missing room type", n, noun))
	}
	parts = append(parts, e.Problems...)
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Count returns the number of stacks missing a room type.
func (e *ValidationError) Count() int {
	if e == nil {
		return 0
	}
	return len(e.Stacks)
}

// UnsupportedAssetError names the files excluded at ingestion.
type UnsupportedAssetError struct {
	Files []string
}

func (e *UnsupportedAssetError) Error() string {
	if e == nil || len(e.Files) == 0 {
		return ErrUnsupportedAsset.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnsupportedAsset, strings.Join(e.Files, ", "))
}

func (e *UnsupportedAssetError) Unwrap() error { return ErrUnsupportedAsset }

// OversizedAssetError names supported files that exceed the per-file upload
// limit. It is a validation failure, not a type problem.
type OversizedAssetError struct {
	Files []string
	Limit int64
}

func (e *OversizedAssetError) Error() string {
	return fmt.Sprintf("%s: %s larger than %d bytes", ErrValidation, strings.Join(e.Files, ", "), e.Limit)
}

func (e *OversizedAssetError) Unwrap() error { return ErrValidation }

// Kind returns a short classification used for logging and HTTP mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnsupportedAsset):
		return "unsupported_asset"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}

// Retryable reports whether repeating the same operation may succeed without
// any change to local state.
func Retryable(err error) bool {
	switch Kind(err) {
	case "transport", "rejected":
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
