// Package errors defines the error kinds the monitoring engine uses to
// decide retry, circuit-breaker, and propagation behavior: transient and
// permanent fetch failures, extraction, vectorization, classifier,
// storage, schedule, and invariant errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifiers and stores compare against with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrServiceUnavailable   = errors.New("service unavailable")
	ErrAbstained            = errors.New("classifier abstained")
)

// WrapError wraps err with additional context, returning nil for a nil err.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps err with a formatted context message.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ValidationError reports a field-level validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// FetchErrorKind distinguishes fetch failures the scheduler and workflow
// engine treat differently: transient failures are retried and count
// toward circuit-breaker trips, permanent failures are not retried.
type FetchErrorKind int

const (
	FetchUnknown FetchErrorKind = iota
	FetchDNS
	FetchTLS
	FetchHTTPError
	FetchTimeout
	FetchRenderFailure
	FetchPermanentHTTP
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchDNS:
		return "dns"
	case FetchTLS:
		return "tls"
	case FetchHTTPError:
		return "http_error"
	case FetchTimeout:
		return "timeout"
	case FetchRenderFailure:
		return "render_failure"
	case FetchPermanentHTTP:
		return "permanent_http"
	default:
		return "unknown"
	}
}

// Transient reports whether this fetch failure kind should be retried and
// contribute to circuit-breaker failure counts.
func (k FetchErrorKind) Transient() bool {
	return k != FetchPermanentHTTP
}

// FetchError represents a typed navigation failure from the browser pool.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Wrapped    error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed for '%s': status=%d: %v", e.Kind, e.URL, e.StatusCode, e.Wrapped)
	}
	return fmt.Sprintf("fetch %s failed for '%s': %v", e.Kind, e.URL, e.Wrapped)
}

func (e *FetchError) Unwrap() error { return e.Wrapped }

func NewFetchError(url string, kind FetchErrorKind, statusCode int, wrapped error) *FetchError {
	return &FetchError{URL: url, Kind: kind, StatusCode: statusCode, Wrapped: wrapped}
}

// ExtractionError means the fetched content could not be parsed into an
// ExtractedContent. It is fatal to the check that produced it.
type ExtractionError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for '%s': %s", e.URL, e.Reason)
}
func (e *ExtractionError) Unwrap() error { return e.Wrapped }

func NewExtractionError(url, reason string, wrapped error) *ExtractionError {
	return &ExtractionError{URL: url, Reason: reason, Wrapped: wrapped}
}

// VectorizationError means embeddings could not be computed. Non-fatal:
// the classifier proceeds without vectors.
type VectorizationError struct {
	Reason  string
	Wrapped error
}

func (e *VectorizationError) Error() string { return fmt.Sprintf("vectorization failed: %s", e.Reason) }
func (e *VectorizationError) Unwrap() error { return e.Wrapped }

func NewVectorizationError(reason string, wrapped error) *VectorizationError {
	return &VectorizationError{Reason: reason, Wrapped: wrapped}
}

// ClassifierError means a single sub-classifier failed and must abstain;
// the ensemble proceeds with the remaining classifiers.
type ClassifierError struct {
	Classifier string
	Reason     string
	Wrapped    error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier '%s' abstained: %s", e.Classifier, e.Reason)
}
func (e *ClassifierError) Unwrap() error { return e.Wrapped }

func NewClassifierError(classifier, reason string, wrapped error) *ClassifierError {
	return &ClassifierError{Classifier: classifier, Reason: reason, Wrapped: wrapped}
}

// StorageError means a store operation failed. Persist is retried once
// within a workflow; if it still fails the job is marked failed.
type StorageError struct {
	Operation string
	Wrapped   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation '%s' failed: %v", e.Operation, e.Wrapped)
}
func (e *StorageError) Unwrap() error { return e.Wrapped }

func NewStorageError(operation string, wrapped error) *StorageError {
	return &StorageError{Operation: operation, Wrapped: wrapped}
}

// ScheduleError means a cron or interval expression was malformed.
// Registration is rejected and no job is created.
type ScheduleError struct {
	Expression string
	Reason     string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule '%s': %s", e.Expression, e.Reason)
}

func NewScheduleError(expression, reason string) *ScheduleError {
	return &ScheduleError{Expression: expression, Reason: reason}
}

// InvariantViolation marks a bug that must not be silently tolerated —
// the process should surface it via the health endpoint rather than
// continue on corrupted state.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", e.Invariant, e.Detail)
}

func NewInvariantViolation(invariant, detail string) *InvariantViolation {
	return &InvariantViolation{Invariant: invariant, Detail: detail}
}
