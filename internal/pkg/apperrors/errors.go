// Package apperrors defines the error taxonomy shared by the ingestion
// API and the clustering pipeline. Handlers map these kinds to HTTP
// status codes; workers use them to decide between retry and drop.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindValidation            Kind = "VALIDATION_ERROR"
	KindRateLimit             Kind = "RATE_LIMIT_ERROR"
	KindNotFound              Kind = "NOT_FOUND"
	KindEmbeddingService      Kind = "EMBEDDING_SERVICE_ERROR"
	KindClusteringConsistency Kind = "CLUSTERING_CONSISTENCY_ERROR"
	KindNotificationDelivery  Kind = "NOTIFICATION_DELIVERY_ERROR"
)

type AppError struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // only meaningful for rate limit errors
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewRateLimit(retryAfter time.Duration) *AppError {
	return &AppError{
		Kind:       KindRateLimit,
		Message:    "submission rate limit exceeded",
		RetryAfter: retryAfter,
	}
}

func NewNotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewEmbeddingService wraps a transient embedding backend failure.
// These are retryable; invalid-input failures are KindValidation instead.
func NewEmbeddingService(err error) *AppError {
	return &AppError{Kind: KindEmbeddingService, Message: "embedding backend failure", Err: err}
}

// NewClusteringConsistency marks an internal invariant violation. The
// operation that produced it must abort without committing.
func NewClusteringConsistency(message string) *AppError {
	return &AppError{Kind: KindClusteringConsistency, Message: message}
}

func NewNotificationDelivery(err error) *AppError {
	return &AppError{Kind: KindNotificationDelivery, Message: "notification delivery failed", Err: err}
}

// KindOf extracts the Kind from an error chain, or "" if it is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsRetryable reports whether the pipeline should retry the operation.
func IsRetryable(err error) bool {
	return KindOf(err) == KindEmbeddingService
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
