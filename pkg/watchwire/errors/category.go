// Package errors provides error categorization and retry for the
// watchwire fetch path.
//
// The merger and dispatcher never retry on their own; retry policy
// lives with the fetch collaborator, built on this package:
//   - Categorization: classify errors as transient or permanent
//   - Retry: exponential backoff with jitter for transient failures
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: rate limits, timeouts, temporary network issues.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: authentication failures, malformed requests.
	CategoryPermanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient, Context: context}
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Context: context}
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	// Already categorized errors keep their category.
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 429, 503, 504:
			return CategoryTransient
		case 400, 401, 403, 404:
			return CategoryPermanent
		default:
			if httpErr.StatusCode >= 500 {
				return CategoryTransient
			}
			return CategoryPermanent
		}
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	// Cancellation is a caller decision, never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryPermanent
	}

	// Unknown errors are permanent (fail safe).
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
