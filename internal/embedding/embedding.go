package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Provider maps texts to fixed-dimension vectors, preserving input order.
// It is an external collaborator; the index build and the query engine are
// its only callers.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ProviderError distinguishes rate-limit style failures, which the index
// build retries with backoff, from fatal ones, which abort immediately.
type ProviderError struct {
	Status    int
	Retryable bool
	Message   string
}

func (e *ProviderError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("embedding provider error (%s, status %d): %s", kind, e.Status, e.Message)
}

// IsRetryable reports whether err is a provider error worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
