package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks ingestion-time failures: a required column is
	// missing or a source file cannot be parsed. Fatal at startup -- the
	// service must not answer queries over a partially loaded store.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownMetric marks an aggregation request for a metric the
	// dataset does not carry. Recovered by falling back to DefaultMetric.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInsufficientEvidence marks a retrieval that did not clear the
	// relevance gate. Recovered by answering NoEvidenceAnswer verbatim.
	ErrInsufficientEvidence = errors.New("insufficient evidence")

	// ErrTemporary marks transient external-service failures (embedding,
	// search, generation). Retryable by re-submitting the same query.
	ErrTemporary = errors.New("temporary failure")

	// ErrNotReady marks queries arriving before initialization finished.
	ErrNotReady = errors.New("system not ready")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
