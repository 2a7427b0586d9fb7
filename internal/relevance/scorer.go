// Package relevance scores texts against a query. Two variants sit
// behind one interface: a local string-similarity scorer used for
// section title matching, and a remote cross-encoder used for
// re-ranking retrieved chunks.
package relevance

import (
	"context"
	"fmt"
)

// Scorer assigns a relevance score to each text for one query. Scores
// align with the input slice; higher means more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
	Name() string
}

// UnavailableError reports that a remote scorer could not produce
// scores. Callers degrade to their pre-scoring order instead of
// failing the query.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("relevance scorer unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }
