package embedding

import (
	"context"
	"fmt"
)

// Client produces fixed-dimension vectors for text. Implementations
// talk to an external embedding backend; everything downstream treats
// the vectors as opaque except for their dimension.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	MaxBatchSize() int
	Dimension() int
	ModelName() string
}

// UnavailableError reports that the embedding backend kept failing
// after every allowed retry. Callers map it to a bad-gateway response
// rather than a caller error.
type UnavailableError struct {
	Attempts int
	Last     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("embedding backend unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *UnavailableError) Unwrap() error { return e.Last }
