package embedding

import (
	"context"
	"math"
)

// Task types hint retrieval-tuned models about the embedding's use.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider defines the interface for generating text embeddings.
// Implementations must honor the context deadline: a timeout returns
// an error, never a hang.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// Normalize scales a vector to unit length. Cosine distance indexes
// require normalized vectors; denormalized ones silently skew scores.
func Normalize(values []float32) []float32 {
	var sum float64
	for _, v := range values {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return values
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = v / norm
	}
	return out
}
