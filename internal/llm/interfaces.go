package llm

import "context"

// TextGenerator is the interface for LLM text completion. The transform
// prompt uses single-string completion style (not chat).
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings,
// used for related-note lookup. Optional: not every provider supports it.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}
