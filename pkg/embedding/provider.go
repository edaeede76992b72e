package embedding

import (
	"context"
	"errors"
)

// MaxTextLength matches the ingestion bound; longer input is rejected
// before it ever reaches a backend.
const MaxTextLength = 500

// ErrInvalidInput marks empty or oversized text. Never retried, unlike
// transient backend failures.
var ErrInvalidInput = errors.New("embedding input is empty or invalid")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

func validateInput(text string) error {
	if text == "" || len(text) > MaxTextLength {
		return ErrInvalidInput
	}
	return nil
}
