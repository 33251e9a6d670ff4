// Package embedder produces vector embeddings for document chunks and
// search queries. A local Ollama server does the real work; when it is
// unreachable a deterministic hash embedding keeps ingestion and search
// running in degraded mode.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edustack/school-content-api/internal/utils"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
	logger  *utils.Logger
}

func NewOllamaEmbedder(baseURL, model string, dim int, logger *utils.Logger) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		logger:  logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *OllamaEmbedder) Dimension() int {
	return e.dim
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns a vector for text. Failures to reach the model server are
// absorbed: the deterministic fallback embedding is returned instead so
// uploads never fail on embedding problems.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.remoteEmbed(ctx, text)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("embedding server unavailable, using fallback", "error", err)
		}
		return FallbackEmbedding(text, e.dim), nil
	}
	return vector, nil
}

func (e *OllamaEmbedder) remoteEmbed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding server returned an empty vector")
	}

	vector := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}
