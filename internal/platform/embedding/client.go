package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vietcv/skillpath/internal/platform/envutil"
	"github.com/vietcv/skillpath/internal/platform/logger"
)

// Client fetches embeddings from an OpenAI-compatible /v1/embeddings
// endpoint. The engine only reads vectors; model training and corpus
// indexing live in the data factory.
type Client struct {
	log     *logger.Logger
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewFromEnv builds a client from EMBEDDING_* variables. Returns
// (nil, nil) when EMBEDDING_BASE_URL is unset; callers then rely solely on
// precomputed vectors.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("embedding: logger required")
	}
	baseURL := strings.TrimRight(envutil.Str("EMBEDDING_BASE_URL", ""), "/")
	if baseURL == "" {
		return nil, nil
	}
	return &Client{
		log:     log.With("client", "EmbeddingClient"),
		baseURL: baseURL,
		apiKey:  envutil.Str("EMBEDDING_API_KEY", ""),
		model:   envutil.Str("EMBEDDING_MODEL", "text-embedding-3-small"),
		http:    &http.Client{Timeout: envutil.Dur("EMBEDDING_TIMEOUT", 20*time.Second)},
	}, nil
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if c == nil {
		return nil, fmt.Errorf("embedding: client not configured")
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"input": inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embedding: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if len(decoded.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(inputs), len(decoded.Data))
	}

	out := make([][]float32, len(inputs))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding: vector index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	return out, nil
}
