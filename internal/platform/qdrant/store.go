package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vietcv/skillpath/internal/platform/logger"
)

const maxErrorBodyBytes = 1024

// Store is a read-only REST client for the two collections the engine
// consumes: per-skill requirement vectors and per-course semantic units.
// The engine never writes points; the data factory owns indexing.
type Store struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

// Match is one scored search hit.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Point is one scrolled point with its vector and payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

func NewStore(log *logger.Logger, cfg Config) (*Store, error) {
	if log == nil {
		return nil, fmt.Errorf("qdrant: logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	s := &Store{
		log:     log.With("client", "QdrantStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	return s, nil
}

// Search runs a cosine similarity query against a collection. Matches come
// back score-descending with ties broken by id.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("qdrant: query vector required")
	}
	if s.cfg.VectorDim > 0 && len(vector) != s.cfg.VectorDim {
		return nil, fmt.Errorf("qdrant: query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector))
	}
	if topK <= 0 {
		topK = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(filter) > 0 {
		req["filter"] = filter
	}

	var raw []struct {
		ID      json.RawMessage `json:"id"`
		Score   float64         `json:"score"`
		Payload map[string]any  `json:"payload"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", collection)
	if err := s.doJSON(ctx, http.MethodPost, path, req, &raw); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(raw))
	for _, item := range raw {
		out = append(out, Match{
			ID:      decodePointID(item.ID),
			Score:   item.Score,
			Payload: item.Payload,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// ScrollAll pages through every point of a collection, vectors included.
// Used by the snapshot loader only.
func (s *Store) ScrollAll(ctx context.Context, collection string, pageSize int) ([]Point, error) {
	if pageSize <= 0 {
		pageSize = 512
	}
	var out []Point
	var offset json.RawMessage
	path := fmt.Sprintf("/collections/%s/points/scroll", collection)
	for {
		req := map[string]any{
			"limit":        pageSize,
			"with_payload": true,
			"with_vector":  true,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var page struct {
			Points []struct {
				ID      json.RawMessage `json:"id"`
				Vector  []float32       `json:"vector"`
				Payload map[string]any  `json:"payload"`
			} `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		}
		if err := s.doJSON(ctx, http.MethodPost, path, req, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Points {
			out = append(out, Point{
				ID:      decodePointID(p.ID),
				Vector:  p.Vector,
				Payload: p.Payload,
			})
		}
		if len(page.NextPageOffset) == 0 || string(page.NextPageOffset) == "null" {
			return out, nil
		}
		offset = page.NextPageOffset
	}
}

// Healthy reports reachability for the healthcheck endpoint.
func (s *Store) Healthy(ctx context.Context) bool {
	if s == nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return false
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (s *Store) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("qdrant: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("qdrant: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("qdrant: decode response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("qdrant: decode result: %w", err)
	}
	return nil
}

// decodePointID renders a qdrant point id (string or integer JSON) as a
// plain string.
func decodePointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}
