// Package ollama implements strategy.Embedder against a local Ollama
// server's /api/embeddings endpoint. The HTTP client shape (5-minute
// timeout, context-aware requests) is grounded on james-see-dream-ai's
// internal/ollama/client.go and internal/embeddings/text.go; the
// retry/backoff loop and dual-shape JSON decode (OpenAI-compatible
// {data:[{embedding}]} first, falling back to Ollama-native
// {embedding:[...]}) are carried over from the teacher's
// internal/embedding/openai/openai.go so the same client tolerates either
// an Ollama server or an OpenAI-compatible proxy in front of it.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/strategy"
)

const defaultBaseURL = "http://localhost:11434"
const defaultModel = "nomic-embed-text"
const defaultMaxRetries = 3

// Config configures the Ollama embedding client.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Embedder is a strategy.Embedder backed by a remote Ollama (or
// OpenAI-compatible) embeddings endpoint. Its dimension is fixed by the
// upstream model and is learned lazily on the first successful Embed
// call, unlike tfidf's corpus-dependent Fit step — it does not implement
// strategy.Fittable.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	dimension  int
}

// New constructs an Embedder, filling unset Config fields with defaults
// matching the teacher's client (5 minute timeout, localhost:11434).
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Embedder{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}
}

func (e *Embedder) ID() string       { return "ollama:" + e.model }
func (e *Embedder) Normalized() bool { return false }

// Dimension returns 0 until the first successful Embed call has observed
// the model's actual output size.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed requests a single embedding, retrying transient failures with
// exponential backoff.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, rerr.Wrap(rerr.KindInput, errors.New("ollama: empty text"))
	}

	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	payload := map[string]any{"model": e.model, "prompt": text}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, rerr.Wrap(rerr.KindProgrammer, err)
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		vec, err := e.doEmbed(ctx, url, data)
		if err == nil {
			if e.dimension == 0 {
				e.dimension = len(vec)
			}
			return vec, nil
		}
		lastErr = err
		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				return nil, rerr.Wrap(rerr.KindCancel, ctx.Err())
			case <-time.After(retryDelay(attempt)):
			}
		}
	}
	return nil, rerr.Wrap(rerr.KindTransient, lastErr)
}

// EmbedBatch embeds every text independently, one request each — Ollama's
// /api/embeddings has no native batch shape.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Embedder) doEmbed(ctx context.Context, url string, body []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embeddings error: %d - %s", resp.StatusCode, string(msg))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var openaiShape struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiShape); err == nil {
		if len(openaiShape.Data) > 0 && len(openaiShape.Data[0].Embedding) > 0 {
			return openaiShape.Data[0].Embedding, nil
		}
	}

	var nativeShape struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &nativeShape); err == nil {
		if len(nativeShape.Embedding) > 0 {
			return nativeShape.Embedding, nil
		}
	}

	return nil, errors.New("ollama: no embedding in response")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

var _ strategy.Embedder = (*Embedder)(nil)
