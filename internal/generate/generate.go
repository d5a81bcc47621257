// Package generate implements the external generative/polish model
// collaborator (spec §6/§9) as two strategy.Registry members: an
// Ollama-backed Generator that drafts an answer from retrieved chunks, and
// a Polish PostProcessor that rewrites it. Both wrap the same
// /api/generate HTTP shape used for the fixed-model collaborator,
// grounded on james-see-dream-ai's internal/ollama/client.go streaming
// decode loop (json.Decoder reading a sequence of {response, done}
// frames until done=true).
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/localcorpus/ragengine/internal/core"
	"github.com/localcorpus/ragengine/internal/rerr"
	"github.com/localcorpus/ragengine/internal/strategy"
)

const defaultBaseURL = "http://localhost:11434"
const defaultModel = "llama3.2"

// request mirrors Ollama's /api/generate body; Stream is always true here
// since the client always consumes the streaming decode loop.
type request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// frame mirrors one decoded line of a streaming /api/generate response.
type frame struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Client is the shared low-level Ollama generation transport used by both
// Generator and Polish.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient constructs a Client, defaulting to localhost:11434 and a
// 5-minute timeout to accommodate slow local model generation, matching
// the teacher's Ollama client timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// complete runs one streaming prompt-completion round trip, concatenating
// every response frame until done=true.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{Model: c.model, Prompt: prompt, Stream: true})
	if err != nil {
		return "", rerr.Wrap(rerr.KindProgrammer, err)
	}

	url := fmt.Sprintf("%s/api/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", rerr.Wrap(rerr.KindProgrammer, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", rerr.Wrap(rerr.KindTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", rerr.Wrap(rerr.KindTransient, fmt.Errorf("ollama generate error: %d - %s", resp.StatusCode, string(msg)))
	}

	var out strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var f frame
		if err := decoder.Decode(&f); err != nil {
			if err == io.EOF {
				break
			}
			return "", rerr.Wrap(rerr.KindTransient, err)
		}
		out.WriteString(f.Response)
		if f.Done {
			break
		}
	}
	return out.String(), nil
}

// Generator is the strategy.Generator realized against a Client: it
// builds a grounded prompt from the top chunks and the question, asking
// the model to answer only from the supplied context.
type Generator struct {
	client *Client
}

// NewGenerator wraps client as a strategy.Generator.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) ID() string { return "ollama-chat" }

// Generate asks the model to answer question using only chunks as
// context, returning the raw completion alongside diagnostic metadata.
func (g *Generator) Generate(ctx context.Context, question string, chunks []core.Chunk) (string, map[string]any, error) {
	prompt := buildPrompt(question, chunks)
	answer, err := g.client.complete(ctx, prompt)
	if err != nil {
		return "", nil, err
	}
	meta := map[string]any{
		"modelId":       g.client.model,
		"chunksUsed":    len(chunks),
		"contextLength": len(prompt),
	}
	return strings.TrimSpace(answer), meta, nil
}

func buildPrompt(question string, chunks []core.Chunk) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. If the context does not contain the answer, say so.\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, c.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// Polish is the strategy.PostProcessor realized against a Client: it asks
// the model to tighten grammar and clarity of a draft answer without
// changing its factual content. A failure is returned to the caller, which
// keeps its existing answer.
type Polish struct {
	client *Client
}

// NewPolish wraps client as a strategy.PostProcessor.
func NewPolish(client *Client) *Polish {
	return &Polish{client: client}
}

func (p *Polish) ID() string { return "polish" }

// Process asks the model to rewrite answer for clarity. Callers are
// expected to fall back to the original answer on a non-nil error; Process
// itself does not swallow errors so the orchestrator can log them.
func (p *Polish) Process(ctx context.Context, answer, question string, chunks []core.Chunk) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return answer, nil
	}
	prompt := fmt.Sprintf(
		"Rewrite the following answer to be clearer and more concise without changing its meaning or adding new facts.\n\nQuestion: %s\n\nAnswer: %s\n\nRewritten answer:",
		question, answer,
	)
	polished, err := p.client.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	polished = strings.TrimSpace(polished)
	if polished == "" {
		return answer, nil
	}
	return polished, nil
}

var (
	_ strategy.Generator     = (*Generator)(nil)
	_ strategy.PostProcessor = (*Polish)(nil)
)
