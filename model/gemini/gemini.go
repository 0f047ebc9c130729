// Package gemini provides an implementation of model.Model on the Google Gen
// AI SDK, against either the Gemini API or Vertex AI. Structured requests use
// the native JSON response schema support.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

// ClientConfig selects the backend for NewClient.
type ClientConfig struct {
	// VertexAI selects Vertex AI; otherwise the Gemini API is used.
	VertexAI bool
	Project  string
	Location string
	APIKey   string
}

// NewClient creates a genai client for the configured backend.
func NewClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.VertexAI {
		cc = &genai.ClientConfig{Backend: genai.BackendVertexAI, Project: cfg.Project, Location: cfg.Location}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// Options configure the Gemini model adapter.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int32
}

// Model wraps genai Models behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModelFromClient creates a model bound to an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "gemini-2.5-flash-lite",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		contents := buildContents(req.Contents)
		if len(contents) == 0 {
			errCh <- errors.New("no contents provided")
			return
		}
		cfg := m.buildConfig(req)
		if req.Stream {
			m.handleStreaming(ctx, contents, cfg, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, contents, cfg, out, errCh)
	}()
	return out, errCh
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	temp := m.opts.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if m.opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = m.opts.MaxOutputTokens
	}
	if req.Instructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.Instructions)}}
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.ResponseSchema
	}
	return cfg
}

// buildContents maps normalized roles onto genai roles; system contents are
// folded into user turns.
func buildContents(contents []core.Content) []*genai.Content {
	var out []*genai.Content
	for _, c := range contents {
		text := c.Text()
		if text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if c.Role == "assistant" || c.Role == "model" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(text, role))
	}
	return out
}

func (m *Model) handleStreaming(
	ctx context.Context,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	var (
		full   string
		id     string
		finish = "stop"
	)
	for resp, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, cfg) {
		if err != nil {
			errCh <- fmt.Errorf("gemini streaming error: %w", err)
			return
		}
		id = resp.ResponseID
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			finish = string(resp.Candidates[0].FinishReason)
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		full += delta
		out <- model.Response{ID: id, Partial: true, Content: core.NewTextContent("assistant", delta)}
	}
	out <- model.Response{ID: id, Content: core.NewTextContent("assistant", full), FinishReason: finish}
}

func (m *Model) handleNonStreaming(
	ctx context.Context,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, cfg)
	if err != nil {
		errCh <- fmt.Errorf("gemini api error: %w", err)
		return
	}
	r := model.Response{
		ID:           resp.ResponseID,
		Content:      core.NewTextContent("assistant", resp.Text()),
		FinishReason: "stop",
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		r.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		r.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	out <- r
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:                     m.opts.Model,
		Provider:                 "gemini",
		SupportsStructuredOutput: true,
	}
}
