package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/safal938/nurse-sim/core"
)

// Request captures the normalized model input.
type Request struct {
	Instructions string         `json:"instructions"` // System instruction
	Contents     []core.Content `json:"contents"`     // Conversation converted to provider messages
	Stream       bool           `json:"stream,omitempty"`

	// ResponseSchema, when set, asks the provider for JSON output matching
	// the schema. SchemaName labels it for providers that require a name.
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
	SchemaName     string         `json:"schema_name,omitempty"`

	// Temperature overrides the adapter default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name                     string `json:"name"`
	Provider                 string `json:"provider"`
	SupportsStructuredOutput bool   `json:"supports_structured_output"`
}

// Model is the minimal interface required to drive generation. Implementations
// close both channels when done; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Float is a helper for Request.Temperature.
func Float(v float64) *float64 { return &v }

// MockModel is a lightweight in-memory Model useful for tests.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	fallback  string
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:                     name,
			Provider:                 provider,
			SupportsStructuredOutput: true,
		},
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

// AddResponse registers a canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// AddError registers a failure for an input prompt.
func (m *MockModel) AddError(prompt string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[prompt] = err
}

// SetFallback sets the completion used for prompts without a canned response.
// When empty the mock echoes the prompt.
func (m *MockModel) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockModel) lookup(req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(req.Contents) == 0 {
		return "", fmt.Errorf("no contents provided")
	}
	input := req.Contents[len(req.Contents)-1].Text()
	if err, ok := m.errs[input]; ok {
		return "", err
	}
	if full, ok := m.responses[input]; ok {
		return full, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return fmt.Sprintf("Mock response to: %s", input), nil
}

// Generate implements Model; emits optional streaming rune chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		full, err := m.lookup(req)
		if err != nil {
			errCh <- err
			return
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent("assistant", string(r)),
				}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Content:      core.NewTextContent("assistant", full),
			FinishReason: "stop",
		}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
