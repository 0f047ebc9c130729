package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/safal938/nurse-sim/core"
)

// ErrEmptyResponse is returned when a model finishes without any content.
var ErrEmptyResponse = errors.New("model returned no content")

// Collect drains a generation and returns the final content. Partial chunks
// are concatenated when the provider never emits a final response.
func Collect(ctx context.Context, m Model, req Request) (core.Content, error) {
	if err := ctx.Err(); err != nil {
		return core.Content{}, err
	}
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *core.Content
		partial strings.Builder
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Content{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Content.Text())
				continue
			}
			c := r.Content
			final = &c
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.Content{}, err
			}
		}
	}

	if final != nil {
		return *final, nil
	}
	if partial.Len() > 0 {
		return core.NewTextContent("assistant", partial.String()), nil
	}
	return core.Content{}, ErrEmptyResponse
}

// GenerateJSON runs a non-streaming generation and decodes the text output
// into out. Markdown code fences around the JSON are tolerated.
func GenerateJSON(ctx context.Context, m Model, req Request, out any) error {
	req.Stream = false
	c, err := Collect(ctx, m, req)
	if err != nil {
		return err
	}
	text := StripCodeFence(c.Text())
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode %s output: %w", m.Info().Provider, err)
	}
	return nil
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
