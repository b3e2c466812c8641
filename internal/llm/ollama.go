package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaClient generates with a model served by a local Ollama daemon.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient returns a client for host. An empty host selects the local default.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if host == "" {
		host = defaultOllamaHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}
	return &OllamaClient{
		client: api.NewClient(base, &http.Client{}),
		model:  model,
	}, nil
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var out strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	return out.String(), nil
}
