package llm

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"text/template"
	"time"
	"unicode/utf8"

	"flowstudio/config"
	"flowstudio/pkg/logger"
	"flowstudio/pkg/metrics"
)

//go:embed templates/*
var templatesFS embed.FS

var groundingTmpl = template.Must(template.ParseFS(templatesFS, "templates/grounding.tmpl"))

// RenderGroundingPrompt embeds the document text and query verbatim in the grounding template.
func RenderGroundingPrompt(query, documentText string) (string, error) {
	data := struct {
		Query    string
		Document string
	}{
		Query:    query,
		Document: documentText,
	}

	var buf bytes.Buffer
	if err := groundingTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generator answers a query from the text of a single document.
type Generator struct {
	provider         Provider
	timeout          time.Duration
	maxDocumentChars int
}

type Option func(*Generator)

// WithTimeout bounds every provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithMaxDocumentChars rejects longer documents before calling the provider. Zero disables the check.
func WithMaxDocumentChars(n int) Option {
	return func(g *Generator) { g.maxDocumentChars = n }
}

func NewGenerator(provider Provider, opts ...Option) *Generator {
	g := &Generator{provider: provider}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewProvider builds the provider selected by cfg.
func NewProvider(cfg config.LLM) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// NewGeneratorFromConfig builds the provider and applies the configured limits.
func NewGeneratorFromConfig(cfg config.LLM) (*Generator, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewGenerator(provider,
		WithTimeout(cfg.Timeout),
		WithMaxDocumentChars(cfg.MaxDocumentChars),
	), nil
}

// Answer returns the provider's response to the grounding prompt, unmodified.
// Every failure is a *GenerationError; there are no retries.
func (g *Generator) Answer(ctx context.Context, query, documentText string) (string, error) {
	name := g.provider.Name()

	if g.maxDocumentChars > 0 {
		if n := utf8.RuneCountInString(documentText); n > g.maxDocumentChars {
			return "", &GenerationError{
				Provider: name,
				Err:      fmt.Errorf("%w: %d characters, limit %d", ErrDocumentTooLarge, n, g.maxDocumentChars),
			}
		}
	}

	prompt, err := RenderGroundingPrompt(query, documentText)
	if err != nil {
		return "", &GenerationError{Provider: name, Err: fmt.Errorf("render prompt: %w", err)}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := g.provider.Generate(ctx, prompt)
	metrics.ObserveGeneration(name, start, err)
	if err != nil {
		// Some clients report a deadline as a plain transport error.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		logger.Sugar.Errorf("Generation with %s failed after %s: %v", name, time.Since(start), err)
		return "", &GenerationError{Provider: name, Err: err}
	}
	return answer, nil
}
