// Package definition resolves concept definitions: stored definition
// literals first, then an optional text generator.
package definition

import (
	"context"
	"fmt"
	"strings"

	"github.com/grbba/skosdoc/llm"
)

// Generator produces a definition for a term. It may fail; callers treat
// a failure as "no definition".
type Generator interface {
	Generate(ctx context.Context, termLabel, facetContext string) (string, error)
}

// Nop is the generator used when generation is disabled. It always returns
// an empty definition.
type Nop struct{}

// Generate implements Generator.
func (Nop) Generate(context.Context, string, string) (string, error) {
	return "", nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, termLabel, facetContext string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, termLabel, facetContext string) (string, error) {
	return f(ctx, termLabel, facetContext)
}

// Completer is the part of llm.Client the LLM generator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// LLMGenerator asks a chat model for a short product-classification
// definition.
type LLMGenerator struct {
	client      Completer
	temperature float64
	maxTokens   int
}

// NewLLMGenerator creates a generator. Zero maxTokens uses 80.
func NewLLMGenerator(client Completer, temperature float64, maxTokens int) *LLMGenerator {
	if maxTokens <= 0 {
		maxTokens = 80
	}
	return &LLMGenerator{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Prompt builds the instruction sent for one term.
func Prompt(termLabel, facetContext string) string {
	var b strings.Builder
	b.WriteString("You are helping to maintain a controlled vocabulary (taxonomy) used for refining the description of products.\n")
	b.WriteString("This taxonomy follows ISO 25964 principles and contains multiple facets (top-level categories).\n\n")
	fmt.Fprintf(&b, "Facet context: %s\n", facetContext)
	fmt.Fprintf(&b, "Provide a clear, concise, and context relevant definition for the following concept: '%s' in plain English ", termLabel)
	b.WriteString("appropriate for use in product classification. Avoid repeating the term unnecessarily. ")
	b.WriteString("Do not exceed 40 words.")
	return b.String()
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, termLabel, facetContext string) (string, error) {
	temp := g.temperature
	resp, err := g.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: Prompt(termLabel, facetContext)}},
		Temperature: &temp,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate definition for %q: %w", termLabel, err)
	}
	return strings.TrimSpace(resp.Content), nil
}
