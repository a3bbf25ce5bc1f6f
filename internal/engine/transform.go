// Package engine contains the core pipeline around tubuyaki records: the
// transform engine that turns raw text into structured data via an LLM call,
// the lifecycle manager that orchestrates create/reprocess state transitions,
// and the read-side query, feedback, and related-note services.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/snagasawa/tubuyaki/internal/llm"
)

// TransformEngine converts raw captured text into a structured result with a
// single LLM call. It has no side effects beyond the outbound call: callers
// own all persistence. A nil text generator means no credentials are
// configured; HasCredentials reports that so the lifecycle manager can route
// to pending status instead of calling.
type TransformEngine struct {
	generator llm.TextGenerator
	policy    llm.SummaryPolicy
}

// NewTransformEngine creates a transform engine. The generator may be nil
// (no credentials configured). An unknown policy falls back to the adaptive
// default.
func NewTransformEngine(generator llm.TextGenerator, policy llm.SummaryPolicy) *TransformEngine {
	if !llm.IsValidSummaryPolicy(policy) {
		policy = llm.PolicyAdaptive
	}
	return &TransformEngine{
		generator: generator,
		policy:    policy,
	}
}

// HasCredentials reports whether a text generator is configured.
func (e *TransformEngine) HasCredentials() bool {
	return e != nil && e.generator != nil
}

// Transform runs one transform call and returns the normalized result.
// A failed call, an empty response, or unparseable output is a single
// failure: no retries.
func (e *TransformEngine) Transform(ctx context.Context, rawText string) (*llm.TransformResult, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("rawText must not be empty")
	}
	if !e.HasCredentials() {
		return nil, fmt.Errorf("no LLM credentials configured")
	}

	prompt := llm.TransformPrompt(rawText, e.policy)
	response, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("transform call failed: %w", err)
	}

	result, err := llm.ParseTransformResponse(response, rawText)
	if err != nil {
		return nil, fmt.Errorf("transform response invalid: %w", err)
	}
	return result, nil
}

// Policy returns the summary policy in effect.
func (e *TransformEngine) Policy() llm.SummaryPolicy {
	return e.policy
}
