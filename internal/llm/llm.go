// Package llm talks to the generative model that turns page text into a
// company profile. Two backends share the Generator contract: a plain REST
// client that speaks the generateContent wire format directly, and a client
// built on the google/generative-ai-go SDK.
package llm

import (
	"context"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Generator sends a prompt and returns the model's free-text reply.
// Failures are reported as *enricher.ExtractionError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
