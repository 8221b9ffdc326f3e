package analysis

import (
	"context"
	"encoding/json"
	"log"

	"github.com/jonathan/website-analyzer/internal/llm"
)

// Artifact is the result of a single model call. Gateway methods never return
// an error; failures are carried in the artifact so a batch of analyses can
// always complete.
type Artifact struct {
	// Markdown holds free-text output for prose artifacts.
	Markdown string
	// Structured holds the decoded payload for JSON artifacts.
	Structured any
	// Failed is set when the call or response handling went wrong.
	Failed bool
	// ErrorDetail describes the failure.
	ErrorDetail string
	// RawResponse preserves the model output when JSON decoding failed.
	RawResponse string
}

// Value returns the artifact in the shape stored in job results and returned
// by the API: a string for prose, a decoded payload for JSON, or an error
// payload when the call failed.
func (a Artifact) Value() any {
	if a.Failed {
		if a.RawResponse != "" {
			return map[string]any{
				"error":        a.ErrorDetail,
				"raw_response": a.RawResponse,
			}
		}
		return "Error: Unable to complete analysis - " + a.ErrorDetail
	}
	if a.Structured != nil {
		return a.Structured
	}
	return a.Markdown
}

// Gateway wraps an LLM client with pacing and failure capture.
type Gateway struct {
	client llm.Client
	pacer  *Pacer
}

// NewGateway creates a gateway. A nil pacer disables call pacing; a nil
// client (no API key configured) fails every call into an error artifact
// so the server can run without a credential.
func NewGateway(client llm.Client, pacer *Pacer) *Gateway {
	return &Gateway{client: client, pacer: pacer}
}

// Text runs a prose generation call.
func (g *Gateway) Text(ctx context.Context, systemPrompt, userPrompt string, tier llm.ModelTier) Artifact {
	if g.client == nil {
		return failure("AI model not configured")
	}
	if err := g.pacer.Wait(ctx); err != nil {
		return failure(err.Error())
	}

	text, err := g.client.GenerateContent(ctx, systemPrompt, userPrompt, tier)
	if err != nil {
		log.Printf("[analysis] model call failed: %v", err)
		return failure(err.Error())
	}
	return Artifact{Markdown: text}
}

// Structured runs a JSON-mode call and decodes the response. A response that
// is not valid JSON yields a failed artifact carrying the raw text.
func (g *Gateway) Structured(ctx context.Context, systemPrompt, userPrompt string, tier llm.ModelTier) Artifact {
	if g.client == nil {
		return failure("AI model not configured")
	}
	if err := g.pacer.Wait(ctx); err != nil {
		return failure(err.Error())
	}

	text, err := g.client.GenerateJSON(ctx, systemPrompt, userPrompt, tier)
	if err != nil {
		log.Printf("[analysis] model call failed: %v", err)
		return failure(err.Error())
	}

	var payload any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		log.Printf("[analysis] JSON parsing error: %v", err)
		return Artifact{
			Failed:      true,
			ErrorDetail: "Failed to parse AI response as JSON",
			RawResponse: text,
		}
	}
	return Artifact{Structured: payload}
}

func failure(detail string) Artifact {
	return Artifact{Failed: true, ErrorDetail: detail}
}
