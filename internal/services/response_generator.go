package services

import (
	"context"
	"fmt"
	"strings"

	"aletheia/internal/models"
)

// GenerationInput is everything the response-generation collaborator sees:
// the windowed history (never the full transcript), the session's merged
// topics, and any retrieved semantic-memory context.
type GenerationInput struct {
	Message   string
	History   []models.Message
	Topics    []string
	Retrieved []string
}

// ResponseGenerator is the capability interface for producing assistant reply
// content. Implementations may call out to an LLM; the engine always falls
// back to StubGenerator when a live generator fails, because an empty
// assistant turn is never an acceptable response.
type ResponseGenerator interface {
	Generate(ctx context.Context, in GenerationInput) (string, error)
}

// StubGenerator is the deterministic local fallback. Its output depends only
// on the input, so turns remain testable with every external integration down.
type StubGenerator struct{}

// Generate produces a templated exploratory reply
func (g *StubGenerator) Generate(ctx context.Context, in GenerationInput) (string, error) {
	preview := strings.TrimSpace(in.Message)
	if runes := []rune(preview); len(runes) > 50 {
		// Truncate on a rune boundary so multi-byte input stays valid UTF-8
		preview = string(runes[:50])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I understand you're interested in %s... Let me help you explore this further. ", preview)

	if len(in.Topics) > 0 {
		focus := in.Topics
		if len(focus) > 2 {
			focus = focus[:2]
		}
		fmt.Fprintf(&b, "Based on our conversation about %s, I can suggest some related ideas.", strings.Join(focus, ", "))
	} else {
		b.WriteString("What specific aspects would you like to explore?")
	}

	if len(in.Retrieved) > 0 {
		fmt.Fprintf(&b, " I also found %d related notes from earlier conversations.", len(in.Retrieved))
	}

	return b.String(), nil
}
