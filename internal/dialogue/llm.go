package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/scena/internal/ollama"
)

const replyTimeout = 10 * time.Second

// Chatter is the interface for chat completion via a local model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// LLMResponder generates replies with a local model, grounding the prompt in
// the deterministic match results. On any failure it falls back to the
// template responder so the conversation never stalls.
type LLMResponder struct {
	client   Chatter
	model    string
	fallback Responder
}

// NewLLMResponder creates an LLMResponder. fallback must not be nil.
func NewLLMResponder(client Chatter, model string, fallback Responder) *LLMResponder {
	return &LLMResponder{client: client, model: model, fallback: fallback}
}

// Reply asks the model to phrase the turn's result conversationally.
func (r *LLMResponder) Reply(ctx context.Context, t Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	out, err := r.client.Chat(ctx, r.model, []ollama.Message{
		{Role: "system", Content: "You are a concise casting assistant. Present the prepared " +
			"match results conversationally. Never invent candidates or scores that are not in the data."},
		{Role: "user", Content: buildReplyPrompt(t)},
	}, nil)
	if err != nil || strings.TrimSpace(out) == "" {
		slog.Warn("generative reply failed, using template responder", "error", err)
		return r.fallback.Reply(ctx, t)
	}
	return strings.TrimSpace(out), nil
}

func buildReplyPrompt(t Turn) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Conversation stage: %s\n", t.Stage)
	fmt.Fprintf(&sb, "User message: %s\n", t.Message)
	if t.ProjectType != "" {
		fmt.Fprintf(&sb, "Project type: %s\n", t.ProjectType)
	}
	if t.Report != nil {
		fmt.Fprintf(&sb, "Qualified matches: %d of %d candidates\n", t.Report.QualifiedMatches, t.Report.TotalCandidates)
		for i, m := range t.Report.TopMatches {
			fmt.Fprintf(&sb, "%d. %s (score %d, %s): %s\n",
				i+1, m.Talent.Name, m.Score, m.Tier, strings.Join(m.Reasons, "; "))
		}
	}
	sb.WriteString("Compose the assistant's reply.")
	return sb.String()
}
