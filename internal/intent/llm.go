package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kalambet/scena/internal/ollama"
)

const extractionTimeout = 3 * time.Second

// Chatter is the interface for chat completion via a local model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// LLMExtractor uses a fast local model to extract structured requirements
// from a role description. On any failure (timeout, malformed JSON, model
// error) it falls back to the rule extractor — the chat flow must never
// block on extraction failures.
type LLMExtractor struct {
	client   Chatter
	model    string
	fallback Extractor
}

// NewLLMExtractor creates an LLMExtractor backed by the given client.
// fallback must not be nil.
func NewLLMExtractor(client Chatter, model string, fallback Extractor) *LLMExtractor {
	return &LLMExtractor{client: client, model: model, fallback: fallback}
}

// wireRequirements is the JSON shape the model is asked to produce.
type wireRequirements struct {
	Genre           string   `json:"genre"`
	AgeMin          int      `json:"age_min"`
	AgeMax          int      `json:"age_max"`
	RequiredSkills  []string `json:"required_skills"`
	Languages       []string `json:"languages"`
	ExperienceLevel string   `json:"experience_level"`
	BudgetTier      string   `json:"budget_tier"`
	CharacterTraits []string `json:"character_traits"`
}

// Extract asks the model for structured requirements, degrading to the rule
// extractor on any failure.
func (e *LLMExtractor) Extract(ctx context.Context, roleDescription string) Requirements {
	if roleDescription == "" {
		return e.fallback.Extract(ctx, roleDescription)
	}

	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	prompt := "Extract the structured casting requirements from this role description.\n" +
		"Role: " + roleDescription + "\n" +
		"experience_level must be one of: any, newcomer, experienced, veteran. " +
		"budget_tier must be one of: low, moderate, high, or empty. " +
		"Use 0 for age_min/age_max when no age is mentioned."

	raw, err := e.client.Chat(ctx, e.model, []ollama.Message{
		{Role: "user", Content: prompt},
	}, requirementsSchema())
	if err != nil {
		slog.Warn("requirement extraction chat failed, using rule extractor", "error", err)
		return e.fallback.Extract(ctx, roleDescription)
	}

	var wire wireRequirements
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		slog.Warn("failed to unmarshal requirements from model response", "error", err, "response", raw)
		return e.fallback.Extract(ctx, roleDescription)
	}

	req := Requirements{
		RoleDescription: roleDescription,
		Genre:           wire.Genre,
		RequiredSkills:  wire.RequiredSkills,
		Languages:       wire.Languages,
		Experience:      normalizeExperience(wire.ExperienceLevel),
		Budget:          normalizeBudget(wire.BudgetTier),
		CharacterTraits: wire.CharacterTraits,
	}
	if req.Genre == "" {
		req.Genre = GenreGeneral
	}
	if wire.AgeMin > 0 && wire.AgeMax > wire.AgeMin {
		req.AgeRange = &AgeRange{Min: wire.AgeMin, Max: wire.AgeMax}
	}
	return req
}

func normalizeExperience(s string) ExperienceLevel {
	switch ExperienceLevel(s) {
	case ExperienceNewcomer, ExperienceExperienced, ExperienceVeteran:
		return ExperienceLevel(s)
	default:
		return ExperienceAny
	}
}

func normalizeBudget(s string) BudgetTier {
	switch BudgetTier(s) {
	case BudgetLow, BudgetModerate, BudgetHigh:
		return BudgetTier(s)
	default:
		return BudgetUnspecified
	}
}

// requirementsSchema returns the JSON schema for structured extraction output.
func requirementsSchema() *ollama.Schema {
	str := func(desc string) ollama.SchemaProperty {
		return ollama.SchemaProperty{Type: "string", Description: desc}
	}
	strArray := func(desc string) ollama.SchemaProperty {
		return ollama.SchemaProperty{Type: "array", Description: desc, Items: &ollama.SchemaProperty{Type: "string"}}
	}
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"genre":            str("Primary genre of the production"),
			"age_min":          {Type: "integer", Description: "Minimum candidate age, 0 if unspecified"},
			"age_max":          {Type: "integer", Description: "Maximum candidate age, 0 if unspecified"},
			"required_skills":  strArray("Skills the role requires"),
			"languages":        strArray("Languages the role requires"),
			"experience_level": str("One of: any, newcomer, experienced, veteran"),
			"budget_tier":      str("One of: low, moderate, high, or empty"),
			"character_traits": strArray("Personality traits the character calls for"),
		},
		Required: []string{"genre", "required_skills", "languages", "experience_level"},
	}
}
