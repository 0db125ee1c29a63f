package stage

import (
	"strings"

	"github.com/kalambet/scena/internal/session"
)

// Resolver computes the conversation stage for an inbound message. The
// reference behavior recomputes the stage from scratch on every turn rather
// than walking transition edges; a stricter transition-table implementation
// can be swapped in behind this interface.
type Resolver interface {
	Resolve(history []session.Message, incoming string) session.Stage
}

// Tokens is the immutable keyword configuration for stage resolution.
type Tokens struct {
	Greetings []string
	Needs     []string

	// GreetingLimit: greeting only applies while prior message count is
	// below this. RefinementAfter: refinement applies once prior message
	// count exceeds this.
	GreetingLimit   int
	RefinementAfter int

	// ProjectTypes maps detection keywords to a project type label, in
	// priority order.
	ProjectTypes []ProjectTypeRule
}

// ProjectTypeRule maps trigger keywords to one project type label.
type ProjectTypeRule struct {
	Keywords []string
	Label    string
}

// DefaultTokens returns the built-in stage keyword tables.
func DefaultTokens() Tokens {
	return Tokens{
		Greetings:       []string{"hi", "hello", "hey", "namaste", "good morning", "good evening"},
		Needs:           []string{"looking for", "need", "casting", "working on"},
		GreetingLimit:   2,
		RefinementAfter: 4,
		ProjectTypes: []ProjectTypeRule{
			{Keywords: []string{"web series", "webseries"}, Label: "Web Series"},
			{Keywords: []string{"film", "movie", "feature"}, Label: "Film"},
			{Keywords: []string{"commercial", "advert", "ad film"}, Label: "Commercial"},
		},
	}
}

// Controller resolves stages and opportunistically detects project types.
type Controller struct {
	tokens Tokens
}

// NewController creates a Controller with the given token tables.
func NewController(tokens Tokens) *Controller {
	return &Controller{tokens: tokens}
}

// Resolve recomputes the stage from scratch for the incoming message:
//
//  1. greeting — the message contains a greeting token and fewer than
//     GreetingLimit prior messages exist
//  2. discovery — the message contains a need token
//  3. refinement — more than RefinementAfter prior messages exist
//  4. recommendation — otherwise
//
// The guard order means a greeting-phrased message late in a conversation
// never reverts the stage to greeting: the message-count guard wins.
func (c *Controller) Resolve(history []session.Message, incoming string) session.Stage {
	text := strings.ToLower(incoming)

	if containsAny(text, c.tokens.Greetings) && len(history) < c.tokens.GreetingLimit {
		return session.StageGreeting
	}
	if containsAny(text, c.tokens.Needs) {
		return session.StageDiscovery
	}
	if len(history) > c.tokens.RefinementAfter {
		return session.StageRefinement
	}
	return session.StageRecommendation
}

// DetectProjectType returns the first project type whose keywords appear in
// the text.
func (c *Controller) DetectProjectType(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range c.tokens.ProjectTypes {
		if containsAny(lower, r.Keywords) {
			return r.Label, true
		}
	}
	return "", false
}

// Apply resolves the stage against the session's prior history, stores it in
// the session metadata, and merges a detected project type (first write
// wins — an established project type is never overridden). Returns the
// resolved stage.
//
// Apply must be called before the incoming message is appended to the
// history, since the greeting and refinement guards count prior messages.
func (c *Controller) Apply(s *session.Session, incoming string) session.Stage {
	st := c.Resolve(s.Messages, incoming)
	s.Metadata.Stage = st

	if s.Metadata.ProjectType == "" {
		if pt, ok := c.DetectProjectType(incoming); ok {
			s.Metadata.ProjectType = pt
		}
	}
	return st
}

func containsAny(text string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
