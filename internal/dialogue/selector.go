package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/session"
)

// Turn carries everything the responder may use to compose a reply.
type Turn struct {
	Stage        session.Stage
	Message      string
	ProjectType  string
	Requirements *intent.Requirements
	Report       *matching.Report
}

// Responder composes the assistant's reply for one turn. The template
// implementation is deterministic; a generative text service can replace it
// behind the same interface.
type Responder interface {
	Reply(ctx context.Context, t Turn) (string, error)
}

// TemplateResponder selects a canned, structured reply keyed by stage and
// fills it from the extracted requirements and match results. It never errors.
type TemplateResponder struct{}

// NewTemplateResponder creates a TemplateResponder.
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

// Reply builds the stage-appropriate response.
func (r *TemplateResponder) Reply(_ context.Context, t Turn) (string, error) {
	switch t.Stage {
	case session.StageGreeting:
		return "Hello! I'm your casting assistant. Tell me about the project you're casting for — " +
			"the role, genre, languages, and anything else that matters.", nil

	case session.StageDiscovery:
		var sb strings.Builder
		sb.WriteString("Got it")
		if t.ProjectType != "" {
			fmt.Fprintf(&sb, " — a %s project", strings.ToLower(t.ProjectType))
		}
		sb.WriteString(". ")
		sb.WriteString(describeRequirements(t.Requirements))
		sb.WriteString(matchSummary(t.Report))
		return sb.String(), nil

	case session.StageRefinement:
		var sb strings.Builder
		sb.WriteString("Let me refine the shortlist with that. ")
		sb.WriteString(matchSummary(t.Report))
		if t.Report != nil && t.Report.QualifiedMatches == 0 {
			sb.WriteString(" You could widen the age range or drop a skill requirement to see more options.")
		}
		return sb.String(), nil

	default: // recommendation
		var sb strings.Builder
		sb.WriteString(matchSummary(t.Report))
		if t.Report == nil || t.Report.QualifiedMatches == 0 {
			sb.WriteString(" Share more detail about the role and I'll search again.")
		}
		return strings.TrimSpace(sb.String()), nil
	}
}

// describeRequirements echoes the understood brief back to the user.
func describeRequirements(req *intent.Requirements) string {
	if req == nil {
		return "Tell me more about the role and I'll pull up matching talent. "
	}

	var parts []string
	if req.Genre != "" && !strings.EqualFold(req.Genre, intent.GenreGeneral) {
		parts = append(parts, strings.ToLower(req.Genre))
	}
	if len(req.RequiredSkills) > 0 {
		parts = append(parts, "skills: "+strings.Join(req.RequiredSkills, ", "))
	}
	if len(req.Languages) > 0 {
		parts = append(parts, "languages: "+strings.Join(req.Languages, ", "))
	}
	if req.AgeRange != nil {
		parts = append(parts, fmt.Sprintf("age %d-%d", req.AgeRange.Min, req.AgeRange.Max))
	}
	if len(parts) == 0 {
		return "I'll search across the full catalog. "
	}
	return "I'm reading this as " + strings.Join(parts, "; ") + ". "
}

// matchSummary renders the top matches as a short ranked list.
func matchSummary(report *matching.Report) string {
	if report == nil {
		return ""
	}
	if report.QualifiedMatches == 0 {
		return "No strong matches in the catalog yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are my top %d suggestions:\n", len(report.TopMatches))
	for i, m := range report.TopMatches {
		fmt.Fprintf(&sb, "%d. %s — score %d (%s). %s\n",
			i+1, m.Talent.Name, m.Score, m.Tier, m.Reasons[0])
	}
	return sb.String()
}
