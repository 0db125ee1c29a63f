package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Extractor turns a free-text role description into structured Requirements.
// Implementations must be total: they always return a best-effort result and
// never error. A real NLP service plugs in behind the same interface.
type Extractor interface {
	Extract(ctx context.Context, roleDescription string) Requirements
}

// RuleExtractor classifies via case-insensitive keyword matching against the
// configured Ruleset. It is a pure function of its input.
type RuleExtractor struct {
	rules Ruleset
}

// NewRuleExtractor creates a RuleExtractor with the given tables.
func NewRuleExtractor(rules Ruleset) *RuleExtractor {
	return &RuleExtractor{rules: rules}
}

// ageRangePattern matches "25-32", "25 to 32", "aged 25-32" and similar.
var ageRangePattern = regexp.MustCompile(`(\d{1,2})\s*(?:-|–|to)\s*(\d{1,2})`)

// decadePattern matches "in their 20s" / "in her 30s".
var decadePattern = regexp.MustCompile(`in (?:their|his|her) (\d0)s`)

// Extract classifies the description against every keyword table. Genre,
// experience level and budget tier take the first matching rule in table
// order; skills, languages and traits are unioned across all matching rules.
func (e *RuleExtractor) Extract(_ context.Context, roleDescription string) Requirements {
	text := strings.ToLower(roleDescription)

	req := Requirements{
		RoleDescription: roleDescription,
		Genre:           GenreGeneral,
		Experience:      ExperienceAny,
	}

	if v, ok := firstMatch(e.rules.Genres, text); ok {
		req.Genre = v
	}
	req.RequiredSkills = allMatches(e.rules.Skills, text)
	req.Languages = allMatches(e.rules.Languages, text)
	req.CharacterTraits = allMatches(e.rules.Traits, text)
	if v, ok := firstMatch(e.rules.ExperienceLevels, text); ok {
		req.Experience = ExperienceLevel(v)
	}
	if v, ok := firstMatch(e.rules.BudgetTiers, text); ok {
		req.Budget = BudgetTier(v)
	}
	req.AgeRange = parseAgeRange(text)

	return req
}

func firstMatch(rules []KeywordRule, text string) (string, bool) {
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Value, true
			}
		}
	}
	return "", false
}

func allMatches(rules []KeywordRule, text string) []string {
	var out []string
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				out = append(out, r.Value)
				break
			}
		}
	}
	return out
}

// parseAgeRange extracts an inclusive age window from the text. Unparsable
// or implausible numbers yield nil (the age sub-score then defaults).
func parseAgeRange(text string) *AgeRange {
	if m := ageRangePattern.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if plausibleAge(lo) && plausibleAge(hi) && lo < hi {
			return &AgeRange{Min: lo, Max: hi}
		}
	}
	if m := decadePattern.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		if plausibleAge(lo) {
			return &AgeRange{Min: lo, Max: lo + 9}
		}
	}
	return nil
}

func plausibleAge(n int) bool {
	return n >= 5 && n <= 90
}
