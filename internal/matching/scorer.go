package matching

import (
	"math"
	"strings"

	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/talent"
)

// Weights is the fixed factor weighting of the total score. The defaults are
// a design constant, not runtime-tunable.
type Weights struct {
	Skills       float64
	Experience   float64
	Languages    float64
	Genre        float64
	Age          float64
	Budget       float64
	Availability float64
	Personality  float64
}

// DefaultWeights returns the reference weighting:
// 0.25·skills + 0.20·experience + 0.15·languages + 0.15·genre +
// 0.10·age + 0.10·budget + 0.03·availability + 0.02·personality.
func DefaultWeights() Weights {
	return Weights{
		Skills:       0.25,
		Experience:   0.20,
		Languages:    0.15,
		Genre:        0.15,
		Age:          0.10,
		Budget:       0.10,
		Availability: 0.03,
		Personality:  0.02,
	}
}

// Sub-score defaults used when a requirement field is unspecified.
const (
	defaultSkillsScore       = 80
	defaultExperienceScore   = 85
	defaultLanguagesScore    = 90
	defaultGenreScore        = 80
	defaultAgeScore          = 90
	defaultBudgetScore       = 80
	defaultPersonalityScore  = 80
	mismatchGenreScore       = 60
	mismatchPersonalityScore = 60
	incompatibleBudgetScore  = 50
)

// scoreSkills: share of required skills the candidate covers, via
// case-insensitive substring-or-superstring matching.
func scoreSkills(req intent.Requirements, p talent.Profile) (int, []string) {
	if len(req.RequiredSkills) == 0 {
		return defaultSkillsScore, nil
	}

	var matched []string
	for _, want := range req.RequiredSkills {
		for _, have := range p.Skills {
			if looseMatch(have, want) {
				matched = append(matched, want)
				break
			}
		}
	}
	return int(math.Round(float64(len(matched)) / float64(len(req.RequiredSkills)) * 100)), matched
}

// scoreExperience: tiered against the requested experience level.
func scoreExperience(level intent.ExperienceLevel, years int) int {
	switch level {
	case intent.ExperienceNewcomer:
		if years <= 2 {
			return 100
		}
		return clampScore(100 - 20*(years-2))
	case intent.ExperienceExperienced:
		return clampScore(years * 20)
	case intent.ExperienceVeteran:
		return clampScore(int(math.Round(float64(years) * 12.5)))
	default:
		return defaultExperienceScore
	}
}

// scoreLanguages: share of required languages the candidate speaks
// (case-insensitive exact match).
func scoreLanguages(req intent.Requirements, p talent.Profile) int {
	if len(req.Languages) == 0 {
		return defaultLanguagesScore
	}

	matched := 0
	for _, want := range req.Languages {
		for _, have := range p.Languages {
			if strings.EqualFold(have, want) {
				matched++
				break
			}
		}
	}
	return int(math.Round(float64(matched) / float64(len(req.Languages)) * 100))
}

// scoreGenre: specialty match against the requirement genre, substring in
// either direction. The General catch-all counts as unspecified.
func scoreGenre(req intent.Requirements, p talent.Profile) int {
	if req.Genre == "" || strings.EqualFold(req.Genre, intent.GenreGeneral) {
		return defaultGenreScore
	}
	for _, sp := range p.Specialties {
		if looseMatch(sp, req.Genre) {
			return 100
		}
	}
	return mismatchGenreScore
}

// scoreAge: full marks inside the window, 10 points per year of distance
// outside it.
func scoreAge(r *intent.AgeRange, age int) int {
	if r == nil {
		return defaultAgeScore
	}
	if age >= r.Min && age <= r.Max {
		return 100
	}
	distance := r.Min - age
	if age > r.Max {
		distance = age - r.Max
	}
	return clampScore(100 - 10*distance)
}

// scoreBudget: binary compatibility against the candidate's ordinal-coded
// budget range string.
func scoreBudget(tier intent.BudgetTier, budgetRange string) int {
	if tier == intent.BudgetUnspecified {
		return defaultBudgetScore
	}
	if budgetCompatible(tier, budgetRange) {
		return 100
	}
	return incompatibleBudgetScore
}

// budgetCompatible implements the ordinal table: low productions need
// thousands-priced talent, moderate needs lakhs short of the 5-lakh band,
// high can afford anyone.
func budgetCompatible(tier intent.BudgetTier, budgetRange string) bool {
	r := strings.ToLower(budgetRange)
	switch tier {
	case intent.BudgetLow:
		return strings.Contains(r, "thousand")
	case intent.BudgetModerate:
		return strings.Contains(r, "lakh") && !strings.Contains(r, "5 lakh")
	case intent.BudgetHigh:
		return true
	default:
		return true
	}
}

func scoreAvailability(availabilityScore float64) int {
	return clampScore(int(math.Round(availabilityScore * 10)))
}

// scorePersonality: any candidate trait matching a requested character trait
// (substring, either direction).
func scorePersonality(req intent.Requirements, p talent.Profile) int {
	if len(req.CharacterTraits) == 0 {
		return defaultPersonalityScore
	}
	for _, want := range req.CharacterTraits {
		for _, have := range p.Traits {
			if looseMatch(have, want) {
				return 100
			}
		}
	}
	return mismatchPersonalityScore
}

// looseMatch reports whether either string contains the other,
// case-insensitively.
func looseMatch(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
