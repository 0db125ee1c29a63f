package matching

import (
	"github.com/kalambet/scena/internal/talent"
)

// Tier labels how strongly a candidate is recommended.
type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierStrong    Tier = "Strong"
	TierGood      Tier = "Good"
	TierPotential Tier = "Potential"
	TierCaution   Tier = "Consider with Caution"
)

// tierFor maps a total score to its recommendation tier.
func tierFor(score int) Tier {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 80:
		return TierStrong
	case score >= 70:
		return TierGood
	case score >= 60:
		return TierPotential
	default:
		return TierCaution
	}
}

// Breakdown holds the eight factor sub-scores, each in [0,100].
type Breakdown struct {
	Skills       int `json:"skills"`
	Experience   int `json:"experience"`
	Languages    int `json:"languages"`
	Genre        int `json:"genre"`
	Age          int `json:"age"`
	Budget       int `json:"budget"`
	Availability int `json:"availability"`
	Personality  int `json:"personality"`
}

// Match is one candidate's score and explanation for a given requirement.
type Match struct {
	Talent    talent.Profile `json:"talent"`
	Score     int            `json:"match_score"`
	Breakdown Breakdown      `json:"score_breakdown"`
	Reasons   []string       `json:"reasoning"`
	Tier      Tier           `json:"recommendation_tier"`
}

// Report is the full ranking result for one requirement.
type Report struct {
	TotalCandidates  int      `json:"total_candidates"`
	QualifiedMatches int      `json:"qualified_matches"`
	TopMatches       []Match  `json:"top_matches"`
	AllMatches       []Match  `json:"all_matches"`
	Insights         []string `json:"insights"`
}
