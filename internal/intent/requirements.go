package intent

// ExperienceLevel buckets how much prior work a role calls for.
type ExperienceLevel string

const (
	ExperienceAny         ExperienceLevel = "any"
	ExperienceNewcomer    ExperienceLevel = "newcomer"
	ExperienceExperienced ExperienceLevel = "experienced"
	ExperienceVeteran     ExperienceLevel = "veteran"
)

// BudgetTier is the coarse production budget classification.
type BudgetTier string

const (
	BudgetUnspecified BudgetTier = ""
	BudgetLow         BudgetTier = "low"
	BudgetModerate    BudgetTier = "moderate"
	BudgetHigh        BudgetTier = "high"
)

// GenreGeneral is the catch-all genre assigned when no genre keyword fires.
// The ranking engine treats it the same as an unspecified genre.
const GenreGeneral = "General"

// AgeRange is an inclusive candidate age window.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Requirements is the structured casting need derived from a free-text role
// description. It is ephemeral: built once per ranking request and discarded
// after the call.
type Requirements struct {
	RoleDescription string          `json:"role_description"`
	Genre           string          `json:"genre,omitempty"`
	AgeRange        *AgeRange       `json:"age_range,omitempty"`
	RequiredSkills  []string        `json:"required_skills,omitempty"`
	Languages       []string        `json:"languages,omitempty"`
	Experience      ExperienceLevel `json:"experience_level,omitempty"`
	Budget          BudgetTier      `json:"budget_tier,omitempty"`
	CharacterTraits []string        `json:"character_traits,omitempty"`
}
