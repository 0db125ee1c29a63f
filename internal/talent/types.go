package talent

// Profile holds a talent's static attributes used for scoring. Profiles are
// owned by the Catalog and never mutated by the ranking engine.
type Profile struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	ExperienceYears   int      `json:"experience_years"`
	Location          string   `json:"location,omitempty"`
	Skills            []string `json:"skills"`
	Specialties       []string `json:"specialties"`
	Languages         []string `json:"languages"`
	Traits            []string `json:"traits"`
	PortfolioScore    float64  `json:"portfolio_score"`    // 0–10
	AvailabilityScore float64  `json:"availability_score"` // 0–10
	BudgetRange       string   `json:"budget_range"`       // e.g. "50k–2 lakhs per project"
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	cp := p
	cp.Skills = cloneStrings(p.Skills)
	cp.Specialties = cloneStrings(p.Specialties)
	cp.Languages = cloneStrings(p.Languages)
	cp.Traits = cloneStrings(p.Traits)
	return cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
