package intent

// KeywordRule maps a family of trigger keywords to one output value.
type KeywordRule struct {
	Keywords []string
	Value    string
}

// Ruleset holds the keyword tables the rule extractor classifies against.
// It is immutable configuration passed into the extractor; slice order is
// meaningful for Genres (first matching rule wins) and ExperienceLevels.
type Ruleset struct {
	// Genres is an ordered priority list: the first rule with a matching
	// keyword decides the genre. Romance precedes Comedy so that
	// "romantic comedy" resolves to Romance.
	Genres []KeywordRule

	// Skills, Languages and Traits are unioned: every matching rule
	// contributes its value.
	Skills    []KeywordRule
	Languages []KeywordRule
	Traits    []KeywordRule

	// ExperienceLevels is ordered: the first match wins. Veteran precedes
	// experienced so "experienced veteran" resolves to veteran.
	ExperienceLevels []KeywordRule

	// BudgetTiers: first match wins.
	BudgetTiers []KeywordRule
}

// DefaultRuleset returns the built-in keyword tables. Declaration order is
// the documented priority order.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Genres: []KeywordRule{
			{Keywords: []string{"romance", "romantic", "love story"}, Value: "Romance"},
			{Keywords: []string{"comedy", "comic", "funny", "sitcom"}, Value: "Comedy"},
			{Keywords: []string{"action", "stunt", "fight scene"}, Value: "Action"},
			{Keywords: []string{"thriller", "suspense"}, Value: "Thriller"},
			{Keywords: []string{"horror"}, Value: "Horror"},
			{Keywords: []string{"historical", "period piece", "period drama"}, Value: "Historical"},
			{Keywords: []string{"musical"}, Value: "Musical"},
			{Keywords: []string{"drama", "emotional"}, Value: "Drama"},
		},
		Skills: []KeywordRule{
			{Keywords: []string{"dance", "dancing", "dancer"}, Value: "Dancing"},
			{Keywords: []string{"sing", "singing", "singer"}, Value: "Singing"},
			{Keywords: []string{"martial arts", "stunt", "fight"}, Value: "Martial Arts"},
			{Keywords: []string{"comic timing", "comedy timing", "improv"}, Value: "Comedy Timing"},
			{Keywords: []string{"model", "modelling", "modeling"}, Value: "Modelling"},
			{Keywords: []string{"horse"}, Value: "Horse Riding"},
			{Keywords: []string{"voice over", "voiceover", "voice acting"}, Value: "Voice Acting"},
		},
		Languages: []KeywordRule{
			{Keywords: []string{"hindi"}, Value: "Hindi"},
			{Keywords: []string{"english"}, Value: "English"},
			{Keywords: []string{"tamil"}, Value: "Tamil"},
			{Keywords: []string{"telugu"}, Value: "Telugu"},
			{Keywords: []string{"malayalam"}, Value: "Malayalam"},
			{Keywords: []string{"bengali"}, Value: "Bengali"},
			{Keywords: []string{"marathi"}, Value: "Marathi"},
			{Keywords: []string{"punjabi"}, Value: "Punjabi"},
			{Keywords: []string{"urdu"}, Value: "Urdu"},
			{Keywords: []string{"gujarati"}, Value: "Gujarati"},
		},
		Traits: []KeywordRule{
			{Keywords: []string{"charming", "charismatic"}, Value: "charming"},
			{Keywords: []string{"intense", "brooding"}, Value: "intense"},
			{Keywords: []string{"witty", "quick-witted"}, Value: "witty"},
			{Keywords: []string{"energetic", "lively"}, Value: "energetic"},
			{Keywords: []string{"innocent", "naive"}, Value: "innocent"},
			{Keywords: []string{"commanding", "authoritative"}, Value: "commanding"},
			{Keywords: []string{"graceful", "elegant"}, Value: "graceful"},
			{Keywords: []string{"athletic", "fit"}, Value: "athletic"},
		},
		ExperienceLevels: []KeywordRule{
			{Keywords: []string{"veteran"}, Value: string(ExperienceVeteran)},
			{Keywords: []string{"newcomer", "fresh face", "debut", "first-time"}, Value: string(ExperienceNewcomer)},
			{Keywords: []string{"experienced", "seasoned", "established"}, Value: string(ExperienceExperienced)},
		},
		BudgetTiers: []KeywordRule{
			{Keywords: []string{"low budget", "tight budget", "small budget", "shoestring"}, Value: string(BudgetLow)},
			{Keywords: []string{"big budget", "high budget", "lavish"}, Value: string(BudgetHigh)},
			{Keywords: []string{"moderate budget", "mid budget", "medium budget"}, Value: string(BudgetModerate)},
		},
	}
}
