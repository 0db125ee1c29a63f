package matching

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/talent"
)

func TestMatchTalents_EmptyCandidates(t *testing.T) {
	e := NewEngine()
	report := e.MatchTalents(context.Background(), intent.Requirements{}, nil)

	if report.TotalCandidates != 0 || report.QualifiedMatches != 0 {
		t.Errorf("counts = %d/%d, want 0/0", report.TotalCandidates, report.QualifiedMatches)
	}
	if len(report.Insights) != 1 || !strings.Contains(report.Insights[0], "No candidates were available") {
		t.Errorf("Insights = %v, want the empty-pool insight", report.Insights)
	}
}

func TestMatchTalents_DefaultSubScores(t *testing.T) {
	// With an empty requirement every factor takes its default, so the total
	// is fully determined by the availability score.
	e := NewEngine()
	p := talent.Profile{ID: "t-1", Name: "Asha", AvailabilityScore: 9.2}

	report := e.MatchTalents(context.Background(), intent.Requirements{}, []talent.Profile{p})

	if report.QualifiedMatches != 1 {
		t.Fatalf("QualifiedMatches = %d, want 1", report.QualifiedMatches)
	}
	m := report.AllMatches[0]
	want := Breakdown{
		Skills:       80,
		Experience:   85,
		Languages:    90,
		Genre:        80,
		Age:          90,
		Budget:       80,
		Availability: 92,
		Personality:  80,
	}
	if m.Breakdown != want {
		t.Errorf("Breakdown = %+v, want %+v", m.Breakdown, want)
	}
	if m.Score != 84 {
		t.Errorf("Score = %d, want 84", m.Score)
	}
	if m.Tier != TierStrong {
		t.Errorf("Tier = %q, want %q", m.Tier, TierStrong)
	}
}

func TestMatchTalents_FiltersBelowThreshold(t *testing.T) {
	e := NewEngine()
	req := intent.Requirements{
		Genre:           "Action",
		RequiredSkills:  []string{"Martial Arts"},
		Languages:       []string{"Tamil"},
		Experience:      intent.ExperienceExperienced,
		Budget:          intent.BudgetLow,
		AgeRange:        &intent.AgeRange{Min: 20, Max: 25},
		CharacterTraits: []string{"intense"},
	}
	// Misses on every factor.
	miss := talent.Profile{
		ID: "miss", Name: "Miss",
		Age:             60,
		ExperienceYears: 0,
		Skills:          []string{"Singing"},
		Languages:       []string{"Bengali"},
		Specialties:     []string{"Romance"},
		Traits:          []string{"graceful"},
		BudgetRange:     "5 lakhs and above",
	}
	hit := talent.Profile{
		ID: "hit", Name: "Hit",
		Age:               22,
		ExperienceYears:   8,
		Skills:            []string{"Martial Arts"},
		Languages:         []string{"Tamil"},
		Specialties:       []string{"Action"},
		Traits:            []string{"intense"},
		BudgetRange:       "50-80 thousands per project",
		AvailabilityScore: 9.0,
	}

	report := e.MatchTalents(context.Background(), req, []talent.Profile{miss, hit})

	if report.TotalCandidates != 2 {
		t.Errorf("TotalCandidates = %d, want 2", report.TotalCandidates)
	}
	if report.QualifiedMatches != 1 {
		t.Fatalf("QualifiedMatches = %d, want 1 (low scorer filtered)", report.QualifiedMatches)
	}
	if report.AllMatches[0].Talent.ID != "hit" {
		t.Errorf("surviving match = %q, want hit", report.AllMatches[0].Talent.ID)
	}
	if report.AllMatches[0].Score <= minQualifyingScore {
		t.Errorf("surviving score = %d, want > %d", report.AllMatches[0].Score, minQualifyingScore)
	}
}

func TestMatchTalents_OrderingAndTies(t *testing.T) {
	e := NewEngine()

	// Identical profiles score identically; ties keep catalog order.
	mk := func(id string, avail float64) talent.Profile {
		return talent.Profile{ID: id, Name: id, AvailabilityScore: avail}
	}
	candidates := []talent.Profile{
		mk("low", 2.0),
		mk("tie-a", 8.0),
		mk("tie-b", 8.0),
		mk("high", 10.0),
	}

	report := e.MatchTalents(context.Background(), intent.Requirements{}, candidates)

	var ids []string
	for _, m := range report.AllMatches {
		ids = append(ids, m.Talent.ID)
	}
	want := []string{"high", "tie-a", "tie-b", "low"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}

	// Determinism across runs.
	for i := 0; i < 5; i++ {
		again := e.MatchTalents(context.Background(), intent.Requirements{}, candidates)
		if !reflect.DeepEqual(again, report) {
			t.Fatal("MatchTalents is not deterministic across identical runs")
		}
	}
}

func TestMatchTalents_TopIsPrefixOfAll(t *testing.T) {
	e := NewEngine()

	var candidates []talent.Profile
	for i := 0; i < 12; i++ {
		candidates = append(candidates, talent.Profile{
			ID:                fmt.Sprintf("t-%02d", i),
			Name:              fmt.Sprintf("Talent %d", i),
			AvailabilityScore: 8.0,
		})
	}

	report := e.MatchTalents(context.Background(), intent.Requirements{}, candidates)

	if report.QualifiedMatches != 12 {
		t.Fatalf("QualifiedMatches = %d, want 12", report.QualifiedMatches)
	}
	if len(report.TopMatches) != 5 {
		t.Errorf("len(TopMatches) = %d, want 5", len(report.TopMatches))
	}
	if len(report.AllMatches) != 10 {
		t.Errorf("len(AllMatches) = %d, want 10", len(report.AllMatches))
	}
	if !reflect.DeepEqual(report.TopMatches, report.AllMatches[:5]) {
		t.Error("TopMatches is not a prefix of AllMatches")
	}
}

func TestMatchTalents_Insights(t *testing.T) {
	e := NewEngine()
	p := talent.Profile{ID: "t-1", Name: "Asha", ExperienceYears: 15, AvailabilityScore: 9.0}

	report := e.MatchTalents(context.Background(), intent.Requirements{}, []talent.Profile{p})

	if len(report.Insights) == 0 || report.Insights[0] != "Found 1 qualified matches out of 1 candidates." {
		t.Fatalf("Insights[0] = %v, want the found-count insight first", report.Insights)
	}
	joined := strings.Join(report.Insights, "\n")
	if !strings.Contains(joined, "Excellent pool quality") {
		t.Errorf("Insights = %v, want a pool-quality insight for a high-scoring pool", report.Insights)
	}
	if !strings.Contains(joined, "highly experienced") {
		t.Errorf("Insights = %v, want an experience insight for a 15-year pool", report.Insights)
	}
}

func TestMatchTalents_NoQualifiedInsight(t *testing.T) {
	e := NewEngine()
	req := intent.Requirements{
		Genre:          "Action",
		RequiredSkills: []string{"Martial Arts"},
		Languages:      []string{"Tamil"},
		Experience:     intent.ExperienceExperienced,
		Budget:         intent.BudgetLow,
		AgeRange:       &intent.AgeRange{Min: 20, Max: 25},
	}
	miss := talent.Profile{ID: "miss", Age: 60, BudgetRange: "5 lakhs and above"}

	report := e.MatchTalents(context.Background(), req, []talent.Profile{miss})

	if report.QualifiedMatches != 0 {
		t.Fatalf("QualifiedMatches = %d, want 0", report.QualifiedMatches)
	}
	if len(report.Insights) != 1 || !strings.Contains(report.Insights[0], "consider relaxing the brief") {
		t.Errorf("Insights = %v, want only the relax-the-brief insight", report.Insights)
	}
}

func TestReasons_AlwaysAtLeastOne(t *testing.T) {
	e := NewEngine()
	p := talent.Profile{ID: "t-1", Name: "Asha", AvailabilityScore: 5.0}

	report := e.MatchTalents(context.Background(), intent.Requirements{}, []talent.Profile{p})

	if len(report.AllMatches) != 1 {
		t.Fatalf("expected one match, got %d", len(report.AllMatches))
	}
	reasons := report.AllMatches[0].Reasons
	if !reflect.DeepEqual(reasons, []string{"Good overall fit for the role"}) {
		t.Errorf("Reasons = %v, want the generic fallback reason", reasons)
	}
}
