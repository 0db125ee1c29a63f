package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/talent"
)

const (
	// minQualifyingScore: candidates scoring at or below this are discarded.
	minQualifyingScore = 40

	topMatchLimit = 5
	allMatchLimit = 10

	defaultConcurrency = 4
)

// Engine scores candidate profiles against a requirement set using a fixed
// weighted-sum formula. Scoring is deterministic: identical inputs always
// produce identical output, including ordering.
type Engine struct {
	weights     Weights
	concurrency int
}

// NewEngine creates an Engine with the reference weights.
func NewEngine() *Engine {
	return &Engine{
		weights:     DefaultWeights(),
		concurrency: defaultConcurrency,
	}
}

// MatchTalents scores every candidate, discards those at or below the
// qualifying threshold, and returns the ranked result. It never errors:
// an empty candidate set yields an empty report with an explanatory insight.
func (e *Engine) MatchTalents(ctx context.Context, req intent.Requirements, candidates []talent.Profile) Report {
	report := Report{TotalCandidates: len(candidates)}
	if len(candidates) == 0 {
		report.Insights = []string{"No candidates were available to score against this requirement."}
		return report
	}

	// Score concurrently into an index-addressed slice so ordering stays
	// deterministic regardless of goroutine scheduling.
	scored := make([]Match, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, p := range candidates {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			scored[i] = e.score(req, p)
			return nil
		})
	}
	// Scoring is pure computation; the only possible error is cancellation,
	// in which case partial zero scores are filtered out below.
	_ = g.Wait()

	// Qualify and order: score descending, original catalog order on ties.
	order := make([]int, 0, len(scored))
	for i, m := range scored {
		if m.Score > minQualifyingScore {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]].Score > scored[order[b]].Score
	})

	qualified := make([]Match, len(order))
	for i, idx := range order {
		qualified[i] = scored[idx]
	}

	report.QualifiedMatches = len(qualified)
	report.TopMatches = limit(qualified, topMatchLimit)
	report.AllMatches = limit(qualified, allMatchLimit)
	report.Insights = e.insights(req, qualified, len(candidates))
	return report
}

// score computes the eight factor sub-scores and the weighted total for one
// candidate.
func (e *Engine) score(req intent.Requirements, p talent.Profile) Match {
	skills, matchedSkills := scoreSkills(req, p)
	b := Breakdown{
		Skills:       skills,
		Experience:   scoreExperience(req.Experience, p.ExperienceYears),
		Languages:    scoreLanguages(req, p),
		Genre:        scoreGenre(req, p),
		Age:          scoreAge(req.AgeRange, p.Age),
		Budget:       scoreBudget(req.Budget, p.BudgetRange),
		Availability: scoreAvailability(p.AvailabilityScore),
		Personality:  scorePersonality(req, p),
	}

	w := e.weights
	total := int(math.Round(
		w.Skills*float64(b.Skills) +
			w.Experience*float64(b.Experience) +
			w.Languages*float64(b.Languages) +
			w.Genre*float64(b.Genre) +
			w.Age*float64(b.Age) +
			w.Budget*float64(b.Budget) +
			w.Availability*float64(b.Availability) +
			w.Personality*float64(b.Personality),
	))

	return Match{
		Talent:    p,
		Score:     total,
		Breakdown: b,
		Reasons:   reasons(req, p, b, matchedSkills),
		Tier:      tierFor(total),
	}
}

// reasons produces the deterministic explanation list. At least one reason
// is always emitted.
func reasons(req intent.Requirements, p talent.Profile, b Breakdown, matchedSkills []string) []string {
	var out []string

	if b.Skills > 80 && len(req.RequiredSkills) > 0 {
		out = append(out, fmt.Sprintf("Strong skill match: %s", strings.Join(matchedSkills, ", ")))
	}
	if b.Experience >= 90 && req.Experience != intent.ExperienceAny {
		out = append(out, fmt.Sprintf("%d years of experience fit the %s brief", p.ExperienceYears, req.Experience))
	}
	if b.Languages == 100 && len(req.Languages) > 0 {
		out = append(out, fmt.Sprintf("Speaks all required languages: %s", strings.Join(req.Languages, ", ")))
	}
	if b.Genre == 100 {
		out = append(out, fmt.Sprintf("Specializes in %s", req.Genre))
	}
	if b.Availability >= 90 {
		out = append(out, "Highly available for scheduling")
	}

	if len(out) == 0 {
		out = append(out, "Good overall fit for the role")
	}
	return out
}

// insights derives pool-level observations from aggregate statistics of the
// qualified matches via fixed thresholds.
func (e *Engine) insights(req intent.Requirements, qualified []Match, total int) []string {
	if len(qualified) == 0 {
		return []string{"No candidates matched the requirements; consider relaxing the brief."}
	}

	out := []string{fmt.Sprintf("Found %d qualified matches out of %d candidates.", len(qualified), total)}

	var scoreSum, expSum, budgetConcerns int
	for _, m := range qualified {
		scoreSum += m.Score
		expSum += m.Talent.ExperienceYears
		if req.Budget != intent.BudgetUnspecified && m.Breakdown.Budget < 100 {
			budgetConcerns++
		}
	}

	meanScore := scoreSum / len(qualified)
	if meanScore >= 80 {
		out = append(out, fmt.Sprintf("Excellent pool quality: average match score is %d.", meanScore))
	}

	meanExp := float64(expSum) / float64(len(qualified))
	if meanExp >= 10 {
		out = append(out, fmt.Sprintf("The shortlist is highly experienced (average %.0f years).", meanExp))
	}

	if budgetConcerns*2 > len(qualified) {
		out = append(out, "Over half the shortlist may exceed the stated budget tier.")
	}

	return out
}

func limit(matches []Match, n int) []Match {
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}
