package ranking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/fitness"
	"github.com/chasseuragace/videsh/internal/job"
	"github.com/chasseuragace/videsh/internal/salary"
)

// ScoredPosting is a posting flowing through the pipeline together
// with everything the steps derived for it.
type ScoredPosting struct {
	Posting *job.JobPosting

	// Score is the maximum fitness across the posting's positions,
	// valid only when Scored is set.
	Score  fitness.Score
	Scored bool

	// Salaries holds the resolved view per position id.
	Salaries map[uuid.UUID]salary.View
}

// Result is the working list the steps transform.
type Result struct {
	Items []*ScoredPosting
}

func newResult(postings []*job.JobPosting) *Result {
	items := make([]*ScoredPosting, 0, len(postings))
	for _, p := range postings {
		items = append(items, &ScoredPosting{Posting: p})
	}
	return &Result{Items: items}
}

func (r *Result) Len() int {
	return len(r.Items)
}

// Deps aggregates what the steps need.
type Deps struct {
	Logger   *zap.Logger
	Profile  *job.CandidateProfile
	Scorer   *fitness.Scorer
	Resolver *salary.Resolver
}

// Stats describes the outcome of one step.
type Stats struct {
	Initial int
	Dropped int
	Left    int
}

// Step is a single stage of the ranking pipeline.
type Step interface {
	Name() string
	Apply(ctx context.Context, deps Deps, res *Result) (*Result, Stats, error)
}

// runSteps executes the steps in order, logging per-step counts.
func runSteps(ctx context.Context, deps Deps, steps []Step, res *Result) (*Result, error) {
	for _, step := range steps {
		next, stats, err := step.Apply(ctx, deps, res)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Debug("ranking step",
				zap.String("name", step.Name()),
				zap.Int("initial", stats.Initial),
				zap.Int("dropped", stats.Dropped),
				zap.Int("left", stats.Left),
			)
		}

		res = next
	}
	return res, nil
}

// eligibilityStep drops closed postings, postings without positions and
// postings outside the requested country.
type eligibilityStep struct {
	country string
}

func newEligibilityStep(country string) Step {
	return &eligibilityStep{country: country}
}

func (s *eligibilityStep) Name() string { return "eligibility" }

func (s *eligibilityStep) Apply(_ context.Context, _ Deps, res *Result) (*Result, Stats, error) {
	initial := res.Len()

	kept := make([]*ScoredPosting, 0, initial)
	for _, item := range res.Items {
		posting := item.Posting
		if !posting.Open || len(posting.Positions) == 0 {
			continue
		}
		if s.country != "" && posting.Country != s.country {
			continue
		}
		kept = append(kept, item)
	}
	res.Items = kept

	return res, Stats{Initial: initial, Dropped: initial - res.Len(), Left: res.Len()}, nil
}

// scoreStep computes the fitness score per position and assigns the
// posting the maximum: a posting is relevant when any one of its roles
// fits well. Scoring drops nothing.
type scoreStep struct{}

func newScoreStep() Step {
	return &scoreStep{}
}

func (s *scoreStep) Name() string { return "fitness_score" }

func (s *scoreStep) Apply(_ context.Context, deps Deps, res *Result) (*Result, Stats, error) {
	initial := res.Len()

	for _, item := range res.Items {
		best := fitness.Score{}
		for _, pos := range item.Posting.Positions {
			score := deps.Scorer.Score(deps.Profile, pos.Requirements)
			if score.Value > best.Value {
				best = score
			}
		}
		item.Score = best
		item.Scored = true
	}

	return res, Stats{Initial: initial, Dropped: 0, Left: res.Len()}, nil
}

// salaryStep resolves a salary view per position and, when criteria
// are present, keeps only postings where at least one position passes.
type salaryStep struct {
	targets  []string
	criteria *salary.Criteria
}

func newSalaryStep(targets []string, criteria *salary.Criteria) Step {
	return &salaryStep{targets: targets, criteria: criteria}
}

func (s *salaryStep) Name() string { return "salary" }

func (s *salaryStep) Apply(_ context.Context, deps Deps, res *Result) (*Result, Stats, error) {
	initial := res.Len()

	kept := make([]*ScoredPosting, 0, initial)
	for _, item := range res.Items {
		item.Salaries = make(map[uuid.UUID]salary.View, len(item.Posting.Positions))

		passes := s.criteria == nil
		for i := range item.Posting.Positions {
			pos := &item.Posting.Positions[i]
			view := deps.Resolver.Resolve(pos, s.targets)
			item.Salaries[pos.ID] = view

			if s.criteria != nil && view.Passes(*s.criteria) {
				passes = true
			}
		}

		if passes {
			kept = append(kept, item)
		}
	}
	res.Items = kept

	return res, Stats{Initial: initial, Dropped: initial - res.Len(), Left: res.Len()}, nil
}
