// Package ranking composes the relevance pipeline: eligibility
// filtering, fitness scoring, salary resolution and filtering, then a
// deterministic sort and pagination. Each ranking call is a pure
// function of the candidate, posting and rate snapshots it is given.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/currency"
	"github.com/chasseuragace/videsh/internal/fitness"
	"github.com/chasseuragace/videsh/internal/job"
	"github.com/chasseuragace/videsh/internal/salary"
)

var (
	// ErrInvalidPage rejects non-positive page or limit values before
	// any scoring work begins.
	ErrInvalidPage = errors.New("invalid page or limit")

	// ErrCandidateNotFound surfaces a wholly missing profile to the
	// boundary. A present-but-sparse profile is not an error.
	ErrCandidateNotFound = errors.New("candidate profile not found")
)

// CandidateSource loads candidate profiles by id.
type CandidateSource interface {
	CandidateByID(ctx context.Context, id uuid.UUID) (*job.CandidateProfile, error)
}

// PostingSource loads open postings, optionally narrowed to a country.
type PostingSource interface {
	OpenPostings(ctx context.Context, country string) ([]*job.JobPosting, error)
}

// RateSource provides the currency-rate snapshot a single ranking call
// runs against.
type RateSource interface {
	Snapshot(ctx context.Context) (*currency.Snapshot, error)
}

// Request carries the ranking options of one call.
type Request struct {
	CandidateID      uuid.UUID
	Country          string
	IncludeScore     bool
	Page             int
	Limit            int
	TargetCurrencies []string
	Salary           *salary.Criteria
}

// Config bounds pagination.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = maxLimit
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	return c
}

// Ranker orchestrates the pipeline against its collaborator sources.
type Ranker struct {
	candidates CandidateSource
	postings   PostingSource
	rates      RateSource
	scorer     *fitness.Scorer
	cfg        Config
	logger     *zap.Logger
}

func New(candidates CandidateSource, postings PostingSource, rates RateSource, scorer *fitness.Scorer, cfg Config, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{
		candidates: candidates,
		postings:   postings,
		rates:      rates,
		scorer:     scorer,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

// Rank runs the full pipeline and slices the requested page.
func (r *Ranker) Rank(ctx context.Context, req Request) (*Page, error) {
	// Cheap validation first: reject before loading any data.
	if req.Page <= 0 {
		return nil, fmt.Errorf("%w: page %d", ErrInvalidPage, req.Page)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidPage, req.Limit)
	}
	if req.Limit == 0 {
		req.Limit = r.cfg.DefaultLimit
	}
	if req.Limit > r.cfg.MaxLimit {
		req.Limit = r.cfg.MaxLimit
	}
	if req.Salary != nil {
		if err := req.Salary.Validate(); err != nil {
			return nil, fmt.Errorf("salary criteria: %w", err)
		}
	}

	profile, err := r.candidates.CandidateByID(ctx, req.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate %s: %w", req.CandidateID, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, req.CandidateID)
	}

	postings, err := r.postings.OpenPostings(ctx, req.Country)
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}

	snapshot, err := r.rates.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rate snapshot: %w", err)
	}

	deps := Deps{
		Logger:   r.logger,
		Profile:  profile,
		Scorer:   r.scorer,
		Resolver: salary.NewResolver(currency.NewConverter(snapshot), r.logger),
	}

	steps := []Step{newEligibilityStep(req.Country)}
	if req.IncludeScore {
		steps = append(steps, newScoreStep())
	}
	steps = append(steps, newSalaryStep(req.TargetCurrencies, req.Salary))

	result := newResult(postings)
	result, err = runSteps(ctx, deps, steps, result)
	if err != nil {
		return nil, err
	}

	sortResult(result, req.IncludeScore)

	page := paginate(result, req.Page, req.Limit)
	r.logger.Debug("ranking complete",
		zap.String("candidate_id", req.CandidateID.String()),
		zap.Int("total", page.Total),
		zap.Int("page", page.Number),
		zap.Int("returned", len(page.Items)),
	)
	return &page, nil
}
