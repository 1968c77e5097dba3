// Package store provides the postgres and redis backed collaborators
// the engine pulls candidate, posting and currency-rate snapshots from.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chasseuragace/videsh/internal/currency"
	"github.com/chasseuragace/videsh/internal/job"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// Store reads the entities the engine ranks over.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// CandidateByID loads a candidate profile with its preferred titles,
// skills and education. A missing candidate returns (nil, nil); the
// engine decides how to surface that.
func (s *Store) CandidateByID(ctx context.Context, id uuid.UUID) (*job.CandidateProfile, error) {
	profile := &job.CandidateProfile{ID: id}

	err := s.pool.QueryRow(ctx,
		`SELECT full_name FROM candidates WHERE id = $1`,
		id,
	).Scan(&profile.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("candidateByID query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT title FROM candidate_preferred_titles
		 WHERE candidate_id = $1 ORDER BY priority`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("candidateByID titles: %w", err)
	}
	profile.PreferredTitles, err = scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("candidateByID titles: %w", err)
	}

	skillRows, err := s.pool.Query(ctx,
		`SELECT title, duration_months FROM candidate_skills WHERE candidate_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("candidateByID skills: %w", err)
	}
	profile.Skills, err = scanSkills(skillRows)
	if err != nil {
		return nil, fmt.Errorf("candidateByID skills: %w", err)
	}

	eduRows, err := s.pool.Query(ctx,
		`SELECT degree FROM candidate_educations WHERE candidate_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("candidateByID educations: %w", err)
	}
	profile.Education, err = scanStrings(eduRows)
	if err != nil {
		return nil, fmt.Errorf("candidateByID educations: %w", err)
	}

	return profile, nil
}

// scanStrings drains a single-column string result. rows.Err is
// checked after the loop: a connection dropped mid-iteration must not
// pass off a truncated list as a complete one.
func scanStrings(rows pgx.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanSkills drains a (title, duration_months) result with the same
// mid-iteration error guarantee as scanStrings.
func scanSkills(rows pgx.Rows) ([]job.Skill, error) {
	defer rows.Close()

	var out []job.Skill
	for rows.Next() {
		var skill job.Skill
		if err := rows.Scan(&skill.Title, &skill.DurationMonths); err != nil {
			return nil, err
		}
		out = append(out, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenPostings loads open postings and their positions, newest first.
// An empty country loads all countries.
func (s *Store) OpenPostings(ctx context.Context, country string) ([]*job.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.title, p.country, p.city, p.employer, p.agency, p.created_at,
		        pos.id, pos.title, pos.vacancies_male, pos.vacancies_female,
		        pos.monthly_salary::text, pos.salary_currency, pos.overrides,
		        pos.required_skills, pos.required_education,
		        pos.min_years, pos.preferred_years, pos.domain_tags
		 FROM job_postings p
		 JOIN positions pos ON pos.posting_id = p.id
		 WHERE p.is_open AND ($1 = '' OR p.country = $1)
		 ORDER BY p.created_at DESC, p.id`,
		country,
	)
	if err != nil {
		return nil, fmt.Errorf("openPostings query: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*job.JobPosting)
	ordered := make([]*job.JobPosting, 0)

	for rows.Next() {
		var (
			posting   job.JobPosting
			position  job.Position
			rawSalary string
		)
		if err := rows.Scan(
			&posting.ID, &posting.Title, &posting.Country, &posting.City,
			&posting.Employer, &posting.Agency, &posting.CreatedAt,
			&position.ID, &position.Title,
			&position.Vacancies.Male, &position.Vacancies.Female,
			&rawSalary, &position.SalaryCurrency, &position.Overrides,
			&position.Requirements.Skills, &position.Requirements.Education,
			&position.Requirements.Experience.MinYears,
			&position.Requirements.Experience.PreferredYears,
			&position.Requirements.Experience.DomainTags,
		); err != nil {
			return nil, fmt.Errorf("openPostings scan: %w", err)
		}

		position.MonthlySalary, err = decimal.NewFromString(rawSalary)
		if err != nil {
			return nil, fmt.Errorf("openPostings salary %q: %w", rawSalary, err)
		}

		existing, ok := byID[posting.ID]
		if !ok {
			posting.Open = true
			existing = &posting
			byID[posting.ID] = existing
			ordered = append(ordered, existing)
		}
		existing.Positions = append(existing.Positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("openPostings rows: %w", err)
	}

	return ordered, nil
}

// ActiveRates loads the active currency rates, one per code.
func (s *Store) ActiveRates(ctx context.Context) ([]currency.Rate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, multiplier::text, updated_at FROM currency_rates ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("activeRates query: %w", err)
	}
	defer rows.Close()

	rates := make([]currency.Rate, 0)
	for rows.Next() {
		var (
			rate currency.Rate
			raw  string
		)
		if err := rows.Scan(&rate.Code, &raw, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("activeRates scan: %w", err)
		}
		rate.Multiplier, err = decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("activeRates multiplier %q: %w", raw, err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activeRates rows: %w", err)
	}

	return rates, nil
}

// UpsertRate writes a rate, replacing any active rate for the same
// code so there is at most one per code.
func (s *Store) UpsertRate(ctx context.Context, rate currency.Rate) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO currency_rates (code, multiplier, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (code) DO UPDATE
		 SET multiplier = EXCLUDED.multiplier, updated_at = NOW()`,
		rate.Code, rate.Multiplier.String(),
	)
	if err != nil {
		return fmt.Errorf("upsertRate %s: %w", rate.Code, err)
	}
	return nil
}
