// Package job holds the candidate and posting entities the relevance
// engine operates on. The engine never mutates them: repositories load
// snapshots and the ranking pipeline reads them.
package job

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const monthsPerYear = 12

// Skill is a candidate skill with the accumulated hands-on duration.
type Skill struct {
	Title          string
	DurationMonths int
}

// CandidateProfile is a snapshot of a candidate at ranking time.
// Any field except ID may legitimately be empty; empty fields lower
// sub-scores but are never an error.
type CandidateProfile struct {
	ID              uuid.UUID
	FullName        string
	PreferredTitles []string // priority-ordered, no duplicates
	Skills          []Skill
	Education       []string // completed degree tags
}

// ExperienceYears derives the total relevant experience from skill
// durations, in years.
func (p *CandidateProfile) ExperienceYears() float64 {
	if p == nil {
		return 0
	}
	months := 0
	for _, s := range p.Skills {
		if s.DurationMonths > 0 {
			months += s.DurationMonths
		}
	}
	return float64(months) / monthsPerYear
}

// SkillMonths returns the accumulated duration for a skill tag, 0 when
// the candidate does not have it. Matching is case-insensitive.
func (p *CandidateProfile) SkillMonths(tag string) int {
	if p == nil {
		return 0
	}
	for _, s := range p.Skills {
		if strings.EqualFold(strings.TrimSpace(s.Title), strings.TrimSpace(tag)) {
			return s.DurationMonths
		}
	}
	return 0
}

// HasEducation reports whether the candidate holds any of the given
// degree tags.
func (p *CandidateProfile) HasEducation(tags []string) bool {
	if p == nil {
		return false
	}
	for _, required := range tags {
		for _, held := range p.Education {
			if strings.EqualFold(strings.TrimSpace(held), strings.TrimSpace(required)) {
				return true
			}
		}
	}
	return false
}

// ExperienceRequirement bounds the years of experience a position asks
// for. PreferredYears is never below MinYears.
type ExperienceRequirement struct {
	MinYears       float64
	PreferredYears float64
	DomainTags     []string
}

// Requirements is the requirement set of a single position. Empty
// slices mean "no requirement", not "requires nothing the candidate has".
type Requirements struct {
	Skills     []string
	Education  []string
	Experience ExperienceRequirement
}

// Vacancies are the open head counts of a position.
type Vacancies struct {
	Male   int
	Female int
}

// Position is a single role inside a posting with its own salary and
// requirement set. Overrides carry per-position contract terms (hours,
// food, accommodation) the engine treats as opaque.
type Position struct {
	ID             uuid.UUID
	Title          string
	Vacancies      Vacancies
	MonthlySalary  decimal.Decimal
	SalaryCurrency string
	Overrides      map[string]string
	Requirements   Requirements
}

// JobPosting groups positions published together by an employer through
// an agency. Employer and agency metadata is opaque to the engine.
type JobPosting struct {
	ID        uuid.UUID
	Title     string
	Country   string
	City      string
	Employer  string
	Agency    string
	Open      bool
	Positions []Position
	CreatedAt time.Time
}
