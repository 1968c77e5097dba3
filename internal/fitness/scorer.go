// Package fitness computes the 0-100 fitness score of a candidate
// against a position's requirement set. The score is a pure function of
// its inputs: same profile and requirements always produce the same
// value.
package fitness

import (
	"fmt"
	"math"

	"github.com/chasseuragace/videsh/internal/job"
)

const weightTolerance = 1e-9

// DefaultReferenceMonths is the skill duration treated as full depth.
// A matched skill held for fewer months earns proportional credit.
const DefaultReferenceMonths = 12

// Weights configure the linear combination of the three sub-scores.
// They must be non-negative and sum to 1.
type Weights struct {
	Skills     float64
	Education  float64
	Experience float64

	// ReferenceMonths caps the depth credit of a matched skill.
	ReferenceMonths int
}

// DefaultWeights returns the stock configuration: skills half the
// score, education under a third, experience the rest.
func DefaultWeights() Weights {
	return Weights{
		Skills:          0.5,
		Education:       0.3,
		Experience:      0.2,
		ReferenceMonths: DefaultReferenceMonths,
	}
}

func (w Weights) Validate() error {
	if w.Skills < 0 || w.Education < 0 || w.Experience < 0 {
		return fmt.Errorf("fitness weights must be non-negative")
	}
	if sum := w.Skills + w.Education + w.Experience; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("fitness weights must sum to 1, got %v", sum)
	}
	if w.ReferenceMonths <= 0 {
		return fmt.Errorf("reference skill months must be positive")
	}
	return nil
}

// Breakdown carries the normalized sub-scores, each in [0, 1].
type Breakdown struct {
	Skills     float64 `json:"skills"`
	Education  float64 `json:"education"`
	Experience float64 `json:"experience"`
}

// Score is the final fitness value with its sub-score breakdown.
type Score struct {
	Value     int       `json:"value"`
	Breakdown Breakdown `json:"breakdown"`
}

// Scorer evaluates candidate profiles against position requirements.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Score computes the weighted fitness of a profile for one requirement
// set. A nil or empty profile is not an error: absent data contributes
// zero to the respective sub-score.
func (s *Scorer) Score(profile *job.CandidateProfile, req job.Requirements) Score {
	breakdown := Breakdown{
		Skills:     s.skillSubScore(profile, req.Skills),
		Education:  educationSubScore(profile, req.Education),
		Experience: experienceSubScore(profile, req.Experience),
	}

	weighted := s.weights.Skills*breakdown.Skills +
		s.weights.Education*breakdown.Education +
		s.weights.Experience*breakdown.Experience

	value := int(math.Round(100 * weighted))
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return Score{Value: value, Breakdown: breakdown}
}

// skillSubScore averages per-tag depth credit across the required
// skills. A required skill held for ReferenceMonths or longer earns
// full credit, shorter durations earn a proportional share. No
// required skills means a perfect sub-score.
func (s *Scorer) skillSubScore(profile *job.CandidateProfile, required []string) float64 {
	if len(required) == 0 {
		return 1
	}

	total := 0.0
	for _, tag := range required {
		months := profile.SkillMonths(tag)
		if months <= 0 {
			continue
		}
		credit := float64(months) / float64(s.weights.ReferenceMonths)
		if credit > 1 {
			credit = 1
		}
		total += credit
	}
	return total / float64(len(required))
}

// educationSubScore is binary: requirements are typically a single
// degree tag, so any overlap counts as a full match.
func educationSubScore(profile *job.CandidateProfile, required []string) float64 {
	if len(required) == 0 {
		return 1
	}
	if profile.HasEducation(required) {
		return 1
	}
	return 0
}

// experienceSubScore interpolates linearly between the minimum and
// preferred years. At or above preferred scores 1, below minimum
// scores 0.
func experienceSubScore(profile *job.CandidateProfile, req job.ExperienceRequirement) float64 {
	years := profile.ExperienceYears()

	min := req.MinYears
	if min < 0 {
		min = 0
	}
	preferred := req.PreferredYears
	if preferred < min {
		preferred = min
	}

	switch {
	case years < min:
		return 0
	case years >= preferred:
		return 1
	default:
		return (years - min) / (preferred - min)
	}
}
