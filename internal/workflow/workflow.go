// Package workflow models the lifecycle of a candidate's application
// to a posting. Agencies move an application forward one stage at a
// time; there are no backward moves and no skipping:
//
//	applied ──► shortlisted ──► interview_scheduled ──► interview_passed
//	                                      │
//	                                      └──────────► interview_failed
//
// A scheduled interview resolves to exactly one of passed or failed,
// and both outcomes are final.
package workflow

import "fmt"

// Stage is one step of an application's lifecycle.
type Stage string

const (
	StageApplied            Stage = "applied"
	StageShortlisted        Stage = "shortlisted"
	StageInterviewScheduled Stage = "interview_scheduled"
	StageInterviewPassed    Stage = "interview_passed"
	StageInterviewFailed    Stage = "interview_failed"
)

// transitions lists the allowed moves per stage. A stage with no
// entry is terminal.
var transitions = map[Stage][]Stage{
	StageApplied:            {StageShortlisted},
	StageShortlisted:        {StageInterviewScheduled},
	StageInterviewScheduled: {StageInterviewPassed, StageInterviewFailed},
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageApplied, StageShortlisted, StageInterviewScheduled, StageInterviewPassed, StageInterviewFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown application stage %q", s)
}

// CanTransition returns true when moving from → to is permitted by the
// state machine.
func CanTransition(from, to Stage) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Next returns the stages reachable from the given stage. Terminal
// stages return nil.
func Next(from Stage) []Stage {
	return transitions[from]
}

// IsTerminal reports whether a stage has no outgoing transitions.
func IsTerminal(s Stage) bool {
	return len(transitions[s]) == 0
}
