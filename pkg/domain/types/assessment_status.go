package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// AssessmentStatus represents the lifecycle status of an assessment
type AssessmentStatus string

const (
	AssessmentStatusPending   AssessmentStatus = "PENDING"
	AssessmentStatusScoring   AssessmentStatus = "SCORING"
	AssessmentStatusScored    AssessmentStatus = "SCORED"
	AssessmentStatusCompleted AssessmentStatus = "COMPLETED"
	AssessmentStatusFailed    AssessmentStatus = "FAILED"
)

// AllAssessmentStatuses returns all valid assessment statuses
func AllAssessmentStatuses() []AssessmentStatus {
	return []AssessmentStatus{
		AssessmentStatusPending,
		AssessmentStatusScoring,
		AssessmentStatusScored,
		AssessmentStatusCompleted,
		AssessmentStatusFailed,
	}
}

// IsValid checks if the assessment status is valid
func (s AssessmentStatus) IsValid() bool {
	switch s {
	case AssessmentStatusPending,
		AssessmentStatusScoring,
		AssessmentStatusScored,
		AssessmentStatusCompleted,
		AssessmentStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the status permits no further transitions
func (s AssessmentStatus) IsTerminal() bool {
	return s == AssessmentStatusCompleted || s == AssessmentStatusFailed
}

// CanTransitionTo checks whether a transition from this status to next is permitted.
// Completion is allowed from both SCORING and SCORED so that a reviewer can close
// an assessment whose automated evaluation is still in flight or already recorded.
func (s AssessmentStatus) CanTransitionTo(next AssessmentStatus) bool {
	switch s {
	case AssessmentStatusPending:
		return next == AssessmentStatusScoring
	case AssessmentStatusScoring:
		return next == AssessmentStatusScored ||
			next == AssessmentStatusCompleted ||
			next == AssessmentStatusFailed
	case AssessmentStatusScored:
		return next == AssessmentStatusCompleted
	default:
		return false
	}
}

// String returns the string representation of the assessment status
func (s AssessmentStatus) String() string {
	return string(s)
}

// ParseAssessmentStatus parses a string into an AssessmentStatus
func ParseAssessmentStatus(s string) (AssessmentStatus, error) {
	status := AssessmentStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid assessment status", goerr.V("value", s))
	}
	return status, nil
}
