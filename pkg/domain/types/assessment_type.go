package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// AssessmentType represents how an assessment is conducted
type AssessmentType string

const (
	AssessmentTypeAutomated AssessmentType = "AUTOMATED"
	AssessmentTypeManual    AssessmentType = "MANUAL"
)

// AllAssessmentTypes returns all valid assessment types
func AllAssessmentTypes() []AssessmentType {
	return []AssessmentType{
		AssessmentTypeAutomated,
		AssessmentTypeManual,
	}
}

// IsValid checks if the assessment type is valid
func (t AssessmentType) IsValid() bool {
	switch t {
	case AssessmentTypeAutomated,
		AssessmentTypeManual:
		return true
	default:
		return false
	}
}

// String returns the string representation of the assessment type
func (t AssessmentType) String() string {
	return string(t)
}

// ParseAssessmentType parses a string into an AssessmentType
func ParseAssessmentType(s string) (AssessmentType, error) {
	typ := AssessmentType(s)
	if !typ.IsValid() {
		return "", goerr.New("invalid assessment type", goerr.V("value", s))
	}
	return typ, nil
}
