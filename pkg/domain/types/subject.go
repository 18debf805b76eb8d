package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// SubjectKind represents the entity type an audit log entry refers to
type SubjectKind string

const (
	SubjectKindOrganization SubjectKind = "organization"
	SubjectKindAssessment   SubjectKind = "assessment"
	SubjectKindRisk         SubjectKind = "risk"
	SubjectKindFramework    SubjectKind = "framework"
)

// AllSubjectKinds returns all valid subject kinds
func AllSubjectKinds() []SubjectKind {
	return []SubjectKind{
		SubjectKindOrganization,
		SubjectKindAssessment,
		SubjectKindRisk,
		SubjectKindFramework,
	}
}

// IsValid checks if the subject kind is valid
func (k SubjectKind) IsValid() bool {
	switch k {
	case SubjectKindOrganization,
		SubjectKindAssessment,
		SubjectKindRisk,
		SubjectKindFramework:
		return true
	default:
		return false
	}
}

// String returns the string representation of the subject kind
func (k SubjectKind) String() string {
	return string(k)
}

// ParseSubjectKind parses a string into a SubjectKind
func ParseSubjectKind(s string) (SubjectKind, error) {
	kind := SubjectKind(s)
	if !kind.IsValid() {
		return "", goerr.New("invalid subject kind", goerr.V("value", s))
	}
	return kind, nil
}
