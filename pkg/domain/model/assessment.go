package model

import (
	"time"

	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Assessment represents one evaluation of an organization against a framework.
//
// Invariants:
//   - AutomatedScore is written once by the evaluator and never mutated, so the
//     original machine assessment stays comparable against any human override.
//   - FinalScore is set if and only if Status is COMPLETED.
type Assessment struct {
	ID             int64
	OrgID          int64
	FrameworkCode  types.FrameworkCode
	Type           types.AssessmentType
	Status         types.AssessmentStatus
	AutomatedScore *float64
	FinalScore     *float64
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Subject returns the audit subject identifying this assessment
func (a *Assessment) Subject() Subject {
	return Subject{Kind: types.SubjectKindAssessment, ID: a.ID}
}

// Clone returns a deep copy of the assessment
func (a *Assessment) Clone() *Assessment {
	cloned := *a
	if a.AutomatedScore != nil {
		v := *a.AutomatedScore
		cloned.AutomatedScore = &v
	}
	if a.FinalScore != nil {
		v := *a.FinalScore
		cloned.FinalScore = &v
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		cloned.CompletedAt = &t
	}
	return &cloned
}
