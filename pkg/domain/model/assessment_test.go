package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

func TestAssessment_Subject(t *testing.T) {
	assessment := &model.Assessment{ID: 12}
	subject := assessment.Subject()

	gt.V(t, subject.Kind).Equal(types.SubjectKindAssessment)
	gt.V(t, subject.ID).Equal(int64(12))
	gt.S(t, subject.String()).Equal("assessment:12")
}

func TestAssessment_Clone(t *testing.T) {
	score := 85.5
	final := 90.0
	completedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	original := &model.Assessment{
		ID:             1,
		OrgID:          2,
		FrameworkCode:  "nca-ecc",
		Type:           types.AssessmentTypeAutomated,
		Status:         types.AssessmentStatusCompleted,
		AutomatedScore: &score,
		FinalScore:     &final,
		CompletedAt:    &completedAt,
	}

	cloned := original.Clone()
	gt.V(t, cloned.ID).Equal(original.ID)
	gt.V(t, *cloned.AutomatedScore).Equal(85.5)
	gt.V(t, *cloned.FinalScore).Equal(90.0)
	gt.B(t, cloned.CompletedAt.Equal(completedAt)).True()

	// Pointer fields must not be shared with the original
	*cloned.AutomatedScore = 10
	*cloned.FinalScore = 20
	*cloned.CompletedAt = time.Now()
	cloned.Status = types.AssessmentStatusFailed

	gt.V(t, *original.AutomatedScore).Equal(85.5)
	gt.V(t, *original.FinalScore).Equal(90.0)
	gt.B(t, original.CompletedAt.Equal(completedAt)).True()
	gt.V(t, original.Status).Equal(types.AssessmentStatusCompleted)
}

func TestAssessment_CloneNilPointers(t *testing.T) {
	original := &model.Assessment{
		ID:     5,
		Status: types.AssessmentStatusPending,
	}

	cloned := original.Clone()
	gt.B(t, cloned.AutomatedScore == nil).True()
	gt.B(t, cloned.FinalScore == nil).True()
	gt.B(t, cloned.CompletedAt == nil).True()
}
