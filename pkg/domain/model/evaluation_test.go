package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

func TestNewFingerprint(t *testing.T) {
	fp := model.NewFingerprint(1, "nca-ecc", 1)

	// Stable for the same target
	gt.V(t, model.NewFingerprint(1, "nca-ecc", 1)).Equal(fp)

	// Any coordinate change produces a different fingerprint
	gt.B(t, model.NewFingerprint(2, "nca-ecc", 1) == fp).False()
	gt.B(t, model.NewFingerprint(1, "iso-27001", 1) == fp).False()
	gt.B(t, model.NewFingerprint(1, "nca-ecc", 2) == fp).False()
}

func TestEvaluation_Clone(t *testing.T) {
	evaluation := &model.Evaluation{
		Fingerprint:   model.NewFingerprint(1, "nca-ecc", 1),
		OrgID:         1,
		FrameworkCode: "nca-ecc",
		Score:         85.5,
	}

	cloned := evaluation.Clone()
	cloned.Score = 0

	gt.V(t, evaluation.Score).Equal(85.5)
}
