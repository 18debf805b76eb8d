package model

import (
	"time"

	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Risk represents an identified hazard for an organization. Only the two
// ordinal enums are persisted; the inherent score and level are recomputed
// from them through the risk matrix so the stored data can never drift from
// the scoring policy.
type Risk struct {
	ID         int64
	OrgID      int64
	Title      string
	Category   types.CategoryID
	Severity   types.Severity
	Likelihood types.Likelihood
	Owner      string
	CreatedAt  time.Time
}

// Subject returns the audit subject identifying this risk
func (r *Risk) Subject() Subject {
	return Subject{Kind: types.SubjectKindRisk, ID: r.ID}
}

// Clone returns a copy of the risk
func (r *Risk) Clone() *Risk {
	cloned := *r
	return &cloned
}

// ScoredRisk decorates a Risk with its computed inherent score and level
type ScoredRisk struct {
	*Risk
	InherentScore int
	Level         types.RiskLevel
}
