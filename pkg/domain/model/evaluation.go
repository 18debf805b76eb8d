package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Fingerprint is a stable hash identifying one (organization, framework,
// framework version) evaluation target. It is the cache key for evaluation
// results.
type Fingerprint string

// NewFingerprint derives the fingerprint for an evaluation target
func NewFingerprint(orgID int64, code types.FrameworkCode, version int) Fingerprint {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%s|%d", orgID, code, version))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the string representation of the fingerprint
func (f Fingerprint) String() string {
	return string(f)
}

// Evaluation is the result of evaluating an organization against one
// framework version. It is the payload stored in the evaluation cache and
// is never mutated after computation.
type Evaluation struct {
	Fingerprint          Fingerprint         `json:"fingerprint"`
	OrgID                int64               `json:"organization_id"`
	FrameworkCode        types.FrameworkCode `json:"framework_code"`
	FrameworkVersion     int                 `json:"framework_version"`
	Score                float64             `json:"score"`
	SatisfiedWeight      float64             `json:"satisfied_weight"`
	TotalWeight          float64             `json:"total_weight"`
	NoApplicableControls bool                `json:"no_applicable_controls"`
	EvaluatedAt          time.Time           `json:"evaluated_at"`
}

// Clone returns a copy of the evaluation
func (e *Evaluation) Clone() *Evaluation {
	cloned := *e
	return &cloned
}
