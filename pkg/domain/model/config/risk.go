package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// SeverityLevel maps one severity enum value to its ordinal score
type SeverityLevel struct {
	ID          types.Severity
	Name        string
	Description string
	Score       int
}

// LikelihoodLevel maps one likelihood enum value to its ordinal score
type LikelihoodLevel struct {
	ID          types.Likelihood
	Name        string
	Description string
	Score       int
}

// Thresholds holds the lower score bounds of the upper three risk levels.
// Any score below Medium is Low.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
}

// RiskMatrix holds the scoring policy: the ordinal mapping of each enum and
// the level thresholds. Both are configurable without a code change; the
// default matrix carries the standard policy.
type RiskMatrix struct {
	Severity   []SeverityLevel
	Likelihood []LikelihoodLevel
	Thresholds Thresholds
}

// DefaultMatrix returns the standard scoring policy: ordinals 1-5 in enum
// order and thresholds Critical>=20, High>=12, Medium>=6.
func DefaultMatrix() *RiskMatrix {
	m := &RiskMatrix{
		Thresholds: Thresholds{Critical: 20, High: 12, Medium: 6},
	}
	for i, s := range types.AllSeverities() {
		m.Severity = append(m.Severity, SeverityLevel{ID: s, Name: s.String(), Score: i + 1})
	}
	for i, l := range types.AllLikelihoods() {
		m.Likelihood = append(m.Likelihood, LikelihoodLevel{ID: l, Name: l.String(), Score: i + 1})
	}
	return m
}

// Validate checks that the matrix covers every enum value exactly once with
// scores in range, and that the thresholds are strictly ordered.
func (m *RiskMatrix) Validate() error {
	sevScores := make(map[types.Severity]int)
	for _, level := range m.Severity {
		if !level.ID.IsValid() {
			return goerr.Wrap(model.ErrValidation, "unknown severity in matrix", goerr.V("id", level.ID))
		}
		if _, ok := sevScores[level.ID]; ok {
			return goerr.Wrap(model.ErrValidation, "duplicate severity in matrix", goerr.V("id", level.ID))
		}
		if level.Score < 1 || level.Score > 5 {
			return goerr.Wrap(model.ErrValidation, "severity score must be between 1 and 5",
				goerr.V("id", level.ID), goerr.V("score", level.Score))
		}
		sevScores[level.ID] = level.Score
	}
	if len(sevScores) != len(types.AllSeverities()) {
		return goerr.Wrap(model.ErrValidation, "matrix must map every severity level",
			goerr.V("mapped", len(sevScores)))
	}

	likScores := make(map[types.Likelihood]int)
	for _, level := range m.Likelihood {
		if !level.ID.IsValid() {
			return goerr.Wrap(model.ErrValidation, "unknown likelihood in matrix", goerr.V("id", level.ID))
		}
		if _, ok := likScores[level.ID]; ok {
			return goerr.Wrap(model.ErrValidation, "duplicate likelihood in matrix", goerr.V("id", level.ID))
		}
		if level.Score < 1 || level.Score > 5 {
			return goerr.Wrap(model.ErrValidation, "likelihood score must be between 1 and 5",
				goerr.V("id", level.ID), goerr.V("score", level.Score))
		}
		likScores[level.ID] = level.Score
	}
	if len(likScores) != len(types.AllLikelihoods()) {
		return goerr.Wrap(model.ErrValidation, "matrix must map every likelihood level",
			goerr.V("mapped", len(likScores)))
	}

	t := m.Thresholds
	if !(1 < t.Medium && t.Medium < t.High && t.High < t.Critical && t.Critical <= 25) {
		return goerr.Wrap(model.ErrValidation, "thresholds must satisfy 1 < medium < high < critical <= 25",
			goerr.V("critical", t.Critical), goerr.V("high", t.High), goerr.V("medium", t.Medium))
	}

	return nil
}

// SeverityScore returns the ordinal score mapped to a severity level
func (m *RiskMatrix) SeverityScore(s types.Severity) (int, error) {
	for _, level := range m.Severity {
		if level.ID == s {
			return level.Score, nil
		}
	}
	return 0, goerr.Wrap(model.ErrInvalidEnumValue, "severity not in matrix", goerr.V("severity", s))
}

// LikelihoodScore returns the ordinal score mapped to a likelihood level
func (m *RiskMatrix) LikelihoodScore(l types.Likelihood) (int, error) {
	for _, level := range m.Likelihood {
		if level.ID == l {
			return level.Score, nil
		}
	}
	return 0, goerr.Wrap(model.ErrInvalidEnumValue, "likelihood not in matrix", goerr.V("likelihood", l))
}

// Score computes the inherent risk score and categorical level for a
// severity/likelihood pair. Pure function; it fails only on enum values the
// matrix does not map.
func (m *RiskMatrix) Score(s types.Severity, l types.Likelihood) (int, types.RiskLevel, error) {
	sev, err := m.SeverityScore(s)
	if err != nil {
		return 0, "", err
	}
	lik, err := m.LikelihoodScore(l)
	if err != nil {
		return 0, "", err
	}

	score := sev * lik
	return score, m.Level(score), nil
}

// Level maps an inherent risk score to its categorical level
func (m *RiskMatrix) Level(score int) types.RiskLevel {
	switch {
	case score >= m.Thresholds.Critical:
		return types.RiskLevelCritical
	case score >= m.Thresholds.High:
		return types.RiskLevelHigh
	case score >= m.Thresholds.Medium:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}
