package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

const validMatrixTOML = `
[[severity]]
id = "negligible"
name = "Negligible"
score = 1

[[severity]]
id = "minor"
name = "Minor"
score = 2

[[severity]]
id = "moderate"
name = "Moderate"
score = 3

[[severity]]
id = "major"
name = "Major"
score = 4

[[severity]]
id = "critical"
name = "Critical"
score = 5

[[likelihood]]
id = "rare"
name = "Rare"
score = 1

[[likelihood]]
id = "unlikely"
name = "Unlikely"
score = 2

[[likelihood]]
id = "possible"
name = "Possible"
score = 3

[[likelihood]]
id = "likely"
name = "Likely"
score = 4

[[likelihood]]
id = "very_high"
name = "Very High"
score = 5

[thresholds]
critical = 20
high = 12
medium = 5
`

func TestLoadRiskMatrix(t *testing.T) {
	t.Run("loads complete scoring policy", func(t *testing.T) {
		path := writeConfigFile(t, "risk.toml", validMatrixTOML)

		matrix, err := config.LoadRiskMatrix(path)
		gt.NoError(t, err).Required()

		score, level, err := matrix.Score(types.SeverityCritical, types.LikelihoodVeryHigh)
		gt.NoError(t, err)
		gt.V(t, score).Equal(25)
		gt.V(t, level).Equal(types.RiskLevelCritical)

		score, level, err = matrix.Score(types.SeverityMajor, types.LikelihoodLikely)
		gt.NoError(t, err)
		gt.V(t, score).Equal(16)
		gt.V(t, level).Equal(types.RiskLevelHigh)

		score, level, err = matrix.Score(types.SeverityNegligible, types.LikelihoodRare)
		gt.NoError(t, err)
		gt.V(t, score).Equal(1)
		gt.V(t, level).Equal(types.RiskLevelLow)
	})

	t.Run("rejects incomplete enum coverage", func(t *testing.T) {
		path := writeConfigFile(t, "risk.toml", `
[[severity]]
id = "critical"
name = "Critical"
score = 5

[[likelihood]]
id = "rare"
name = "Rare"
score = 1

[thresholds]
critical = 20
high = 12
medium = 5
`)

		_, err := config.LoadRiskMatrix(path)
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("rejects out-of-range scores", func(t *testing.T) {
		path := writeConfigFile(t, "risk.toml", `
[[severity]]
id = "negligible"
name = "Negligible"
score = 9

[thresholds]
critical = 20
high = 12
medium = 5
`)

		_, err := config.LoadRiskMatrix(path)
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrValidation)).True()
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		path := writeConfigFile(t, "risk.toml", `[thresholds`)

		_, err := config.LoadRiskMatrix(path)
		gt.Error(t, err)
	})
}
