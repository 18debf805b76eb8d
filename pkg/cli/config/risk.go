package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// RiskMatrixConfig represents the risk scoring policy configuration
type RiskMatrixConfig struct {
	Severity   []ScoreLevel     `toml:"severity"`
	Likelihood []ScoreLevel     `toml:"likelihood"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
}

// ScoreLevel maps one enum value to its ordinal score
type ScoreLevel struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// ThresholdsConfig holds the lower score bounds of the upper risk levels
type ThresholdsConfig struct {
	Critical int `toml:"critical"`
	High     int `toml:"high"`
	Medium   int `toml:"medium"`
}

// ToDomainMatrix converts the configuration to the domain risk matrix
func (r *RiskMatrixConfig) ToDomainMatrix() *domainConfig.RiskMatrix {
	matrix := &domainConfig.RiskMatrix{
		Thresholds: domainConfig.Thresholds{
			Critical: r.Thresholds.Critical,
			High:     r.Thresholds.High,
			Medium:   r.Thresholds.Medium,
		},
	}
	for _, level := range r.Severity {
		matrix.Severity = append(matrix.Severity, domainConfig.SeverityLevel{
			ID:          types.Severity(level.ID),
			Name:        level.Name,
			Description: level.Description,
			Score:       level.Score,
		})
	}
	for _, level := range r.Likelihood {
		matrix.Likelihood = append(matrix.Likelihood, domainConfig.LikelihoodLevel{
			ID:          types.Likelihood(level.ID),
			Name:        level.Name,
			Description: level.Description,
			Score:       level.Score,
		})
	}
	return matrix
}

// LoadRiskMatrix loads and validates the risk scoring policy from a TOML
// file. The domain matrix validation covers enum coverage, score ranges and
// threshold ordering.
func LoadRiskMatrix(path string) (*domainConfig.RiskMatrix, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read risk matrix file", goerr.V(ConfigPathKey, path))
	}

	var cfg RiskMatrixConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML risk matrix", goerr.V(ConfigPathKey, path))
	}

	matrix := cfg.ToDomainMatrix()
	if err := matrix.Validate(); err != nil {
		return nil, goerr.Wrap(err, "risk matrix validation failed", goerr.V(ConfigPathKey, path))
	}

	return matrix, nil
}
