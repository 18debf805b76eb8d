package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// FrameworkRegistry represents the framework registry configuration
type FrameworkRegistry struct {
	Frameworks []FrameworkConfig `toml:"framework"`
}

// FrameworkConfig represents one framework definition
type FrameworkConfig struct {
	Code     string          `toml:"code"`
	Name     string          `toml:"name"`
	Regional bool            `toml:"regional"`
	Version  int             `toml:"version"`
	Controls []ControlConfig `toml:"control"`
}

// ControlConfig represents one control within a framework
type ControlConfig struct {
	ID          string  `toml:"id"`
	Description string  `toml:"description"`
	Weight      float64 `toml:"weight"`
}

// ToDomainFramework converts the configuration to a domain framework
func (f *FrameworkConfig) ToDomainFramework() *model.Framework {
	fw := &model.Framework{
		Code:     types.FrameworkCode(f.Code),
		Name:     f.Name,
		Regional: f.Regional,
		Version:  f.Version,
	}
	for _, c := range f.Controls {
		fw.Controls = append(fw.Controls, model.Control{
			ID:          types.ControlID(c.ID),
			Description: c.Description,
			Weight:      c.Weight,
		})
	}
	return fw
}

// LoadFrameworks loads and validates framework definitions from a TOML file
func LoadFrameworks(path string) ([]*model.Framework, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read framework registry file", goerr.V(ConfigPathKey, path))
	}

	var registry FrameworkRegistry
	if err := toml.Unmarshal(data, &registry); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML framework registry", goerr.V(ConfigPathKey, path))
	}

	seen := make(map[types.FrameworkCode]bool)
	frameworks := make([]*model.Framework, 0, len(registry.Frameworks))
	for _, cfg := range registry.Frameworks {
		fw := cfg.ToDomainFramework()
		if err := fw.Validate(); err != nil {
			return nil, goerr.Wrap(err, "framework validation failed", goerr.V(ConfigPathKey, path))
		}
		if seen[fw.Code] {
			return nil, goerr.Wrap(ErrInvalidConfig, "duplicate framework code",
				goerr.V(ConfigPathKey, path), goerr.V(model.FrameworkKey, fw.Code))
		}
		seen[fw.Code] = true
		frameworks = append(frameworks, fw)
	}

	return frameworks, nil
}
