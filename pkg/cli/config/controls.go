package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/controls"
)

// ControlStatusConfig represents the static control status data
type ControlStatusConfig struct {
	Organizations []OrganizationControls `toml:"organization"`
}

// OrganizationControls lists the controls one organization satisfies
type OrganizationControls struct {
	ID        int64    `toml:"id"`
	Satisfied []string `toml:"satisfied"`
}

// LoadControlStatus loads static control status data from a TOML file and
// builds the provider. Controls not listed are treated as unsatisfied.
func LoadControlStatus(path string) (*controls.Static, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read control status file", goerr.V(ConfigPathKey, path))
	}

	var cfg ControlStatusConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML control status", goerr.V(ConfigPathKey, path))
	}

	provider := controls.NewStatic()
	seen := make(map[int64]bool)
	for _, org := range cfg.Organizations {
		if org.ID <= 0 {
			return nil, goerr.Wrap(ErrInvalidConfig, "organization ID must be positive",
				goerr.V(ConfigPathKey, path), goerr.V("id", org.ID))
		}
		if seen[org.ID] {
			return nil, goerr.Wrap(ErrInvalidConfig, "duplicate organization in control status",
				goerr.V(ConfigPathKey, path), goerr.V("id", org.ID))
		}
		seen[org.ID] = true

		ids := make([]types.ControlID, 0, len(org.Satisfied))
		for _, raw := range org.Satisfied {
			id := types.ControlID(raw)
			if err := id.Validate(); err != nil {
				return nil, goerr.Wrap(err, "invalid control ID in control status",
					goerr.V(ConfigPathKey, path), goerr.V("organization_id", org.ID))
			}
			ids = append(ids, id)
		}
		provider.SetAll(org.ID, ids)
	}

	return provider, nil
}
