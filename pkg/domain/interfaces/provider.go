package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/types"
)

// ControlStatusProvider reports whether an organization satisfies a control.
// It wraps the external collaborator behind a single narrow method so the
// engine stays isolated from the collaborator's internal representation.
type ControlStatusProvider interface {
	IsControlSatisfied(ctx context.Context, orgID int64, controlID types.ControlID) (bool, error)
}
