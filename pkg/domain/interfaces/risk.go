package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

type RiskRepository interface {
	// Create creates a new risk with auto-generated ID
	Create(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// Get retrieves a risk by ID
	Get(ctx context.Context, id int64) (*model.Risk, error)

	// List retrieves risks, filtered by organization when orgID is non-zero
	List(ctx context.Context, orgID int64) ([]*model.Risk, error)

	// Count returns the number of risks, filtered by organization when orgID
	// is non-zero
	Count(ctx context.Context, orgID int64) (int, error)
}
