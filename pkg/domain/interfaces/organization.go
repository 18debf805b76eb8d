package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

type OrganizationRepository interface {
	// Create creates a new organization with auto-generated ID
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)

	// Get retrieves an organization by ID
	Get(ctx context.Context, id int64) (*model.Organization, error)

	// List retrieves all organizations
	List(ctx context.Context) ([]*model.Organization, error)

	// Count returns the number of organizations
	Count(ctx context.Context) (int, error)
}
