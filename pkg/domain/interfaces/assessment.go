package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

type AssessmentRepository interface {
	// Create creates a new assessment with auto-generated ID
	Create(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error)

	// Get retrieves an assessment by ID
	Get(ctx context.Context, id int64) (*model.Assessment, error)

	// List retrieves assessments, filtered by organization when orgID is non-zero
	List(ctx context.Context, orgID int64) ([]*model.Assessment, error)

	// Update replaces an existing assessment
	Update(ctx context.Context, assessment *model.Assessment) (*model.Assessment, error)

	// ListCompletedBetween retrieves assessments completed in [from, to),
	// filtered by organization when orgID is non-zero
	ListCompletedBetween(ctx context.Context, orgID int64, from, to time.Time) ([]*model.Assessment, error)

	// Count returns the number of assessments, filtered by organization when
	// orgID is non-zero
	Count(ctx context.Context, orgID int64) (int, error)
}
