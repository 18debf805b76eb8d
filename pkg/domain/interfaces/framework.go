package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

type FrameworkRepository interface {
	// Put inserts or replaces a framework definition keyed by its code.
	// Used only by the registry sync; the engine itself never writes.
	Put(ctx context.Context, fw *model.Framework) error

	// GetByCode retrieves a framework by its code
	GetByCode(ctx context.Context, code types.FrameworkCode) (*model.Framework, error)

	// List retrieves all frameworks
	List(ctx context.Context) ([]*model.Framework, error)

	// Count returns the number of frameworks
	Count(ctx context.Context) (int, error)
}
