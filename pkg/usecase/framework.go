package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// FrameworkUseCase serves framework reference data and synchronizes the
// configured registry into the repository. The engine itself never edits
// frameworks outside of a registry sync.
type FrameworkUseCase struct {
	repo      interfaces.Repository
	evaluator *evaluator.Evaluator
}

func NewFrameworkUseCase(repo interfaces.Repository, eval *evaluator.Evaluator) *FrameworkUseCase {
	return &FrameworkUseCase{
		repo:      repo,
		evaluator: eval,
	}
}

// ListFrameworks retrieves all registered frameworks
func (uc *FrameworkUseCase) ListFrameworks(ctx context.Context) ([]*model.Framework, error) {
	return uc.repo.Framework().List(ctx)
}

// GetFramework retrieves a framework by its code
func (uc *FrameworkUseCase) GetFramework(ctx context.Context, code types.FrameworkCode) (*model.Framework, error) {
	fw, err := uc.repo.Framework().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(model.ErrFrameworkNotFound, "unknown framework", goerr.V(model.FrameworkKey, code))
		}
		return nil, err
	}
	return fw, nil
}

// SyncResult summarizes one registry synchronization
type SyncResult struct {
	Registered  int
	Updated     int
	Unchanged   int
	Invalidated int
}

// SyncRegistry upserts the configured frameworks into the repository. A
// version change drops every cached evaluation of that framework so stale
// scores cannot be served against the new definition. Frameworks already
// stored at the same version are left untouched.
func (uc *FrameworkUseCase) SyncRegistry(ctx context.Context, frameworks []*model.Framework) (*SyncResult, error) {
	logger := logging.From(ctx)
	result := &SyncResult{}

	for _, fw := range frameworks {
		if err := fw.Validate(); err != nil {
			return nil, err
		}

		existing, err := uc.repo.Framework().GetByCode(ctx, fw.Code)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}

		switch {
		case existing == nil:
			if err := uc.repo.Framework().Put(ctx, fw); err != nil {
				return nil, goerr.Wrap(err, "failed to register framework", goerr.V(model.FrameworkKey, fw.Code))
			}
			result.Registered++
			logger.Info("registered framework",
				"code", fw.Code,
				"version", fw.Version,
				"controls", len(fw.Controls),
			)

		case existing.Version != fw.Version:
			if err := uc.repo.Framework().Put(ctx, fw); err != nil {
				return nil, goerr.Wrap(err, "failed to update framework", goerr.V(model.FrameworkKey, fw.Code))
			}
			removed, err := uc.evaluator.InvalidateFramework(ctx, fw.Code)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to invalidate cached evaluations",
					goerr.V(model.FrameworkKey, fw.Code))
			}
			result.Updated++
			result.Invalidated += removed
			logger.Info("updated framework",
				"code", fw.Code,
				"version", fw.Version,
				"previous_version", existing.Version,
				"invalidated_evaluations", removed,
			)

		default:
			result.Unchanged++
		}
	}

	return result, nil
}
