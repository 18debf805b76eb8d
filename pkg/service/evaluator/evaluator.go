package evaluator

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/evalcache"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// Evaluator computes weighted compliance scores for an organization against
// a framework, delegating memoization and single-flight dedup to the
// evaluation cache.
type Evaluator struct {
	repo     interfaces.Repository
	provider interfaces.ControlStatusProvider
	cache    *evalcache.Cache
}

func New(repo interfaces.Repository, provider interfaces.ControlStatusProvider, cache *evalcache.Cache) *Evaluator {
	return &Evaluator{
		repo:     repo,
		provider: provider,
		cache:    cache,
	}
}

// Evaluate returns the evaluation for the organization against the framework,
// served from cache when a fresh result exists
func (e *Evaluator) Evaluate(ctx context.Context, orgID int64, code types.FrameworkCode) (*model.Evaluation, error) {
	org, err := e.repo.Organization().Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	fw, err := e.repo.Framework().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(model.ErrFrameworkNotFound, "unknown framework",
				goerr.V(model.FrameworkKey, code))
		}
		return nil, err
	}

	return e.cache.GetOrCompute(ctx, org.ID, fw.Code, fw.Version, func(ctx context.Context) (*model.Evaluation, error) {
		return e.compute(ctx, org, fw)
	})
}

func (e *Evaluator) compute(ctx context.Context, org *model.Organization, fw *model.Framework) (*model.Evaluation, error) {
	logger := logging.From(ctx)
	logger.Debug("computing evaluation",
		"organization_id", org.ID,
		"framework_code", fw.Code,
		"framework_version", fw.Version,
		"controls", len(fw.Controls))

	evaluation := &model.Evaluation{
		Fingerprint:      model.NewFingerprint(org.ID, fw.Code, fw.Version),
		OrgID:            org.ID,
		FrameworkCode:    fw.Code,
		FrameworkVersion: fw.Version,
		EvaluatedAt:      time.Now().UTC(),
	}

	totalWeight := fw.TotalWeight()
	if totalWeight == 0 {
		// Zero measurable controls is not compliance. The flag lets callers
		// tell "nothing measured" apart from a real zero score.
		evaluation.NoApplicableControls = true
		return evaluation, nil
	}

	var satisfiedWeight float64
	for _, control := range fw.Controls {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "evaluation interrupted",
				goerr.V(model.OrgIDKey, org.ID), goerr.V(model.FrameworkKey, fw.Code))
		}

		satisfied, err := e.provider.IsControlSatisfied(ctx, org.ID, control.ID)
		if err != nil {
			return nil, goerr.Wrap(model.ErrEvaluationFailed, "failed to check control status",
				goerr.V(model.OrgIDKey, org.ID),
				goerr.V(model.FrameworkKey, fw.Code),
				goerr.V(model.ControlIDKey, control.ID),
				goerr.V("cause", err.Error()))
		}
		if satisfied {
			satisfiedWeight += control.Weight
		}
	}

	evaluation.SatisfiedWeight = satisfiedWeight
	evaluation.TotalWeight = totalWeight
	evaluation.Score = round2(100 * satisfiedWeight / totalWeight)

	return evaluation, nil
}

// Invalidate drops cached results for the (organization, framework) pair
// across all framework versions
func (e *Evaluator) Invalidate(ctx context.Context, orgID int64, code types.FrameworkCode) (int, error) {
	return e.cache.Invalidate(ctx, orgID, code)
}

// InvalidateFramework drops cached results for a framework across all
// organizations, used when the framework definition itself changes
func (e *Evaluator) InvalidateFramework(ctx context.Context, code types.FrameworkCode) (int, error) {
	return e.cache.InvalidateFramework(ctx, code)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
