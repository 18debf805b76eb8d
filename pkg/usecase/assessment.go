package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/service/ledger"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/keylock"
)

// AssessmentUseCase drives the assessment lifecycle. Transitions on a single
// assessment are serialized by a per-assessment lock; every transition
// appends one audit entry, and the transition only counts as successful once
// that entry is persisted.
type AssessmentUseCase struct {
	repo               interfaces.Repository
	evaluator          *evaluator.Evaluator
	ledger             *ledger.Ledger
	deviationThreshold float64
	locks              *keylock.KeyLock
}

func NewAssessmentUseCase(repo interfaces.Repository, eval *evaluator.Evaluator, lg *ledger.Ledger, deviationThreshold float64) *AssessmentUseCase {
	return &AssessmentUseCase{
		repo:               repo,
		evaluator:          eval,
		ledger:             lg,
		deviationThreshold: deviationThreshold,
		locks:              keylock.New(),
	}
}

// CreateAssessment registers a new assessment and immediately runs the
// automated evaluation: Pending, then Scoring, then Scored on success or
// Failed when the evaluator cannot produce a score. The evaluation failure
// is recorded in the audit chain before the error is surfaced.
func (uc *AssessmentUseCase) CreateAssessment(ctx context.Context, orgID int64, code types.FrameworkCode, typ types.AssessmentType) (*model.Assessment, error) {
	if !typ.IsValid() {
		return nil, goerr.Wrap(model.ErrValidation, "unknown assessment type", goerr.V("type", typ))
	}
	if err := code.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid framework code", goerr.V(model.FrameworkKey, code))
	}

	org, err := uc.repo.Organization().Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.repo.Framework().GetByCode(ctx, code); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(model.ErrFrameworkNotFound, "unknown framework", goerr.V(model.FrameworkKey, code))
		}
		return nil, err
	}

	created, err := uc.repo.Assessment().Create(ctx, &model.Assessment{
		OrgID:         org.ID,
		FrameworkCode: code,
		Type:          typ,
		Status:        types.AssessmentStatusPending,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create assessment")
	}

	actor := model.ActorFromContext(ctx)
	if _, err := uc.ledger.Append(ctx, created.Subject(), model.ActionCreate, actor, map[string]any{
		"organization_id": created.OrgID,
		"framework_code":  created.FrameworkCode,
		"type":            created.Type,
		"status":          created.Status,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to record assessment creation",
			goerr.V(model.AssessmentIDKey, created.ID))
	}

	unlock := uc.locks.Lock(created.Subject().String())
	defer unlock()

	scoring := created.Clone()
	scoring.Status = types.AssessmentStatusScoring
	scoring, err = uc.advance(ctx, created, scoring, model.ActionScoringStarted, actor, nil)
	if err != nil {
		return nil, err
	}

	evaluation, err := uc.evaluator.Evaluate(ctx, scoring.OrgID, scoring.FrameworkCode)
	if err != nil {
		return nil, uc.fail(ctx, scoring, actor, err)
	}

	score := evaluation.Score
	scored := scoring.Clone()
	scored.Status = types.AssessmentStatusScored
	scored.AutomatedScore = &score
	scored, err = uc.advance(ctx, scoring, scored, model.ActionScored, actor, map[string]any{
		"automated_score":        evaluation.Score,
		"fingerprint":            evaluation.Fingerprint,
		"no_applicable_controls": evaluation.NoApplicableControls,
	})
	if err != nil {
		return nil, err
	}

	return scored, nil
}

// CompleteAssessment records the reviewer's final score and closes the
// assessment. Allowed from Scoring and Scored only; the automated score is
// never touched, and a deviation beyond the configured threshold flags the
// assessment for review instead of rejecting it.
func (uc *AssessmentUseCase) CompleteAssessment(ctx context.Context, id int64, finalScore float64) (*model.Assessment, error) {
	if finalScore < 0 || finalScore > 100 {
		return nil, goerr.Wrap(model.ErrValidation, "final score must be between 0 and 100",
			goerr.V("final_score", finalScore))
	}

	subject := model.Subject{Kind: types.SubjectKindAssessment, ID: id}
	unlock := uc.locks.Lock(subject.String())
	defer unlock()

	assessment, err := uc.repo.Assessment().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	completed := assessment.Clone()
	completed.Status = types.AssessmentStatusCompleted
	completed.FinalScore = &finalScore
	completed.CompletedAt = &now

	payload := map[string]any{
		"final_score": finalScore,
	}
	if assessment.AutomatedScore != nil {
		deviation := math.Abs(finalScore - *assessment.AutomatedScore)
		payload["automated_score"] = *assessment.AutomatedScore
		payload["deviation"] = deviation
		payload["review_required"] = deviation > uc.deviationThreshold
	}

	return uc.advance(ctx, assessment, completed, model.ActionCompleted, model.ActorFromContext(ctx), payload)
}

// GetAssessment retrieves an assessment by ID
func (uc *AssessmentUseCase) GetAssessment(ctx context.Context, id int64) (*model.Assessment, error) {
	return uc.repo.Assessment().Get(ctx, id)
}

// ListAssessments retrieves assessments, all of them when orgID is zero
func (uc *AssessmentUseCase) ListAssessments(ctx context.Context, orgID int64) ([]*model.Assessment, error) {
	return uc.repo.Assessment().List(ctx, orgID)
}

// advance persists next and appends the transition's audit entry. The
// status update and its audit entry are written in that order; an audit
// write failure fails the whole transition.
func (uc *AssessmentUseCase) advance(ctx context.Context, current, next *model.Assessment, action, actor string, extra map[string]any) (*model.Assessment, error) {
	if !current.Status.CanTransitionTo(next.Status) {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "transition not allowed",
			goerr.V(model.AssessmentIDKey, current.ID),
			goerr.V("from", current.Status),
			goerr.V("to", next.Status))
	}

	saved, err := uc.repo.Assessment().Update(ctx, next)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to persist transition",
			goerr.V(model.AssessmentIDKey, next.ID),
			goerr.V(model.StatusKey, next.Status))
	}

	payload := map[string]any{
		"from": current.Status,
		"to":   saved.Status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	if _, err := uc.ledger.Append(ctx, saved.Subject(), action, actor, payload); err != nil {
		return nil, goerr.Wrap(err, "failed to record transition",
			goerr.V(model.AssessmentIDKey, saved.ID),
			goerr.V(model.StatusKey, saved.Status))
	}

	return saved, nil
}

// fail moves the assessment to Failed with the cause in its audit entry,
// then surfaces the original evaluation error
func (uc *AssessmentUseCase) fail(ctx context.Context, assessment *model.Assessment, actor string, cause error) error {
	failed := assessment.Clone()
	failed.Status = types.AssessmentStatusFailed

	if _, err := uc.advance(ctx, assessment, failed, model.ActionFailed, actor, map[string]any{
		"reason": cause.Error(),
	}); err != nil {
		_ = errutil.Handle(ctx, err, "failed to record evaluation failure")
	}

	return goerr.Wrap(cause, "evaluation failed", goerr.V(model.AssessmentIDKey, assessment.ID))
}
