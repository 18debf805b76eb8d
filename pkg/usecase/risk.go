package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/service/ledger"
)

// RiskUseCase manages risk records. Scores and levels are derived from the
// matrix on every read rather than persisted, so a matrix change is
// reflected immediately across all existing risks.
type RiskUseCase struct {
	repo   interfaces.Repository
	matrix *config.RiskMatrix
	ledger *ledger.Ledger
}

func NewRiskUseCase(repo interfaces.Repository, matrix *config.RiskMatrix, lg *ledger.Ledger) *RiskUseCase {
	return &RiskUseCase{
		repo:   repo,
		matrix: matrix,
		ledger: lg,
	}
}

// CreateRisk validates and registers a risk, returning it with the computed
// inherent score and level
func (uc *RiskUseCase) CreateRisk(ctx context.Context, risk *model.Risk) (*model.ScoredRisk, error) {
	if risk.Title == "" {
		return nil, goerr.Wrap(model.ErrValidation, "risk title is required")
	}
	if err := risk.Category.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid risk category", goerr.V("category", risk.Category))
	}
	if !risk.Severity.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidEnumValue, "unknown severity", goerr.V("severity", risk.Severity))
	}
	if !risk.Likelihood.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidEnumValue, "unknown likelihood", goerr.V("likelihood", risk.Likelihood))
	}

	if _, err := uc.repo.Organization().Get(ctx, risk.OrgID); err != nil {
		return nil, err
	}

	score, level, err := uc.matrix.Score(risk.Severity, risk.Likelihood)
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.Risk().Create(ctx, risk)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create risk")
	}

	if _, err := uc.ledger.Append(ctx, created.Subject(), model.ActionCreate, model.ActorFromContext(ctx), map[string]any{
		"organization_id": created.OrgID,
		"title":           created.Title,
		"category":        created.Category,
		"severity":        created.Severity,
		"likelihood":      created.Likelihood,
		"inherent_score":  score,
		"level":           level,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to record risk creation", goerr.V(model.RiskIDKey, created.ID))
	}

	return &model.ScoredRisk{Risk: created, InherentScore: score, Level: level}, nil
}

// GetRisk retrieves a risk by ID with its current score
func (uc *RiskUseCase) GetRisk(ctx context.Context, id int64) (*model.ScoredRisk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.scored(risk)
}

// ListRisks retrieves risks with their current scores, all organizations
// when orgID is zero
func (uc *RiskUseCase) ListRisks(ctx context.Context, orgID int64) ([]*model.ScoredRisk, error) {
	risks, err := uc.repo.Risk().List(ctx, orgID)
	if err != nil {
		return nil, err
	}

	scored := make([]*model.ScoredRisk, 0, len(risks))
	for _, risk := range risks {
		s, err := uc.scored(risk)
		if err != nil {
			return nil, err
		}
		scored = append(scored, s)
	}
	return scored, nil
}

func (uc *RiskUseCase) scored(risk *model.Risk) (*model.ScoredRisk, error) {
	score, level, err := uc.matrix.Score(risk.Severity, risk.Likelihood)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to score risk", goerr.V(model.RiskIDKey, risk.ID))
	}
	return &model.ScoredRisk{Risk: risk, InherentScore: score, Level: level}, nil
}
