package usecase

import (
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/service/ledger"
)

// DefaultDeviationThreshold is the score deviation above which a completed
// assessment is flagged for review
const DefaultDeviationThreshold = 20.0

type UseCases struct {
	repo               interfaces.Repository
	matrix             *config.RiskMatrix
	deviationThreshold float64

	Organization *OrganizationUseCase
	Framework    *FrameworkUseCase
	Assessment   *AssessmentUseCase
	Risk         *RiskUseCase
	Analytics    *AnalyticsUseCase
	Audit        *AuditUseCase
}

type Option func(*UseCases)

// WithRiskMatrix replaces the default severity/likelihood scoring matrix
func WithRiskMatrix(matrix *config.RiskMatrix) Option {
	return func(uc *UseCases) {
		uc.matrix = matrix
	}
}

// WithDeviationThreshold overrides the review-flag threshold for the gap
// between an automated score and a reviewer's final score
func WithDeviationThreshold(points float64) Option {
	return func(uc *UseCases) {
		uc.deviationThreshold = points
	}
}

func New(repo interfaces.Repository, eval *evaluator.Evaluator, lg *ledger.Ledger, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:               repo,
		matrix:             config.DefaultMatrix(),
		deviationThreshold: DefaultDeviationThreshold,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Organization = NewOrganizationUseCase(repo, lg)
	uc.Framework = NewFrameworkUseCase(repo, eval)
	uc.Assessment = NewAssessmentUseCase(repo, eval, lg, uc.deviationThreshold)
	uc.Risk = NewRiskUseCase(repo, uc.matrix, lg)
	uc.Analytics = NewAnalyticsUseCase(repo, uc.matrix)
	uc.Audit = NewAuditUseCase(repo, lg)

	return uc
}
