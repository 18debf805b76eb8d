package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// AnalyticsUseCase produces read-only aggregations over persisted
// assessments and risks. It never mutates source data.
type AnalyticsUseCase struct {
	repo   interfaces.Repository
	matrix *config.RiskMatrix
}

func NewAnalyticsUseCase(repo interfaces.Repository, matrix *config.RiskMatrix) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		repo:   repo,
		matrix: matrix,
	}
}

// DashboardStats aggregates entity counts and the risk level distribution.
// With a non-zero orgID the assessment and risk counts are scoped to that
// organization; the framework count is always global because frameworks are
// shared reference data.
func (uc *AnalyticsUseCase) DashboardStats(ctx context.Context, orgID int64) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	if orgID != 0 {
		if _, err := uc.repo.Organization().Get(ctx, orgID); err != nil {
			return nil, err
		}
		stats.OrgCount = 1
	} else {
		count, err := uc.repo.Organization().Count(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to count organizations")
		}
		stats.OrgCount = count
	}

	assessments, err := uc.repo.Assessment().Count(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count assessments")
	}
	stats.AssessmentCount = assessments

	frameworks, err := uc.repo.Framework().Count(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count frameworks")
	}
	stats.FrameworkCount = frameworks

	risks, err := uc.repo.Risk().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	stats.OpenRiskCount = len(risks)

	distribution, err := uc.riskDistribution(risks)
	if err != nil {
		return nil, err
	}
	stats.RiskDistribution = distribution

	return stats, nil
}

// riskDistribution counts risks per computed level. Every level appears in
// the result, lowest first, so consumers always see the full scale even when
// some buckets are empty.
func (uc *AnalyticsUseCase) riskDistribution(risks []*model.Risk) ([]model.RiskLevelCount, error) {
	counts := make(map[types.RiskLevel]int, len(types.AllRiskLevels()))
	for _, risk := range risks {
		_, level, err := uc.matrix.Score(risk.Severity, risk.Likelihood)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to score risk", goerr.V(model.RiskIDKey, risk.ID))
		}
		counts[level]++
	}

	distribution := make([]model.RiskLevelCount, 0, len(types.AllRiskLevels()))
	for _, level := range types.AllRiskLevels() {
		distribution = append(distribution, model.RiskLevelCount{Level: level, Count: counts[level]})
	}
	return distribution, nil
}

// Trends buckets the organization's completed assessments by UTC calendar
// day over the trailing window and yields one point per day, oldest first.
// Days without completions carry a nil average so "no data" stays
// distinguishable from a zero score. The returned sequence is finite and can
// be iterated multiple times.
func (uc *AnalyticsUseCase) Trends(ctx context.Context, orgID int64, days int) (iter.Seq[model.TrendPoint], error) {
	if days < 1 {
		return nil, goerr.Wrap(model.ErrValidation, "trend window must be at least one day", goerr.V("days", days))
	}
	if _, err := uc.repo.Organization().Get(ctx, orgID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	end := startOfDay(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	completed, err := uc.repo.Assessment().ListCompletedBetween(ctx, orgID, start, end)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list completed assessments",
			goerr.V(model.OrgIDKey, orgID))
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]bucket)
	for _, assessment := range completed {
		if assessment.CompletedAt == nil || assessment.FinalScore == nil {
			continue
		}
		day := startOfDay(assessment.CompletedAt.UTC())
		b := buckets[day]
		b.sum += *assessment.FinalScore
		b.count++
		buckets[day] = b
	}

	return func(yield func(model.TrendPoint) bool) {
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			point := model.TrendPoint{Date: day}
			if b, ok := buckets[day]; ok && b.count > 0 {
				avg := b.sum / float64(b.count)
				point.AverageScore = &avg
				point.Completed = b.count
			}
			if !yield(point) {
				return
			}
		}
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
