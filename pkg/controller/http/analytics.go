package http

import (
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/usecase"
)

// defaultTrendDays is the trend window used when the request does not name one
const defaultTrendDays = 30

func dashboardHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	type levelCount struct {
		Level string `json:"level"`
		Count int    `json:"count"`
	}
	type response struct {
		OrgCount         int          `json:"organization_count"`
		AssessmentCount  int          `json:"assessment_count"`
		OpenRiskCount    int          `json:"open_risk_count"`
		FrameworkCount   int          `json:"framework_count"`
		RiskDistribution []levelCount `json:"risk_distribution"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := queryOrgID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		stats, err := uc.DashboardStats(r.Context(), orgID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{
			OrgCount:         stats.OrgCount,
			AssessmentCount:  stats.AssessmentCount,
			OpenRiskCount:    stats.OpenRiskCount,
			FrameworkCount:   stats.FrameworkCount,
			RiskDistribution: make([]levelCount, 0, len(stats.RiskDistribution)),
		}
		for _, bucket := range stats.RiskDistribution {
			resp.RiskDistribution = append(resp.RiskDistribution, levelCount{
				Level: bucket.Level.String(),
				Count: bucket.Count,
			})
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func trendsHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	type point struct {
		Date         string   `json:"date"`
		AverageScore *float64 `json:"average_score"`
		Completed    int      `json:"completed"`
	}
	type response struct {
		OrgID  int64   `json:"organization_id"`
		Days   int     `json:"days"`
		Points []point `json:"points"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := queryOrgID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		if orgID == 0 {
			writeError(r.Context(), w, goerr.Wrap(model.ErrValidation, "organization_id is required"))
			return
		}

		days := defaultTrendDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			days, err = strconv.Atoi(raw)
			if err != nil {
				writeError(r.Context(), w, goerr.Wrap(model.ErrValidation, "days must be an integer", goerr.V("days", raw)))
				return
			}
		}

		trend, err := uc.Trends(r.Context(), orgID, days)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{OrgID: orgID, Days: days, Points: make([]point, 0, days)}
		for p := range trend {
			resp.Points = append(resp.Points, point{
				Date:         p.Date.Format("2006-01-02"),
				AverageScore: p.AverageScore,
				Completed:    p.Completed,
			})
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
