package http

import (
	"net/http"

	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
)

func createRiskHandler(uc *usecase.RiskUseCase) http.HandlerFunc {
	type request struct {
		OrgID      int64  `json:"organization_id"`
		Title      string `json:"title"`
		Category   string `json:"category"`
		Severity   string `json:"severity"`
		Likelihood string `json:"likelihood"`
		Owner      string `json:"owner"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		risk, err := uc.CreateRisk(r.Context(), &model.Risk{
			OrgID:      req.OrgID,
			Title:      req.Title,
			Category:   types.CategoryID(req.Category),
			Severity:   types.Severity(req.Severity),
			Likelihood: types.Likelihood(req.Likelihood),
			Owner:      req.Owner,
		})
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, toRiskResponse(risk))
	}
}

func getRiskHandler(uc *usecase.RiskUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		risk, err := uc.GetRisk(r.Context(), id)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toRiskResponse(risk))
	}
}

func listRisksHandler(uc *usecase.RiskUseCase) http.HandlerFunc {
	type response struct {
		Risks []riskResponse `json:"risks"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := queryOrgID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		risks, err := uc.ListRisks(r.Context(), orgID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{Risks: make([]riskResponse, 0, len(risks))}
		for _, risk := range risks {
			resp.Risks = append(resp.Risks, toRiskResponse(risk))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
