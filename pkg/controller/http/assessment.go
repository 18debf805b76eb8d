package http

import (
	"net/http"

	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
)

func createAssessmentHandler(uc *usecase.AssessmentUseCase) http.HandlerFunc {
	type request struct {
		OrgID         int64  `json:"organization_id"`
		FrameworkCode string `json:"framework_code"`
		Type          string `json:"type"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		assessment, err := uc.CreateAssessment(r.Context(), req.OrgID,
			types.FrameworkCode(req.FrameworkCode), types.AssessmentType(req.Type))
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, toAssessmentResponse(assessment))
	}
}

func getAssessmentHandler(uc *usecase.AssessmentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		assessment, err := uc.GetAssessment(r.Context(), id)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toAssessmentResponse(assessment))
	}
}

func listAssessmentsHandler(uc *usecase.AssessmentUseCase) http.HandlerFunc {
	type response struct {
		Assessments []assessmentResponse `json:"assessments"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := queryOrgID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		assessments, err := uc.ListAssessments(r.Context(), orgID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{Assessments: make([]assessmentResponse, 0, len(assessments))}
		for _, assessment := range assessments {
			resp.Assessments = append(resp.Assessments, toAssessmentResponse(assessment))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func completeAssessmentHandler(uc *usecase.AssessmentUseCase) http.HandlerFunc {
	type request struct {
		FinalScore float64 `json:"final_score"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		assessment, err := uc.CompleteAssessment(r.Context(), id, req.FinalScore)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toAssessmentResponse(assessment))
	}
}
