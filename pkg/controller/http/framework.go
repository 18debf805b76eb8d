package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
)

func listFrameworksHandler(uc *usecase.FrameworkUseCase) http.HandlerFunc {
	type response struct {
		Frameworks []frameworkSummaryResponse `json:"frameworks"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		frameworks, err := uc.ListFrameworks(r.Context())
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{Frameworks: make([]frameworkSummaryResponse, 0, len(frameworks))}
		for _, fw := range frameworks {
			resp.Frameworks = append(resp.Frameworks, toFrameworkSummaryResponse(fw))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func getFrameworkHandler(uc *usecase.FrameworkUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := types.FrameworkCode(chi.URLParam(r, "code"))

		fw, err := uc.GetFramework(r.Context(), code)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toFrameworkResponse(fw))
	}
}
