package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
)

// invalidateCacheHandler drops cached evaluations for an organization and
// framework pair, forcing the next assessment to recompute. Used after
// control status data changes outside the engine.
func invalidateCacheHandler(eval *evaluator.Evaluator) http.HandlerFunc {
	type request struct {
		OrgID         int64  `json:"organization_id"`
		FrameworkCode string `json:"framework_code"`
	}
	type response struct {
		Removed int `json:"removed"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		if req.OrgID <= 0 {
			writeError(r.Context(), w, goerr.Wrap(model.ErrValidation, "organization_id must be a positive integer"))
			return
		}
		code := types.FrameworkCode(req.FrameworkCode)
		if err := code.Validate(); err != nil {
			writeError(r.Context(), w, goerr.Wrap(model.ErrValidation, "invalid framework code", goerr.V(model.FrameworkKey, req.FrameworkCode)))
			return
		}

		removed, err := eval.Invalidate(r.Context(), req.OrgID, code)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, response{Removed: removed})
	}
}
