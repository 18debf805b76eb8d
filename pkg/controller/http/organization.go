package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/usecase"
)

func createOrganizationHandler(uc *usecase.OrganizationUseCase) http.HandlerFunc {
	type request struct {
		Name     string `json:"name"`
		Sector   string `json:"sector"`
		Regional bool   `json:"regional"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeError(r.Context(), w, err)
			return
		}

		org, err := uc.CreateOrganization(r.Context(), req.Name, req.Sector, req.Regional)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, toOrganizationResponse(org))
	}
}

func getOrganizationHandler(uc *usecase.OrganizationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		org, err := uc.GetOrganization(r.Context(), id)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toOrganizationResponse(org))
	}
}

func listOrganizationsHandler(uc *usecase.OrganizationUseCase) http.HandlerFunc {
	type response struct {
		Organizations []organizationResponse `json:"organizations"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		orgs, err := uc.ListOrganizations(r.Context())
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{Organizations: make([]organizationResponse, 0, len(orgs))}
		for _, org := range orgs {
			resp.Organizations = append(resp.Organizations, toOrganizationResponse(org))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

// pathID parses the {id} route parameter
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(model.ErrValidation, "ID must be a positive integer", goerr.V("id", raw))
	}
	return id, nil
}

// queryOrgID parses the optional organization_id query parameter, returning
// zero when absent
func queryOrgID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("organization_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(model.ErrValidation, "organization_id must be a positive integer", goerr.V("organization_id", raw))
	}
	return id, nil
}
