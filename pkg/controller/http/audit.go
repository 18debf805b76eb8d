package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
)

// pathSubject parses the {kind}/{id} route parameters into an audit subject
func pathSubject(r *http.Request) (model.Subject, error) {
	kind, err := types.ParseSubjectKind(chi.URLParam(r, "kind"))
	if err != nil {
		return model.Subject{}, goerr.Wrap(model.ErrValidation, "invalid subject kind",
			goerr.V("kind", chi.URLParam(r, "kind")))
	}

	id, err := pathID(r)
	if err != nil {
		return model.Subject{}, err
	}

	return model.Subject{Kind: kind, ID: id}, nil
}

func listAuditEntriesHandler(uc *usecase.AuditUseCase) http.HandlerFunc {
	type response struct {
		Subject string               `json:"subject"`
		Entries []auditEntryResponse `json:"entries"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := pathSubject(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		entries, err := uc.ListAuditEntries(r.Context(), subject)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		resp := response{
			Subject: subject.String(),
			Entries: make([]auditEntryResponse, 0, len(entries)),
		}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, toAuditEntryResponse(entry))
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func verifyAuditHandler(uc *usecase.AuditUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := pathSubject(r)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		result, err := uc.VerifyAudit(r.Context(), subject)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, toChainVerificationResponse(result))
	}
}
