package http

import (
	"net/http"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

// ActorHeader carries the caller identity for audit attribution
const ActorHeader = "X-Themis-Actor"

// actorContext propagates the caller identity from the request header into
// the context. Requests without the header are attributed to the anonymous
// actor.
func actorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			r = r.WithContext(model.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
