package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/themis/pkg/service/evaluator"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

type Server struct {
	router    *chi.Mux
	gatherer  prometheus.Gatherer
	evaluator *evaluator.Evaluator
}

type Options func(*Server)

// WithMetrics exposes the registry's collectors on /metrics
func WithMetrics(gatherer prometheus.Gatherer) Options {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithCacheAdmin enables the cache invalidation endpoint
func WithCacheAdmin(eval *evaluator.Evaluator) Options {
	return func(s *Server) {
		s.evaluator = eval
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(actorContext)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	if s.gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", createOrganizationHandler(uc.Organization))
			r.Get("/", listOrganizationsHandler(uc.Organization))
			r.Get("/{id}", getOrganizationHandler(uc.Organization))
		})

		r.Route("/frameworks", func(r chi.Router) {
			r.Get("/", listFrameworksHandler(uc.Framework))
			r.Get("/{code}", getFrameworkHandler(uc.Framework))
		})

		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", createAssessmentHandler(uc.Assessment))
			r.Get("/", listAssessmentsHandler(uc.Assessment))
			r.Get("/{id}", getAssessmentHandler(uc.Assessment))
			r.Post("/{id}/complete", completeAssessmentHandler(uc.Assessment))
		})

		r.Route("/risks", func(r chi.Router) {
			r.Post("/", createRiskHandler(uc.Risk))
			r.Get("/", listRisksHandler(uc.Risk))
			r.Get("/{id}", getRiskHandler(uc.Risk))
		})

		r.Get("/dashboard", dashboardHandler(uc.Analytics))
		r.Get("/trends", trendsHandler(uc.Analytics))

		r.Route("/audit/{kind}/{id}", func(r chi.Router) {
			r.Get("/", listAuditEntriesHandler(uc.Audit))
			r.Get("/verify", verifyAuditHandler(uc.Audit))
		})

		if s.evaluator != nil {
			r.Post("/cache/invalidate", invalidateCacheHandler(s.evaluator))
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
