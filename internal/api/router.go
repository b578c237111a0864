package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metricsCfg.Enabled && s.collector != nil {
		r.Handle(s.metricsCfg.Path, s.collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/controllers", func(r chi.Router) {
			r.Get("/", s.handleListControllers)
			r.Post("/{pos}/scan", s.handleScheduleScan)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Post("/invoke", s.handleInvoke)
			})
		})

		r.Route("/nodes/{pos}", func(r chi.Router) {
			r.Get("/", s.handleGetNode)
			r.Put("/interfaces/{side}", s.handleSetInterfaceName)
			r.Put("/facade", s.handleSetFacade)
			r.Delete("/facade", s.handleRemoveFacade)
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	p := s.wsCfg.Path
	if p == "" {
		return "/ws"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// handleHealth returns the server health status. Pending migrations or a
// failed schema check report degraded with 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":      "ok",
		"version":     s.version,
		"controllers": len(s.net.Controllers()),
	}
	if s.schema != nil {
		applied, pending, err := s.schema(r.Context())
		if err != nil {
			s.logger.Warn("schema status check failed", "error", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		} else {
			body["schema"] = map[string]int{"applied": applied, "pending": pending}
			if pending > 0 {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
	}
	writeJSON(w, status, body)
}
