package http

import (
	"net/http"
	"strings"

	"github.com/aretw0/manipd/pkg/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type keyRequest struct {
	Key string `json:"key"`
}

type coreServer struct {
	svc *core.Service
	opt *options
}

// NewCoreHandler creates the handler of the problem front-end: registry
// operations plus /health, /info, /metrics, /events and /openapi.yaml.
func NewCoreHandler(svc *core.Service, opts ...Option) http.Handler {
	s := &coreServer{svc: svc, opt: newOptions(opts)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, requestLogger(s.opt.logger), middleware.Recoverer)

	mountCommon(r, s.opt)
	r.Get("/problems", s.listProblems)
	r.Post("/problems", s.createProblem)
	r.Put("/problems/selected", s.selectProblem)
	r.Post("/problems/selected/reset", s.resetProblem)
	r.Get("/problems/selected/obstacles", s.listObstacles)
	r.Get("/problems/selected/obstacles/{name}", s.getObstacle)

	return enableCORS(r)
}

// mountCommon registers the routes every front-end serves.
func mountCommon(r chi.Router, o *options) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, o.logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, o.logger, http.StatusOK, map[string]string{
			"app":         o.app,
			"version":     strings.TrimSpace(o.version),
			"api_version": APIVersion(),
			"service":     o.service,
		})
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		if _, err := Spec(); err != nil {
			o.logger.Error("Failed to load OpenAPI spec", "err", err)
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if o.metrics != nil {
		r.Handle("/metrics", o.metrics)
	}
	if o.events != nil {
		r.Get("/events", subscribeEvents(o))
	}
}

func (s *coreServer) listProblems(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListProblems(r.Context())
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if list.Problems == nil {
		list.Problems = []string{}
	}
	writeJSON(w, s.opt.logger, http.StatusOK, list)
}

func (s *coreServer) createProblem(w http.ResponseWriter, r *http.Request) {
	var body keyRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if err := s.svc.CreateProblem(r.Context(), body.Key); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusCreated, body)
}

func (s *coreServer) selectProblem(w http.ResponseWriter, r *http.Request) {
	var body keyRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if err := s.svc.SelectProblem(r.Context(), body.Key); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *coreServer) resetProblem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetProblem(r.Context()); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *coreServer) listObstacles(w http.ResponseWriter, r *http.Request) {
	obs, err := s.svc.Obstacles(r.Context())
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, obs)
}

func (s *coreServer) getObstacle(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Obstacle(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, o)
}
