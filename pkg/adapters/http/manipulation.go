package http

import (
	"context"
	"net/http"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/manipulation"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type positionBody struct {
	Position []float64 `json:"position"`
}

type frameRequest struct {
	Body            string    `json:"body"`
	Name            string    `json:"name"`
	Position        []float64 `json:"position"`
	CollisionBodies []string  `json:"collision_bodies,omitempty"`
}

type graphRequest struct {
	Name string `json:"name"`
}

type manipulationServer struct {
	svc *manipulation.Service
	opt *options
}

// NewManipulationHandler creates the handler of a manipulation front-end.
func NewManipulationHandler(svc *manipulation.Service, opts ...Option) http.Handler {
	s := &manipulationServer{svc: svc, opt: newOptions(opts)}
	if s.opt.service == "" {
		s.opt.service = svc.Name()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, requestLogger(s.opt.logger), middleware.Recoverer)

	mountCommon(r, s.opt)
	r.Route("/robot", func(r chi.Router) {
		r.Post("/models/{kind}", s.insertModel)
		r.Post("/environments", s.loadEnvironment)
		r.Get("/root-joints/{name}", s.getRootJointPosition)
		r.Put("/root-joints/{name}", s.setRootJointPosition)
		r.Post("/handles", s.addHandle(svc.AddHandle))
		r.Post("/axial-handles", s.addHandle(svc.AddAxialHandle))
		r.Post("/grippers", s.addGripper)
		r.Get("/available/{what}", s.getAvailable)
		r.Get("/selected/{what}", s.getSelected)
		r.Get("/contacts/{kind}/*", s.getContact)
	})
	r.Get("/problem", s.describe)
	r.Get("/problem/tree", s.kinematicTree)
	r.Post("/problem/graphs", s.createGraph)

	return enableCORS(r)
}

func (s *manipulationServer) insertModel(w http.ResponseWriter, r *http.Request) {
	var body ports.ModelRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	kind := kinematics.ModelKind(chi.URLParam(r, "kind"))
	if err := s.svc.InsertModel(r.Context(), kind, body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *manipulationServer) loadEnvironment(w http.ResponseWriter, r *http.Request) {
	var body ports.EnvironmentRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if err := s.svc.LoadEnvironmentModel(r.Context(), body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *manipulationServer) getRootJointPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.svc.GetRootJointPosition(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, positionBody{Position: pos[:]})
}

func (s *manipulationServer) setRootJointPosition(w http.ResponseWriter, r *http.Request) {
	var body positionBody
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if err := s.svc.SetRootJointPosition(r.Context(), chi.URLParam(r, "name"), body.Position); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// attachFunc is the signature of AddHandle and AddAxialHandle.
type attachFunc func(ctx context.Context, body, frame string, local []float64) error

func (s *manipulationServer) addHandle(attach attachFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body frameRequest
		if err := decode(r, &body); err != nil {
			writeError(w, s.opt.logger, err)
			return
		}
		if len(body.CollisionBodies) > 0 {
			writeError(w, s.opt.logger, domain.Errorf(domain.ErrInvalidArgument, "handles take no collision bodies"))
			return
		}
		if err := attach(r.Context(), body.Body, body.Name, body.Position); err != nil {
			writeError(w, s.opt.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *manipulationServer) addGripper(w http.ResponseWriter, r *http.Request) {
	var body frameRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	if err := s.svc.AddGripper(r.Context(), body.Body, body.Name, body.Position, body.CollisionBodies); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *manipulationServer) getAvailable(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.GetAvailable(r.Context(), chi.URLParam(r, "what"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, names)
}

func (s *manipulationServer) getSelected(w http.ResponseWriter, r *http.Request) {
	name, err := s.svc.GetSelected(r.Context(), chi.URLParam(r, "what"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, map[string]string{"name": name})
}

// getContact takes the rest of the path as the name, which holds the
// model prefix of robot contacts.
func (s *manipulationServer) getContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetContact(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, c)
}

func (s *manipulationServer) describe(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Describe(r.Context())
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusOK, snap)
}

func (s *manipulationServer) kinematicTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.svc.KinematicTree(r.Context(), r.URL.Query().Get("model"))
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(tree))
}

func (s *manipulationServer) createGraph(w http.ResponseWriter, r *http.Request) {
	var body graphRequest
	if err := decode(r, &body); err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	g, err := s.svc.CreateGraph(r.Context(), body.Name)
	if err != nil {
		writeError(w, s.opt.logger, err)
		return
	}
	writeJSON(w, s.opt.logger, http.StatusCreated, g)
}
