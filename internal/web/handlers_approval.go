package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/checkbench/internal/approval"
	"github.com/go-chi/chi/v5"
)

type applicationsResponse struct {
	Applications []approval.Application `json:"applications"`
	Counts       approval.Counts        `json:"counts"`
}

// handleListApplications lists applications filtered by ?status= and ?q=.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	status, err := approval.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	apps, counts := s.queue.List(approval.Filter{Status: status, Search: r.URL.Query().Get("q")})
	if apps == nil {
		apps = []approval.Application{}
	}
	writeJSON(w, http.StatusOK, applicationsResponse{Applications: apps, Counts: counts})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.queue.Get(chi.URLParam(r, "appID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, s.queue.Approve)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, s.queue.Reject)
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, user string) (approval.Application, error)) {
	app, err := fn(r.Context(), chi.URLParam(r, "appID"), operator(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
