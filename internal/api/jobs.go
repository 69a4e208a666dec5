package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dccpipe/internal/jobs"
	"dccpipe/internal/services"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := jobs.ListOptions{Project: strings.TrimSpace(query.Get("project"))}
	for _, value := range query["status"] {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			opts.Status = append(opts.Status, jobs.Status(trimmed))
		}
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.fail(w, r, services.Wrap(services.ErrInvalidConfiguration, "api", "list jobs", "limit must be a non-negative integer", nil))
			return
		}
		opts.Limit = limit
	}
	list, err := s.manager.Jobs().List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, JobListResponse{Jobs: list})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.manager.Jobs().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, JobResponse{Job: job})
}
