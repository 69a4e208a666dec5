package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dccpipe/internal/workflow"
)

func (s *Server) handleListRenders(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	manager := proj.Manager()
	latest, _ := manager.Latest()
	s.writeJSON(w, r, http.StatusOK, RenderListResponse{
		Versions: manager.RenderVersions(),
		Latest:   latest,
	})
}

func (s *Server) handleStartRender(w http.ResponseWriter, r *http.Request) {
	var req workflow.RenderRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Project = chi.URLParam(r, "name")
	job, err := s.manager.SubmitRender(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, JobResponse{Job: job})
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "rsv")
	record, err := proj.Manager().RenderInfo(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := RenderVersionResponse{ID: id, Record: record}
	if shot, err := proj.Store.Shot(record.Shot); err == nil {
		resp.FramesTotal = shot.Range.Len()
		resp.Complete = resp.FramesTotal > 0 && len(record.Frames) >= resp.FramesTotal
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}
