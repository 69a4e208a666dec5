package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dccpipe/internal/metadata"
	"dccpipe/internal/project"
	"dccpipe/internal/workflow"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	names, err := s.workspace.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ProjectListResponse{Projects: names})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreateRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	job, err := s.manager.SubmitCreateProject(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, JobResponse{Job: job})
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	proj, err := s.workspace.LoadExisting(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return proj, true
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, ProjectResponse{
		Project:           proj.Store.Snapshot(),
		Tree:              proj.Tree(),
		MalformedVersions: proj.Store.MalformedVersionKeys(),
		ShotIssues:        proj.Store.ShotIssues(),
	})
}

func (s *Server) handleAddShot(w http.ResponseWriter, r *http.Request) {
	var req ShotRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	start, end := req.Start, req.End
	if req.Range != "" {
		parsed, err := metadata.ParseFrameRange(req.Range)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		start, end = parsed.Start, parsed.End
	}

	proj, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	unlock, err := proj.Lock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer func() { _ = unlock() }()

	if err := proj.Store.AddShot(req.Name, start, end); err != nil {
		s.fail(w, r, err)
		return
	}
	shot, err := proj.Store.Shot(req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, ShotResponse{Shot: shot})
}
