package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/order"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok"}
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	status, err := s.opts.Health.Health(r.Context())
	resp.SchemaVersion = status.SchemaVersion
	resp.Jobs = status.Jobs
	resp.Assets = status.Assets
	resp.MissingTables = status.MissingTables
	if err != nil || !status.Ready() {
		resp.Status = "degraded"
		resp.Error = status.Error
		if err != nil && resp.Error == "" {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.backend.ListJobs(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(jobs)})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req api.CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	date, err := api.ParseJobDate(req.Date)
	if err != nil {
		s.writeError(w, r, validationf("%v", err))
		return
	}
	job, err := s.backend.CreateJob(r.Context(), backend.NewJob{
		Address:  req.Address,
		Customer: req.Customer,
		Date:     date,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromJob(job))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	rec, err := s.backend.FetchJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromJobRecord(rec))
}

func (s *Server) handleStacks(w http.ResponseWriter, r *http.Request) {
	set, err := s.backend.FetchStacks(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromStackSet(set))
}

func (s *Server) handleAnnotation(w http.ResponseWriter, r *http.Request) {
	var req api.AnnotationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	err := s.backend.SaveAnnotation(r.Context(), chi.URLParam(r, "jobID"), order.Annotation{
		StackID:  chi.URLParam(r, "stackID"),
		RoomType: order.RoomType(req.RoomType),
		Comment:  req.Comment,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req api.CommitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	res, err := s.backend.Commit(r.Context(), chi.URLParam(r, "jobID"), backend.CommitRequest{
		Revision:   req.Revision,
		Directives: req.Directives,
		Tour:       req.Tour,
		Step:       order.Step(req.Step),
		Locked:     req.Locked,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromCommitResult(res))
}
