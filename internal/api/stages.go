package api

import (
	"net/http"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
)

// StageResponse is a stage with its resolved pipeline.
type StageResponse struct {
	core.Stage
	Pipeline core.Pipeline `json:"pipeline"`
}

func stageResponse(st core.Stage) StageResponse {
	return StageResponse{Stage: st, Pipeline: st.ResolvedPipeline()}
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.stages.List(r.Context())
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	out := make([]StageResponse, 0, len(stages))
	for _, st := range stages {
		out = append(out, stageResponse(st))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var in kanban.StageInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := s.stages.Create(r.Context(), in)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, stageResponse(*st))
}
