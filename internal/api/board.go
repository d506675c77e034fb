package api

import (
	"net/http"
	"sort"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// BoardResponse is the board view-state grouped by stage.
type BoardResponse struct {
	Pipeline core.Pipeline                `json:"pipeline"`
	Stages   []StageResponse              `json:"stages"`
	Columns  map[core.StageID][]core.Card `json:"columns"`
}

// handleGetBoard returns the board. ?process= reloads it for another
// pipeline; without it the current view-state is returned as is, pending
// optimistic moves included.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if raw, ok := r.URL.Query()["process"]; ok {
		pipeline, err := core.ParsePipeline(raw[0])
		if err != nil {
			s.respondDomainError(w, r, err)
			return
		}
		if err := s.board.Load(ctx, pipeline); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}

	pipeline := s.board.Pipeline()
	stages, err := s.stages.List(ctx)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	resp := BoardResponse{
		Pipeline: pipeline,
		Stages:   make([]StageResponse, 0, len(stages)),
		Columns:  make(map[core.StageID][]core.Card),
	}
	for _, st := range stages {
		if pipeline != core.PipelineNone && st.ResolvedPipeline() != pipeline {
			continue
		}
		resp.Stages = append(resp.Stages, stageResponse(st))
		resp.Columns[st.ID] = []core.Card{}
	}
	for _, c := range s.board.Cards() {
		resp.Columns[c.StageID] = append(resp.Columns[c.StageID], c)
	}
	for _, col := range resp.Columns {
		sort.SliceStable(col, func(i, j int) bool {
			if col[i].Position != col[j].Position {
				return col[i].Position < col[j].Position
			}
			return col[i].CreatedAt.Before(col[j].CreatedAt)
		})
	}
	respondJSON(w, http.StatusOK, resp)
}
