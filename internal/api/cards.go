package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apimw "github.com/hugo-lorenzo-mato/staffboard/internal/api/middleware"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
)

// MoveCardRequest is the request body for moving a card.
type MoveCardRequest struct {
	StageID   core.StageID `json:"stage_id"`
	Position  int          `json:"position"`
	ActorID   string       `json:"actor_id,omitempty"`
	ActorName string       `json:"actor_name,omitempty"`
}

func cardIDParam(r *http.Request) core.CardID {
	return core.CardID(chi.URLParam(r, "cardID"))
}

// handleListCards lists the cards of ?process=, or every card when absent.
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	pipeline, err := core.ParsePipeline(r.URL.Query().Get("process"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	cards, err := s.cards.List(r.Context(), pipeline)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in kanban.CardInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, err := s.cards.Create(r.Context(), in)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.reloadBoard(r)
	respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.Get(r.Context(), cardIDParam(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var fields core.CardFields
	if err := decodeJSON(r, &fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, err := s.cards.Update(r.Context(), cardIDParam(r), fields)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.reloadBoard(r)
	respondJSON(w, http.StatusOK, card)
}

// handleMoveCard moves a card through the board so connected views see the
// optimistic placement before the store confirms it.
func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	var body MoveCardRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := cardIDParam(r)
	if _, ok := s.board.Card(id); !ok {
		// Not in the loaded pipeline; widen the view before moving.
		if err := s.board.Load(r.Context(), core.PipelineNone); err != nil {
			s.respondDomainError(w, r, err)
			return
		}
	}

	if body.ActorID == "" {
		caller := apimw.GetActor(r.Context())
		body.ActorID, body.ActorName = caller.ID, caller.Name
	}

	placed, err := s.board.MoveCard(r.Context(), kanban.MoveRequest{
		CardID:         id,
		TargetStage:    body.StageID,
		TargetPosition: body.Position,
		ActorID:        body.ActorID,
		ActorName:      body.ActorName,
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, placed)
}

// reloadBoard refreshes the board after a write that bypassed it.
func (s *Server) reloadBoard(r *http.Request) {
	if err := s.board.Load(r.Context(), s.board.Pipeline()); err != nil {
		s.logger.Warn("board reload failed", "error", err)
	}
}
