package api

import (
	"net/http"

	apimw "github.com/hugo-lorenzo-mato/staffboard/internal/api/middleware"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
)

// CreateCommentRequest is the request body for adding a comment.
type CreateCommentRequest struct {
	Body       string `json:"body"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.audit.Comments(r.Context(), cardIDParam(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var body CreateCommentRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AuthorID == "" {
		caller := apimw.GetActor(r.Context())
		body.AuthorID, body.AuthorName = caller.ID, caller.Name
	}
	id := cardIDParam(r)
	if _, err := s.cards.Get(r.Context(), id); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	comment, err := s.audit.WriteComment(r.Context(), kanban.CommentInput{
		CardID:     id,
		Body:       body.Body,
		AuthorID:   body.AuthorID,
		AuthorName: body.AuthorName,
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.audit.History(r.Context(), cardIDParam(r))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
