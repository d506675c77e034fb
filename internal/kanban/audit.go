package kanban

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
)

// CommentInput is a comment to write.
type CommentInput struct {
	CardID     core.CardID `json:"card_id"`
	Body       string      `json:"body"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name,omitempty"`
	// System marks comments generated by moves.
	System bool `json:"-"`
}

// HistoryInput is a stage transition to record.
type HistoryInput struct {
	CardID  core.CardID
	From    core.StageID
	To      core.StageID
	MovedBy string
}

// AuditTrail writes and reads card history and comments. Both are
// append-only.
type AuditTrail struct {
	gw   core.Gateway
	opts options
}

// NewAuditTrail creates an audit trail on gw.
func NewAuditTrail(gw core.Gateway, opts ...Option) *AuditTrail {
	return &AuditTrail{gw: gw, opts: buildOptions(opts)}
}

// WriteComment validates and stores a comment. When the comments table does
// not know author_name the write is retried once without it.
func (a *AuditTrail) WriteComment(ctx context.Context, in CommentInput) (*core.Comment, error) {
	body := strings.TrimSpace(in.Body)
	switch {
	case in.CardID == "":
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	case body == "":
		return nil, core.ErrValidation(core.CodeEmptyBody, "comment body is required")
	case strings.TrimSpace(in.AuthorID) == "":
		return nil, core.ErrValidation(core.CodeEmptyAuthor, "author id is required")
	case len(body) > core.MaxCommentLength:
		return nil, core.ErrValidation(core.CodeBodyTooLong,
			fmt.Sprintf("comment body exceeds %d bytes", core.MaxCommentLength)).
			WithDetail("length", len(body))
	}

	comment := core.Comment{
		ID:         a.opts.newID(),
		CardID:     in.CardID,
		Body:       body,
		AuthorID:   in.AuthorID,
		AuthorName: strings.TrimSpace(in.AuthorName),
		System:     in.System,
		CreatedAt:  a.opts.now(),
	}

	row, err := a.gw.Insert(ctx, core.TableComments, commentToRow(comment))
	if errors.Is(err, core.ErrUnknownColumn) && comment.AuthorName != "" {
		a.opts.logger.Warn("comments table rejected author_name, retrying without it",
			"card_id", in.CardID,
			"error", err,
		)
		retry := commentToRow(comment)
		delete(retry, colAuthorName)
		row, err = a.gw.Insert(ctx, core.TableComments, retry)
	}
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableComments).WithCause(err)
	}
	if err != nil {
		return nil, err
	}

	stored, err := commentFromRow(row)
	if err != nil {
		return nil, err
	}
	a.opts.bus.Publish(events.NewCommentAddedEvent(string(stored.CardID), stored.ID, stored.AuthorID, stored.System))
	return &stored, nil
}

// RecordTransition appends a history record for a stage change.
func (a *AuditTrail) RecordTransition(ctx context.Context, in HistoryInput) (*core.HistoryRecord, error) {
	switch {
	case in.CardID == "":
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	case in.From == "" || in.To == "":
		return nil, core.ErrValidation(core.CodeEmptyStageID, "source and target stage are required")
	case strings.TrimSpace(in.MovedBy) == "":
		return nil, core.ErrValidation(core.CodeEmptyActor, "actor id is required")
	}

	rec := core.HistoryRecord{
		ID:          a.opts.newID(),
		CardID:      in.CardID,
		FromStageID: in.From,
		ToStageID:   in.To,
		MovedBy:     in.MovedBy,
		CreatedAt:   a.opts.now(),
	}
	row, err := a.gw.Insert(ctx, core.TableHistory, historyToRow(rec))
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableHistory).WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	stored, err := historyFromRow(row)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Comments lists the comments of a card, oldest first.
func (a *AuditTrail) Comments(ctx context.Context, cardID core.CardID) ([]core.Comment, error) {
	if cardID == "" {
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	}
	rows, err := a.gw.Select(ctx, core.TableComments,
		core.Where(core.Eq(colCardID, string(cardID))), core.Asc(colCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("listing comments of %s: %w", cardID, err)
	}
	out := make([]core.Comment, 0, len(rows))
	for _, r := range rows {
		c, err := commentFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// History lists the stage transitions of a card, oldest first.
func (a *AuditTrail) History(ctx context.Context, cardID core.CardID) ([]core.HistoryRecord, error) {
	if cardID == "" {
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	}
	rows, err := a.gw.Select(ctx, core.TableHistory,
		core.Where(core.Eq(colCardID, string(cardID))), core.Asc(colCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("listing history of %s: %w", cardID, err)
	}
	out := make([]core.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		h, err := historyFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
