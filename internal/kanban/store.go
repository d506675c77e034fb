package kanban

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
)

// CardInput describes a card to create.
type CardInput struct {
	SubjectID     *string      `json:"subject_id,omitempty"`
	StageID       core.StageID `json:"stage_id"`
	Priority      string       `json:"priority,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	ResponsibleID *string      `json:"responsible_id,omitempty"`
}

// Store reads and writes cards.
type Store struct {
	gw     core.Gateway
	stages *Stages
	opts   options
}

// NewStore creates a card store on gw.
func NewStore(gw core.Gateway, opts ...Option) *Store {
	return &Store{
		gw:     gw,
		stages: NewStages(gw, opts...),
		opts:   buildOptions(opts),
	}
}

// Stages returns the stage catalogue sharing the store's gateway.
func (s *Store) Stages() *Stages {
	return s.stages
}

// List returns the cards of pipeline ordered by position, then creation time.
// PipelineNone lists every card. When no stage belongs to the requested
// pipeline the result is empty; unclassified stages never leak in.
func (s *Store) List(ctx context.Context, pipeline core.Pipeline) ([]core.Card, error) {
	var where core.Predicate
	if pipeline != core.PipelineNone {
		ids, err := s.stages.IDsFor(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []core.Card{}, nil
		}
		where = core.Where(core.In(colStageID, ids))
	}

	rows, err := s.gw.Select(ctx, core.TableCards, where, core.Asc(colPosition), core.Asc(colCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	return cardsFromRows(rows)
}

// Get returns one card.
func (s *Store) Get(ctx context.Context, id core.CardID) (*core.Card, error) {
	if id == "" {
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	}
	row, err := s.gw.SelectOne(ctx, core.TableCards, core.Where(core.Eq(colID, string(id))))
	if errors.Is(err, core.ErrRowNotFound) {
		return nil, core.ErrCardNotFound(string(id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading card %s: %w", id, err)
	}
	card, err := cardFromRow(row)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// inStage returns the cards of stage other than exclude, ordered by position.
func (s *Store) inStage(ctx context.Context, stage core.StageID, exclude core.CardID) ([]core.Row, error) {
	where := core.Where(core.Eq(colStageID, string(stage)))
	if exclude != "" {
		where = append(where, core.Neq(colID, string(exclude)))
	}
	rows, err := s.gw.Select(ctx, core.TableCards, where, core.Asc(colPosition))
	if err != nil {
		return nil, fmt.Errorf("reading occupancy of stage %s: %w", stage, err)
	}
	return rows, nil
}

// Create appends a new card at the end of its stage.
func (s *Store) Create(ctx context.Context, in CardInput) (*core.Card, error) {
	if in.StageID == "" {
		return nil, core.ErrValidation(core.CodeEmptyStageID, "stage id is required")
	}
	priority, err := core.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	if _, err := s.stages.Get(ctx, in.StageID); err != nil {
		return nil, err
	}

	occupants, err := s.inStage(ctx, in.StageID, "")
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	card := core.Card{
		ID:            core.CardID(s.opts.newID()),
		SubjectID:     in.SubjectID,
		StageID:       in.StageID,
		Position:      len(occupants),
		Priority:      priority,
		Notes:         in.Notes,
		ResponsibleID: in.ResponsibleID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	row, err := s.gw.Insert(ctx, core.TableCards, cardToRow(card))
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableCards).WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting card: %w", err)
	}
	stored, err := cardFromRow(row)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Info("card created",
		"card_id", stored.ID,
		"stage_id", stored.StageID,
		"position", stored.Position,
	)
	s.opts.bus.Publish(events.NewCardCreatedEvent(string(stored.ID), string(stored.StageID), stored.Position))
	return &stored, nil
}

// Update applies a partial field update. Stage and position are only changed
// by the mover.
func (s *Store) Update(ctx context.Context, id core.CardID, fields core.CardFields) (*core.Card, error) {
	if id == "" {
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	}
	if fields.Empty() {
		return s.Get(ctx, id)
	}

	patch := core.Row{}
	var changed []string
	if fields.Priority != nil {
		p, err := core.ParsePriority(string(*fields.Priority))
		if err != nil {
			return nil, err
		}
		patch[colPriority] = string(p)
		changed = append(changed, colPriority)
	}
	if fields.Notes != nil {
		patch[colNotes] = *fields.Notes
		changed = append(changed, colNotes)
	}
	if fields.HasEquipment != nil {
		patch[colHasEquipment] = boolInt(*fields.HasEquipment)
		changed = append(changed, colHasEquipment)
	}
	if fields.HasAccess != nil {
		patch[colHasAccess] = boolInt(*fields.HasAccess)
		changed = append(changed, colHasAccess)
	}
	if fields.HasDocuments != nil {
		patch[colHasDocuments] = boolInt(*fields.HasDocuments)
		changed = append(changed, colHasDocuments)
	}
	if fields.ResponsibleID != nil {
		// An empty id clears the responsible party.
		if *fields.ResponsibleID == "" {
			patch[colResponsibleID] = nil
		} else {
			patch[colResponsibleID] = *fields.ResponsibleID
		}
		changed = append(changed, colResponsibleID)
	}
	patch[colUpdatedAt] = formatTime(s.opts.now())

	row, err := s.gw.Update(ctx, core.TableCards, core.Where(core.Eq(colID, string(id))), patch)
	if errors.Is(err, core.ErrRowNotFound) {
		return nil, core.ErrCardNotFound(string(id))
	}
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableCards).WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("updating card %s: %w", id, err)
	}
	card, err := cardFromRow(row)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Debug("card updated", "card_id", id, "fields", changed)
	s.opts.bus.Publish(events.NewCardUpdatedEvent(string(id), changed))
	return &card, nil
}
