package kanban

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
)

// MoveRequest asks for a card to be placed at a stage and position.
type MoveRequest struct {
	CardID         core.CardID  `json:"card_id"`
	TargetStage    core.StageID `json:"stage_id"`
	TargetPosition int          `json:"position"`
	ActorID        string       `json:"actor_id,omitempty"`
	ActorName      string       `json:"actor_name,omitempty"`
}

// Placement is the authoritative result of a move.
type Placement struct {
	CardID    core.CardID  `json:"id"`
	StageID   core.StageID `json:"stage_id"`
	Position  int          `json:"position"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ClampPosition bounds a requested position against the occupancy n of the
// target stage: negative requests become 0, requests past the end become n.
func ClampPosition(requested, n int) int {
	switch {
	case requested < 0:
		return 0
	case requested >= n:
		return n
	default:
		return requested
	}
}

// Mover relocates cards and records cross-stage transitions.
//
// The occupancy read and the placement write are separate statements. A
// concurrent move into the same stage between the two may leave colliding
// positions; readers order those by creation time.
type Mover struct {
	store  *Store
	stages *Stages
	audit  *AuditTrail
	opts   options

	pending sync.WaitGroup
}

// NewMover creates a mover on gw.
func NewMover(gw core.Gateway, opts ...Option) *Mover {
	store := NewStore(gw, opts...)
	return &Mover{
		store:  store,
		stages: store.Stages(),
		audit:  NewAuditTrail(gw, opts...),
		opts:   buildOptions(opts),
	}
}

// Move places a card. Only a missing card, an empty target or a failed
// placement write are reported; audit writes never fail the move.
func (m *Mover) Move(ctx context.Context, req MoveRequest) (*Placement, error) {
	if req.CardID == "" {
		return nil, core.ErrValidation(core.CodeEmptyCardID, "card id is required")
	}
	if req.TargetStage == "" {
		return nil, core.ErrValidation(core.CodeEmptyStageID, "target stage is required")
	}

	card, err := m.store.Get(ctx, req.CardID)
	if err != nil {
		return nil, err
	}

	others, err := m.store.inStage(ctx, req.TargetStage, card.ID)
	if err != nil {
		return nil, err
	}
	position := ClampPosition(req.TargetPosition, len(others))

	source := card.StageID
	crossStage := source != req.TargetStage
	now := m.opts.now()

	patch := core.Row{
		colPosition:  int64(position),
		colUpdatedAt: formatTime(now),
	}
	if crossStage {
		patch[colStageID] = string(req.TargetStage)
	}

	row, err := m.store.gw.Update(ctx, core.TableCards, core.Where(core.Eq(colID, string(card.ID))), patch)
	if errors.Is(err, core.ErrRowNotFound) {
		return nil, core.ErrCardNotFound(string(card.ID))
	}
	if errors.Is(err, core.ErrAccessDenied) {
		return nil, core.ErrPermissionDenied(core.TableCards).WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("moving card %s: %w", card.ID, err)
	}
	moved, err := cardFromRow(row)
	if err != nil {
		return nil, err
	}

	actor := core.Actor{ID: req.ActorID, Name: req.ActorName}.OrDefault(m.opts.systemActor)

	m.opts.logger.Info("card moved",
		"card_id", moved.ID,
		"from_stage", source,
		"to_stage", moved.StageID,
		"requested_position", req.TargetPosition,
		"position", moved.Position,
		"actor_id", actor.ID,
	)
	m.opts.bus.Publish(events.NewCardMovedEvent(
		string(moved.ID), string(source), string(moved.StageID), moved.Position, actor.ID))

	if crossStage {
		m.dispatchAudit(ctx, transition{
			card:  moved.ID,
			from:  source,
			to:    moved.StageID,
			actor: actor,
		})
	}

	return &Placement{
		CardID:    moved.ID,
		StageID:   moved.StageID,
		Position:  moved.Position,
		UpdatedAt: moved.UpdatedAt,
	}, nil
}

// Wait blocks until every audit write dispatched so far has finished.
func (m *Mover) Wait() {
	m.pending.Wait()
}

type transition struct {
	card  core.CardID
	from  core.StageID
	to    core.StageID
	actor core.Actor
}

// dispatchAudit writes the history record and the status comment. The
// writes are detached from the caller's cancellation.
func (m *Mover) dispatchAudit(ctx context.Context, t transition) {
	ctx = context.WithoutCancel(ctx)
	if m.opts.syncAudit {
		m.writeAudit(ctx, t)
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.writeAudit(ctx, t)
	}()
}

func (m *Mover) writeAudit(ctx context.Context, t transition) {
	if _, err := m.audit.RecordTransition(ctx, HistoryInput{
		CardID:  t.card,
		From:    t.from,
		To:      t.to,
		MovedBy: t.actor.ID,
	}); err != nil {
		m.reportAuditFailure(t, events.AuditKindHistory, err)
	}

	fromName, toName := m.resolveNames(ctx, t.from, t.to)
	if _, err := m.audit.WriteComment(ctx, CommentInput{
		CardID:     t.card,
		Body:       StatusChangeBody(fromName, toName),
		AuthorID:   t.actor.ID,
		AuthorName: t.actor.Name,
		System:     true,
	}); err != nil {
		m.reportAuditFailure(t, events.AuditKindComment, err)
	}
}

// resolveNames looks up both stage names concurrently. A name that cannot
// be resolved falls back to the stage id.
func (m *Mover) resolveNames(ctx context.Context, from, to core.StageID) (string, string) {
	names := [2]string{string(from), string(to)}
	var g errgroup.Group
	for i, id := range []core.StageID{from, to} {
		g.Go(func() error {
			name, err := m.stages.Name(ctx, id)
			if err != nil {
				m.opts.logger.Warn("stage name unavailable, using id",
					"stage_id", id,
					"error", err,
				)
				return nil
			}
			names[i] = name
			return nil
		})
	}
	_ = g.Wait()
	return names[0], names[1]
}

func (m *Mover) reportAuditFailure(t transition, kind string, err error) {
	auditErr := core.ErrAuditWrite(kind, err)
	m.opts.logger.Error("audit write failed",
		"kind", kind,
		"card_id", t.card,
		"from_stage", t.from,
		"to_stage", t.to,
		"error", auditErr,
		"hint", core.RemediationHint(err),
	)
	m.opts.bus.Publish(events.NewAuditWriteFailedEvent(
		string(t.card), kind, string(t.from), string(t.to), err.Error()))
}

// StatusChangeBody composes the system comment written for a stage change.
func StatusChangeBody(from, to string) string {
	return fmt.Sprintf("Status changed: %s → %s", from, to)
}
