// Package board holds the in-memory view of a kanban pipeline and applies
// moves optimistically: the local collection changes first and is either
// reconciled with the mover's result or restored from a snapshot.
package board

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
)

// Mover performs the authoritative move.
type Mover interface {
	Move(ctx context.Context, req kanban.MoveRequest) (*kanban.Placement, error)
}

// Lister loads the cards of a pipeline.
type Lister interface {
	List(ctx context.Context, pipeline core.Pipeline) ([]core.Card, error)
}

// Board is the view-state of one pipeline. It is the only writer of its card
// collection; the lock is never held across a call to the mover or lister.
type Board struct {
	mover  Mover
	lister Lister
	bus    events.Publisher
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	pipeline core.Pipeline
	cards    []core.Card
	// gen counts loads so a pending move can tell its collection was replaced.
	gen uint64
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the board logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithEventBus publishes pending and reverted moves to bus.
func WithEventBus(bus events.Publisher) Option {
	return func(b *Board) {
		if bus != nil {
			b.bus = bus
		}
	}
}

// WithClock overrides the time source for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates an empty board.
func New(mover Mover, lister Lister, opts ...Option) *Board {
	b := &Board{
		mover:  mover,
		lister: lister,
		bus:    nopPublisher{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the collection with the cards of pipeline.
func (b *Board) Load(ctx context.Context, pipeline core.Pipeline) error {
	cards, err := b.lister.List(ctx, pipeline)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.pipeline = pipeline
	b.cards = cloneCards(cards)
	b.gen++
	b.mu.Unlock()
	return nil
}

// Pipeline returns the pipeline last loaded.
func (b *Board) Pipeline() core.Pipeline {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pipeline
}

// Cards returns a copy of the current collection, optimistic moves included.
func (b *Board) Cards() []core.Card {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneCards(b.cards)
}

// Card returns a copy of one card.
func (b *Board) Card(id core.CardID) (core.Card, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := indexOf(b.cards, id); i >= 0 {
		return b.cards[i].Clone(), true
	}
	return core.Card{}, false
}

// MoveCard applies the move locally, then asks the mover to persist it. On
// success only the moved card's placement fields are patched; on failure the
// moved card is restored to its state before the call and the error is
// returned. Concurrent moves of other cards are left alone either way.
func (b *Board) MoveCard(ctx context.Context, req kanban.MoveRequest) (*kanban.Placement, error) {
	tx, err := b.speculate(req)
	if err != nil {
		return nil, err
	}
	b.bus.Publish(events.NewCardMovePendingEvent(string(req.CardID), string(req.TargetStage), req.TargetPosition))

	placed, err := b.mover.Move(ctx, req)
	if err != nil {
		tx.revert()
		b.logger.Warn("optimistic move reverted",
			"card_id", req.CardID,
			"target_stage", req.TargetStage,
			"error", err,
		)
		b.bus.Publish(events.NewCardMoveRevertedEvent(string(req.CardID), err.Error()))
		return nil, err
	}
	tx.commit(*placed)
	return placed, nil
}

// txn is a speculative move awaiting the mover's answer.
type txn struct {
	board    *Board
	cardID   core.CardID
	snapshot core.Card
	gen      uint64
}

// speculate snapshots the moved card and applies the move to it.
func (b *Board) speculate(req kanban.MoveRequest) (*txn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := indexOf(b.cards, req.CardID)
	if i < 0 {
		return nil, core.ErrCardNotFound(string(req.CardID))
	}
	tx := &txn{board: b, cardID: req.CardID, snapshot: b.cards[i].Clone(), gen: b.gen}

	b.cards[i].StageID = req.TargetStage
	b.cards[i].Position = req.TargetPosition
	b.cards[i].UpdatedAt = b.now()
	return tx, nil
}

// commit merges the authoritative placement into the moved card.
func (t *txn) commit(p kanban.Placement) {
	b := t.board
	b.mu.Lock()
	defer b.mu.Unlock()

	i := indexOf(b.cards, t.cardID)
	if i < 0 {
		// Reloaded meanwhile; the fresh collection already reflects the store.
		return
	}
	b.cards[i].StageID = p.StageID
	b.cards[i].Position = p.Position
	if !p.UpdatedAt.IsZero() {
		b.cards[i].UpdatedAt = p.UpdatedAt
	}
}

// revert restores the moved card from the snapshot taken by speculate.
func (t *txn) revert() {
	b := t.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gen != t.gen {
		// Reloaded meanwhile; the store never took the move.
		return
	}
	if i := indexOf(b.cards, t.cardID); i >= 0 {
		b.cards[i] = t.snapshot
	}
}

func indexOf(cards []core.Card, id core.CardID) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneCards(cards []core.Card) []core.Card {
	if cards == nil {
		return nil
	}
	out := make([]core.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
