package kanban

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/staffboard/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/testutil"
)

type fixture struct {
	gw     *store.Memory
	clock  *testutil.Clock
	events *testutil.EventRecorder
	opts   []Option
}

func newFixture(t *testing.T, extra ...Option) *fixture {
	t.Helper()
	f := &fixture{
		gw:     store.NewMemory(),
		clock:  testutil.NewClock(testutil.Epoch),
		events: testutil.NewEventRecorder(),
	}
	f.opts = append([]Option{
		WithClock(f.clock.Now),
		WithIDGenerator(testutil.SeqIDs("id")),
		WithEventBus(f.events),
	}, extra...)
	return f
}

func (f *fixture) stages() *Stages         { return NewStages(f.gw, f.opts...) }
func (f *fixture) store() *Store           { return NewStore(f.gw, f.opts...) }
func (f *fixture) audit() *AuditTrail      { return NewAuditTrail(f.gw, f.opts...) }
func (f *fixture) mover(o ...Option) *Mover { return NewMover(f.gw, append(f.opts, o...)...) }

func (f *fixture) stage(t *testing.T, id core.StageID, name, processType string) core.Stage {
	t.Helper()
	st, err := f.stages().Create(context.Background(), StageInput{ID: id, Name: name, ProcessType: processType})
	require.NoError(t, err)
	return *st
}

// card inserts a card row directly so tests control the stored position.
func (f *fixture) card(t *testing.T, id core.CardID, stage core.StageID, position int) core.Card {
	t.Helper()
	c := testutil.NewTestCard(id, stage, testutil.AtPosition(position), func(c *core.Card) {
		now := f.clock.Now()
		c.CreatedAt, c.UpdatedAt = now, now
	})
	_, err := f.gw.Insert(context.Background(), core.TableCards, cardToRow(c))
	require.NoError(t, err)
	return c
}

// entryBoard seeds the onboarding stages used by most tests.
func (f *fixture) entryBoard(t *testing.T) {
	t.Helper()
	f.stage(t, "novo", "Novo colaborador", "🟢 Ligamento")
	f.stage(t, "documentacao", "Documentação", "Ligamento - documentos")
	f.stage(t, "desligado", "Desligado", "🔴 Desligamento")
}
