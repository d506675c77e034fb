package kanban

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/hugo-lorenzo-mato/staffboard/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
	"github.com/hugo-lorenzo-mato/staffboard/internal/testutil"
)

func TestClampPosition(t *testing.T) {
	tests := []struct {
		requested, n, want int
	}{
		{requested: 10, n: 3, want: 3},
		{requested: 3, n: 3, want: 3},
		{requested: 2, n: 3, want: 2},
		{requested: 0, n: 0, want: 0},
		{requested: 5, n: 0, want: 0},
		{requested: -1, n: 3, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPosition(tt.requested, tt.n), "ClampPosition(%d, %d)", tt.requested, tt.n)
	}
}

func TestProperty_ClampIsMinForNonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := rapid.IntRange(0, 1000).Draw(rt, "requested")
		n := rapid.IntRange(0, 1000).Draw(rt, "occupancy")
		if got, want := ClampPosition(p, n), min(p, n); got != want {
			rt.Fatalf("ClampPosition(%d, %d) = %d, want %d", p, n, got, want)
		}
	})
}

func TestProperty_MovePlacesAtClampedPosition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		f.entryBoard(t)
		n := rapid.IntRange(0, 8).Draw(rt, "occupancy")
		for i := 0; i < n; i++ {
			f.card(t, core.CardID(rune('a'+i)), "documentacao", i)
		}
		f.card(t, "mover", "novo", 0)
		p := rapid.IntRange(0, 20).Draw(rt, "requested")

		placed, err := f.mover(WithSyncAudit()).Move(context.Background(), MoveRequest{
			CardID: "mover", TargetStage: "documentacao", TargetPosition: p, ActorID: "u-1",
		})
		if err != nil {
			rt.Fatalf("Move: %v", err)
		}
		if placed.Position != min(p, n) {
			rt.Fatalf("position = %d, want min(%d, %d)", placed.Position, p, n)
		}
	})
}

func TestMover_CrossStageScenario(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)
	for i, id := range []core.CardID{"d1", "d2", "d3"} {
		f.card(t, id, "documentacao", i)
	}
	f.card(t, "x", "novo", 0)

	m := f.mover(WithSyncAudit())
	placed, err := m.Move(context.Background(), MoveRequest{
		CardID:         "x",
		TargetStage:    "documentacao",
		TargetPosition: 10,
		ActorID:        "hr-7",
		ActorName:      "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, core.CardID("x"), placed.CardID)
	assert.Equal(t, core.StageID("documentacao"), placed.StageID)
	assert.Equal(t, 3, placed.Position)
	assert.False(t, placed.UpdatedAt.IsZero())

	history, err := f.audit().History(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.StageID("novo"), history[0].FromStageID)
	assert.Equal(t, core.StageID("documentacao"), history[0].ToStageID)
	assert.Equal(t, "hr-7", history[0].MovedBy)

	comments, err := f.audit().Comments(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Status changed: Novo colaborador → Documentação", comments[0].Body)
	assert.Equal(t, "hr-7", comments[0].AuthorID)
	assert.Equal(t, "Ana", comments[0].AuthorName)
	assert.True(t, comments[0].System)

	stored, err := f.store().Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, core.StageID("documentacao"), stored.StageID)
	assert.Equal(t, 3, stored.Position)

	require.Equal(t, 1, f.events.Count(events.TypeCardMoved))
	ev := f.events.OfType(events.TypeCardMoved)[0].(events.CardMovedEvent)
	assert.Equal(t, "novo", ev.FromStage)
	assert.Equal(t, "documentacao", ev.ToStage)
}

func TestMover_SameStageWritesNoAudit(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)
	f.card(t, "a", "novo", 0)
	f.card(t, "b", "novo", 1)
	f.card(t, "x", "novo", 2)

	m := f.mover()
	placed, err := m.Move(context.Background(), MoveRequest{CardID: "x", TargetStage: "novo", TargetPosition: 0})
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, 0, placed.Position)
	assert.Equal(t, core.StageID("novo"), placed.StageID)
	assert.Equal(t, 0, f.gw.Calls(store.OpInsert, core.TableHistory))
	assert.Equal(t, 0, f.gw.Calls(store.OpInsert, core.TableComments))

	// Displaced cards keep their stored positions.
	a, err := f.store().Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Position)
}

func TestProperty_SameStageNeverAudits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		f.entryBoard(t)
		n := rapid.IntRange(1, 6).Draw(rt, "cards")
		for i := 0; i < n; i++ {
			f.card(t, core.CardID(rune('a'+i)), "novo", i)
		}
		target := core.CardID(rune('a' + rapid.IntRange(0, n-1).Draw(rt, "card")))
		p := rapid.IntRange(-3, 10).Draw(rt, "position")

		if _, err := f.mover(WithSyncAudit()).Move(context.Background(), MoveRequest{
			CardID: target, TargetStage: "novo", TargetPosition: p,
		}); err != nil {
			rt.Fatalf("Move: %v", err)
		}
		if got := len(f.gw.Rows(core.TableHistory)) + len(f.gw.Rows(core.TableComments)); got != 0 {
			rt.Fatalf("same-stage move wrote %d audit rows", got)
		}
	})
}

func TestMover_CardNotFound(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)

	_, err := f.mover().Move(context.Background(), MoveRequest{CardID: "ghost", TargetStage: "novo"})
	assert.True(t, core.IsCardNotFound(err))
	assert.Equal(t, 0, f.gw.Calls(store.OpUpdate, core.TableCards))
}

func TestMover_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.mover().Move(context.Background(), MoveRequest{CardID: "x"})
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
	_, err = f.mover().Move(context.Background(), MoveRequest{TargetStage: "novo"})
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestMover_PlacementWriteFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)
	f.card(t, "x", "novo", 0)
	f.gw.Fail(store.OpUpdate, core.TableCards, testutil.ErrTest)

	_, err := f.mover().Move(context.Background(), MoveRequest{CardID: "x", TargetStage: "documentacao"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrTest))
	assert.Equal(t, 0, f.gw.Calls(store.OpInsert, core.TableHistory))
	assert.Equal(t, 0, f.events.Count(events.TypeCardMoved))
}

func TestMover_AuditFailuresDoNotFailMove(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*store.Memory)
		wantFailed  []string
		wantHistory int
		wantComment int
	}{
		{
			name:        "history fails",
			setup:       func(m *store.Memory) { m.Fail(store.OpInsert, core.TableHistory, testutil.ErrTest) },
			wantFailed:  []string{events.AuditKindHistory},
			wantComment: 1,
		},
		{
			name:        "comment denied",
			setup:       func(m *store.Memory) { m.DenyWrites(core.TableComments) },
			wantFailed:  []string{events.AuditKindComment},
			wantHistory: 1,
		},
		{
			name: "both fail",
			setup: func(m *store.Memory) {
				m.DenyWrites(core.TableHistory)
				m.Fail(store.OpInsert, core.TableComments, testutil.ErrTest)
			},
			wantFailed: []string{events.AuditKindHistory, events.AuditKindComment},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.entryBoard(t)
			f.card(t, "x", "novo", 0)
			tt.setup(f.gw)

			m := f.mover()
			placed, err := m.Move(context.Background(), MoveRequest{CardID: "x", TargetStage: "documentacao", TargetPosition: 0})
			require.NoError(t, err)
			m.Wait()

			assert.Equal(t, core.StageID("documentacao"), placed.StageID)
			assert.Equal(t, 0, placed.Position)
			assert.Equal(t, 1, f.gw.Calls(store.OpInsert, core.TableHistory), "exactly one history attempt")
			assert.LessOrEqual(t, f.gw.Calls(store.OpInsert, core.TableComments), 2, "comment retried at most once")
			assert.Len(t, f.gw.Rows(core.TableHistory), tt.wantHistory)
			assert.Len(t, f.gw.Rows(core.TableComments), tt.wantComment)

			failed := f.events.OfType(events.TypeAuditWriteFailed)
			kinds := make([]string, len(failed))
			for i, e := range failed {
				kinds[i] = e.(events.AuditWriteFailedEvent).Kind
			}
			assert.Equal(t, tt.wantFailed, kinds)
		})
	}
}

func TestMover_ActorFallsBackToSystem(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)
	f.card(t, "x", "novo", 0)

	m := f.mover(WithSystemActor(core.Actor{ID: "bot", Name: "RH Bot"}), WithSyncAudit())
	_, err := m.Move(context.Background(), MoveRequest{CardID: "x", TargetStage: "documentacao"})
	require.NoError(t, err)

	comments, err := f.audit().Comments(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bot", comments[0].AuthorID)
	assert.Equal(t, "RH Bot", comments[0].AuthorName)

	history, err := f.audit().History(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "bot", history[0].MovedBy)
}

func TestMover_UnresolvedStageNameUsesID(t *testing.T) {
	f := newFixture(t)
	f.entryBoard(t)
	f.card(t, "x", "novo", 0)

	// The target stage is not in the catalogue; the gateway accepts it anyway.
	m := f.mover(WithSyncAudit())
	_, err := m.Move(context.Background(), MoveRequest{CardID: "x", TargetStage: "limbo"})
	require.NoError(t, err)

	comments, err := f.audit().Comments(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Status changed: Novo colaborador → limbo", comments[0].Body)
}

func TestMover_AuditOutlivesCallerContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	f.entryBoard(t)
	f.card(t, "x", "novo", 0)

	ctx, cancel := context.WithCancel(context.Background())
	m := f.mover()
	_, err := m.Move(ctx, MoveRequest{CardID: "x", TargetStage: "documentacao", ActorID: "u"})
	require.NoError(t, err)
	cancel()
	m.Wait()

	assert.Len(t, f.gw.Rows(core.TableHistory), 1)
	assert.Len(t, f.gw.Rows(core.TableComments), 1)
}
