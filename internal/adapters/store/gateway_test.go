package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// gateways returns every adapter under test, freshly created.
func gateways(t *testing.T) map[string]core.Gateway {
	t.Helper()
	sqlite, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]core.Gateway{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func stageRow(id, name string, position int64) core.Row {
	return core.Row{"id": id, "name": name, "process_type": "Ligamento", "pipeline": "entry", "position": position}
}

func cardRow(id, stage string, position int64, created string) core.Row {
	return core.Row{
		"id": id, "subject_id": nil, "stage_id": stage, "position": position,
		"priority": "normal", "notes": "", "has_equipment": true, "has_access": false,
		"has_documents": 0, "created_at": created, "updated_at": created,
	}
}

func TestGateway_InsertAndSelect(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			stored, err := gw.Insert(ctx, core.TableCards, cardRow("c1", "novo", 2, "2024-01-01T00:00:00.000000000Z"))
			require.NoError(t, err)

			assert.Equal(t, "c1", stored["id"])
			assert.Nil(t, stored["subject_id"])
			assert.Equal(t, int64(2), stored["position"])
			assert.Equal(t, int64(1), stored["has_equipment"])
			assert.Equal(t, int64(0), stored["has_access"])
			assert.Nil(t, stored["responsible_id"])

			got, err := gw.SelectOne(ctx, core.TableCards, core.Where(core.Eq("id", "c1")))
			require.NoError(t, err)
			assert.Equal(t, stored, got)
		})
	}
}

func TestGateway_SelectFiltersAndOrder(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rows := []core.Row{
				cardRow("a", "novo", 1, "2024-01-01T00:00:01.000000000Z"),
				cardRow("b", "novo", 0, "2024-01-01T00:00:02.000000000Z"),
				cardRow("c", "doc", 0, "2024-01-01T00:00:03.000000000Z"),
				cardRow("d", "novo", 0, "2024-01-01T00:00:00.000000000Z"),
				cardRow("e", "ti", 5, "2024-01-01T00:00:04.000000000Z"),
			}
			for _, r := range rows {
				_, err := gw.Insert(ctx, core.TableCards, r)
				require.NoError(t, err)
			}

			ids := func(rows []core.Row) []string {
				out := make([]string, len(rows))
				for i, r := range rows {
					out[i] = r["id"].(string)
				}
				return out
			}

			got, err := gw.Select(ctx, core.TableCards, core.Where(core.Eq("stage_id", "novo")), core.Asc("position"), core.Asc("created_at"))
			require.NoError(t, err)
			assert.Equal(t, []string{"d", "b", "a"}, ids(got))

			// Ties on every order column fall back to insertion order.
			got, err = gw.Select(ctx, core.TableCards, core.Where(core.Eq("stage_id", "novo")), core.Asc("position"))
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "d", "a"}, ids(got))

			got, err = gw.Select(ctx, core.TableCards, core.Where(core.In("stage_id", []string{"doc", "ti"})), core.Order{Column: "position", Desc: true})
			require.NoError(t, err)
			assert.Equal(t, []string{"e", "c"}, ids(got))

			got, err = gw.Select(ctx, core.TableCards, core.Where(core.Eq("stage_id", "novo"), core.Neq("id", "b")), core.Asc("position"))
			require.NoError(t, err)
			assert.Equal(t, []string{"d", "a"}, ids(got))

			got, err = gw.Select(ctx, core.TableCards, core.Where(core.IsNull("responsible_id")))
			require.NoError(t, err)
			assert.Len(t, got, 5)

			got, err = gw.Select(ctx, core.TableCards, core.Where(core.In("stage_id", []string{})))
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestGateway_SelectOneRequiresExactlyOne(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := gw.SelectOne(ctx, core.TableStages, core.Where(core.Eq("id", "none")))
			assert.ErrorIs(t, err, core.ErrRowNotFound)

			for _, r := range []core.Row{stageRow("s1", "A", 0), stageRow("s2", "B", 0)} {
				_, err := gw.Insert(ctx, core.TableStages, r)
				require.NoError(t, err)
			}
			_, err = gw.SelectOne(ctx, core.TableStages, core.Where(core.Eq("position", 0)))
			assert.ErrorIs(t, err, core.ErrRowNotFound)
		})
	}
}

func TestGateway_UpdateSingleRow(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, r := range []core.Row{stageRow("s1", "A", 0), stageRow("s2", "B", 1)} {
				_, err := gw.Insert(ctx, core.TableStages, r)
				require.NoError(t, err)
			}

			updated, err := gw.Update(ctx, core.TableStages, core.Where(core.Eq("id", "s2")), core.Row{"name": "Renamed"})
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated["name"])
			assert.Equal(t, int64(1), updated["position"])

			_, err = gw.Update(ctx, core.TableStages, core.Where(core.Eq("id", "ghost")), core.Row{"name": "x"})
			assert.ErrorIs(t, err, core.ErrRowNotFound)

			_, err = gw.Update(ctx, core.TableStages, nil, core.Row{"name": "all"})
			assert.ErrorIs(t, err, core.ErrRowNotFound)

			untouched, err := gw.SelectOne(ctx, core.TableStages, core.Where(core.Eq("id", "s1")))
			require.NoError(t, err)
			assert.Equal(t, "A", untouched["name"])
		})
	}
}

func TestGateway_Delete(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, r := range []core.Row{stageRow("s1", "A", 0), stageRow("s2", "B", 1)} {
				_, err := gw.Insert(ctx, core.TableStages, r)
				require.NoError(t, err)
			}
			require.NoError(t, gw.Delete(ctx, core.TableStages, core.Where(core.Eq("id", "s1"))))

			rows, err := gw.Select(ctx, core.TableStages, nil)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "s2", rows[0]["id"])
		})
	}
}

func TestGateway_UnknownColumn(t *testing.T) {
	for name, gw := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			_, err := gw.Insert(context.Background(), core.TableStages, core.Row{"id": "s1", "name": "A", "colour": "red"})
			assert.ErrorIs(t, err, core.ErrUnknownColumn)
		})
	}
}

func TestSQLiteGateway_SchemaV1RejectsAuthorName(t *testing.T) {
	gw, err := NewSQLiteGateway(":memory:", WithSchemaVersion(1))
	require.NoError(t, err)
	defer gw.Close()

	version, err := gw.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	row := core.Row{
		"id": "m1", "card_id": "c1", "body": "hello", "author_id": "u1",
		"author_name": "Ana", "system": 0, "created_at": "2024-01-01T00:00:00.000000000Z",
	}
	_, err = gw.Insert(context.Background(), core.TableComments, row)
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	delete(row, "author_name")
	_, err = gw.Insert(context.Background(), core.TableComments, row)
	assert.NoError(t, err)
}

func TestSQLiteGateway_MigratesOldDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	old, err := NewSQLiteGateway(path, WithSchemaVersion(1))
	require.NoError(t, err)
	_, err = old.Insert(context.Background(), core.TableStages, core.Row{"id": "s1", "name": "A", "process_type": "Ligado"})
	require.NoError(t, err)
	require.NoError(t, old.Close())

	gw, err := NewSQLiteGateway(path)
	require.NoError(t, err)
	defer gw.Close()

	version, err := gw.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LatestSchemaVersion, version)

	row, err := gw.SelectOne(context.Background(), core.TableStages, core.Where(core.Eq("id", "s1")))
	require.NoError(t, err)
	assert.Equal(t, "", row["pipeline"])
}

func TestSQLiteGateway_ReadOnlyTables(t *testing.T) {
	gw, err := NewSQLiteGateway(":memory:", WithReadOnlyTables(core.TableComments, " "))
	require.NoError(t, err)
	defer gw.Close()
	ctx := context.Background()

	_, err = gw.Insert(ctx, core.TableComments, core.Row{"id": "m1"})
	assert.ErrorIs(t, err, core.ErrAccessDenied)
	err = gw.Delete(ctx, core.TableComments, nil)
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	// Reads and other tables are unaffected.
	_, err = gw.Select(ctx, core.TableComments, nil)
	assert.NoError(t, err)
	_, err = gw.Insert(ctx, core.TableStages, stageRow("s1", "A", 0))
	assert.NoError(t, err)
}

func TestSQLiteGateway_RejectsBadIdentifiers(t *testing.T) {
	gw, err := NewSQLiteGateway(":memory:")
	require.NoError(t, err)
	defer gw.Close()

	_, err = gw.Select(context.Background(), `stages"; DROP TABLE cards; --`, nil)
	assert.Error(t, err)
	_, err = gw.Select(context.Background(), core.TableStages, core.Where(core.Eq("id = id OR 1", 1)))
	assert.Error(t, err)
}

func TestMemory_Controls(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Fail(OpSelect, core.TableCards, assert.AnError)
	_, err := m.Select(ctx, core.TableCards, nil)
	assert.ErrorIs(t, err, assert.AnError)
	m.Fail(OpSelect, core.TableCards, nil)
	_, err = m.Select(ctx, core.TableCards, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Calls(OpSelect, core.TableCards))

	m.DenyWrites(core.TableHistory)
	_, err = m.Insert(ctx, core.TableHistory, core.Row{"id": "h1"})
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	m.DropColumn(core.TableComments, "author_name")
	_, err = m.Insert(ctx, core.TableComments, core.Row{"id": "m1", "author_name": "x"})
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, err = m.Select(ctx, "nope", nil)
	assert.Error(t, err)
}

func TestNewGateway(t *testing.T) {
	gw, err := NewGateway(Options{Backend: BackendMemory, ReadOnlyTables: []string{core.TableComments}})
	require.NoError(t, err)
	_, err = gw.Insert(context.Background(), core.TableComments, core.Row{"id": "m1"})
	assert.ErrorIs(t, err, core.ErrAccessDenied)
	assert.NoError(t, CloseGateway(gw))

	path := filepath.Join(t.TempDir(), "data", "board")
	gw, err = NewGateway(Options{Path: path})
	require.NoError(t, err)
	sqlite, ok := gw.(*SQLiteGateway)
	require.True(t, ok)
	assert.Equal(t, path+".db", sqlite.Path())
	assert.NoError(t, CloseGateway(gw))

	_, err = NewGateway(Options{Backend: BackendSQLite})
	assert.Error(t, err)
	_, err = NewGateway(Options{Backend: "postgres"})
	assert.Error(t, err)
}
