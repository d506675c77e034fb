package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// tableColumns is the schema the memory gateway enforces. It mirrors the
// SQLite migrations at LatestSchemaVersion.
var tableColumns = map[string][]string{
	core.TableStages:   {"id", "name", "process_type", "pipeline", "position"},
	core.TableCards:    {"id", "subject_id", "stage_id", "position", "priority", "notes", "has_equipment", "has_access", "has_documents", "responsible_id", "created_at", "updated_at"},
	core.TableHistory:  {"id", "card_id", "from_stage_id", "to_stage_id", "moved_by", "created_at"},
	core.TableComments: {"id", "card_id", "body", "author_id", "author_name", "system", "created_at"},
}

// Operation names accepted by Memory.Fail and Memory.Calls.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

type memRow struct {
	seq int64
	row core.Row
}

// Memory is an in-process core.Gateway. It keeps the same schema and
// ordering rules as the SQLite gateway and lets tests drop columns, deny
// writes and inject failures per table and operation.
type Memory struct {
	mu       sync.Mutex
	tables   map[string][]memRow
	columns  map[string]map[string]bool
	denied   map[string]bool
	failures map[string]error
	calls    map[string]int
	seq      int64
}

// NewMemory creates an empty memory gateway.
func NewMemory() *Memory {
	m := &Memory{
		tables:   make(map[string][]memRow),
		columns:  make(map[string]map[string]bool),
		denied:   make(map[string]bool),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for table, cols := range tableColumns {
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
		}
		m.columns[table] = set
	}
	return m
}

// DropColumn removes column from table's schema; writes naming it fail with
// core.ErrUnknownColumn.
func (m *Memory) DropColumn(table, column string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.columns[table], column)
}

// DenyWrites makes every write to table fail with core.ErrAccessDenied.
func (m *Memory) DenyWrites(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[table] = true
}

// Fail makes op on table return err until cleared with a nil err.
func (m *Memory) Fail(op, table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op+":"+table)
		return
	}
	m.failures[op+":"+table] = err
}

// Calls returns how many times op was attempted on table.
func (m *Memory) Calls(op, table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op+":"+table]
}

// Rows returns a copy of every row in table in insertion order.
func (m *Memory) Rows(table string) []core.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, r.row.Clone())
	}
	return out
}

// Select implements core.Gateway.
func (m *Memory) Select(_ context.Context, table string, where core.Predicate, order ...core.Order) ([]core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(OpSelect, table); err != nil {
		return nil, err
	}
	matched, err := m.match(table, where)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range order {
			c := compareValues(matched[i].row[o.Column], matched[j].row[o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]core.Row, len(matched))
	for i, r := range matched {
		out[i] = r.row.Clone()
	}
	return out, nil
}

// SelectOne implements core.Gateway.
func (m *Memory) SelectOne(ctx context.Context, table string, where core.Predicate) (core.Row, error) {
	rows, err := m.Select(ctx, table, where)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s: %d matching rows: %w", table, len(rows), core.ErrRowNotFound)
	}
	return rows[0], nil
}

// Insert implements core.Gateway.
func (m *Memory) Insert(_ context.Context, table string, row core.Row) (core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.beginWrite(OpInsert, table); err != nil {
		return nil, err
	}
	if err := m.checkColumns(table, row); err != nil {
		return nil, err
	}

	stored := make(core.Row, len(m.columns[table]))
	for c := range m.columns[table] {
		stored[c] = nil
	}
	for k, v := range row {
		stored[k] = normalize(v)
	}
	m.seq++
	m.tables[table] = append(m.tables[table], memRow{seq: m.seq, row: stored})
	return stored.Clone(), nil
}

// Update implements core.Gateway.
func (m *Memory) Update(_ context.Context, table string, where core.Predicate, patch core.Row) (core.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.beginWrite(OpUpdate, table); err != nil {
		return nil, err
	}
	if err := m.checkColumns(table, patch); err != nil {
		return nil, err
	}
	matched, err := m.match(table, where)
	if err != nil {
		return nil, err
	}
	if len(matched) != 1 {
		return nil, fmt.Errorf("%s: %d matching rows: %w", table, len(matched), core.ErrRowNotFound)
	}

	for i := range m.tables[table] {
		if m.tables[table][i].seq != matched[0].seq {
			continue
		}
		for k, v := range patch {
			m.tables[table][i].row[k] = normalize(v)
		}
		return m.tables[table][i].row.Clone(), nil
	}
	return nil, fmt.Errorf("%s: %w", table, core.ErrRowNotFound)
}

// Delete implements core.Gateway.
func (m *Memory) Delete(_ context.Context, table string, where core.Predicate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.beginWrite(OpDelete, table); err != nil {
		return err
	}
	kept := m.tables[table][:0]
	for _, r := range m.tables[table] {
		ok, err := matches(r.row, where)
		if err != nil {
			return err
		}
		if !ok {
			kept = append(kept, r)
		}
	}
	m.tables[table] = kept
	return nil
}

func (m *Memory) begin(op, table string) error {
	m.calls[op+":"+table]++
	if _, ok := m.columns[table]; !ok {
		return fmt.Errorf("no such table: %s", table)
	}
	if err := m.failures[op+":"+table]; err != nil {
		return err
	}
	return nil
}

func (m *Memory) beginWrite(op, table string) error {
	if err := m.begin(op, table); err != nil {
		return err
	}
	if m.denied[table] {
		return fmt.Errorf("%s: %w", table, core.ErrAccessDenied)
	}
	return nil
}

func (m *Memory) checkColumns(table string, row core.Row) error {
	for k := range row {
		if !m.columns[table][k] {
			return fmt.Errorf("%s has no column named %s: %w", table, k, core.ErrUnknownColumn)
		}
	}
	return nil
}

func (m *Memory) match(table string, where core.Predicate) ([]memRow, error) {
	for _, f := range where {
		if !m.columns[table][f.Column] {
			return nil, fmt.Errorf("%s: no such column %s: %w", table, f.Column, core.ErrUnknownColumn)
		}
	}
	var out []memRow
	for _, r := range m.tables[table] {
		ok, err := matches(r.row, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// matches evaluates where with SQL null semantics: comparisons against a
// null column are false.
func matches(row core.Row, where core.Predicate) (bool, error) {
	for _, f := range where {
		v := row[f.Column]
		switch f.Op {
		case core.OpEq:
			if f.Value == nil {
				if v != nil {
					return false, nil
				}
				continue
			}
			if v == nil || compareValues(v, normalize(f.Value)) != 0 {
				return false, nil
			}
		case core.OpNeq:
			if f.Value == nil {
				if v == nil {
					return false, nil
				}
				continue
			}
			if v == nil || compareValues(v, normalize(f.Value)) == 0 {
				return false, nil
			}
		case core.OpIsNull:
			if v != nil {
				return false, nil
			}
		case core.OpIn:
			values, ok := f.Value.([]any)
			if !ok {
				return false, fmt.Errorf("filter %s: IN expects []any, got %T", f.Column, f.Value)
			}
			if v == nil {
				return false, nil
			}
			found := false
			for _, candidate := range values {
				if compareValues(v, normalize(candidate)) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
		}
	}
	return true, nil
}

// normalize converts named and sized scalar types to the driver-level types
// the SQLite gateway returns: string, int64, float64 or nil. Booleans are
// stored as 0/1 integers.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		if rv.Bool() {
			return int64(1)
		}
		return int64(0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

// compareValues orders nulls first, then numbers, then strings.
func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	switch {
	case aNum && bNum:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}

	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
