package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

//go:embed migrations/002_stage_pipeline_author_name.sql
var migrationV2 string

// LatestSchemaVersion is the schema version created by a fresh database.
const LatestSchemaVersion = 2

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SQLiteGateway implements core.Gateway on a SQLite database.
type SQLiteGateway struct {
	dbPath        string
	db            *sql.DB
	readOnly      map[string]bool
	schemaVersion int
}

// SQLiteOption configures the gateway.
type SQLiteOption func(*SQLiteGateway)

// WithReadOnlyTables rejects writes to the named tables with
// core.ErrAccessDenied, the way a row-level policy without insert grants
// would.
func WithReadOnlyTables(tables ...string) SQLiteOption {
	return func(g *SQLiteGateway) {
		for _, t := range tables {
			if t = strings.TrimSpace(t); t != "" {
				g.readOnly[t] = true
			}
		}
	}
}

// WithSchemaVersion stops migrations at version v. Used to reproduce
// databases created by older releases.
func WithSchemaVersion(v int) SQLiteOption {
	return func(g *SQLiteGateway) {
		g.schemaVersion = v
	}
}

// NewSQLiteGateway opens (creating if needed) the database at dbPath and runs
// pending migrations. dbPath may be ":memory:".
func NewSQLiteGateway(dbPath string, opts ...SQLiteOption) (*SQLiteGateway, error) {
	g := &SQLiteGateway{
		dbPath:        dbPath,
		readOnly:      make(map[string]bool),
		schemaVersion: LatestSchemaVersion,
	}
	for _, opt := range opts {
		opt(g)
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	g.db = db

	if err := g.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return g, nil
}

// Close closes the database connection.
func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Path returns the database path.
func (g *SQLiteGateway) Path() string {
	return g.dbPath
}

// migrate runs pending migrations up to the configured schema version.
func (g *SQLiteGateway) migrate() error {
	var version int
	err := g.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration
		version = 0
	}

	if version < 1 && g.schemaVersion >= 1 {
		if _, err := g.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}

	if version < 2 && g.schemaVersion >= 2 {
		if _, err := g.db.Exec(migrationV2); err != nil {
			return fmt.Errorf("applying migration v2: %w", err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (g *SQLiteGateway) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := g.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Select implements core.Gateway.
func (g *SQLiteGateway) Select(ctx context.Context, table string, where core.Predicate, order ...core.Order) ([]core.Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	clause, args, err := buildWhere(where)
	if err != nil {
		return nil, err
	}

	var orderBy []string
	for _, o := range order {
		if err := checkIdent(o.Column); err != nil {
			return nil, err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy, fmt.Sprintf("%q %s", o.Column, dir))
	}
	orderBy = append(orderBy, "rowid ASC")

	query := fmt.Sprintf("SELECT * FROM %q%s ORDER BY %s", table, clause, strings.Join(orderBy, ", "))
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(table, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// SelectOne implements core.Gateway.
func (g *SQLiteGateway) SelectOne(ctx context.Context, table string, where core.Predicate) (core.Row, error) {
	rows, err := g.Select(ctx, table, where)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%s: %d matching rows: %w", table, len(rows), core.ErrRowNotFound)
	}
	return rows[0], nil
}

// Insert implements core.Gateway.
func (g *SQLiteGateway) Insert(ctx context.Context, table string, row core.Row) (core.Row, error) {
	if err := g.checkWritable(table); err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("%s: inserting empty row", table)
	}

	cols := sortedKeys(row)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		if err := checkIdent(c); err != nil {
			return nil, err
		}
		quoted[i] = fmt.Sprintf("%q", c)
		marks[i] = "?"
		args[i] = normalize(row[c])
	}

	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(table, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: reading inserted row id: %w", table, err)
	}
	return g.byRowID(ctx, table, rowID)
}

// Update implements core.Gateway. Exactly one row must match where.
func (g *SQLiteGateway) Update(ctx context.Context, table string, where core.Predicate, patch core.Row) (core.Row, error) {
	if err := g.checkWritable(table); err != nil {
		return nil, err
	}
	clause, args, err := buildWhere(where)
	if err != nil {
		return nil, err
	}

	ids, err := g.matchingRowIDs(ctx, table, clause, args)
	if err != nil {
		return nil, err
	}
	if len(ids) != 1 {
		return nil, fmt.Errorf("%s: %d matching rows: %w", table, len(ids), core.ErrRowNotFound)
	}
	if len(patch) == 0 {
		return g.byRowID(ctx, table, ids[0])
	}

	cols := sortedKeys(patch)
	sets := make([]string, len(cols))
	setArgs := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		if err := checkIdent(c); err != nil {
			return nil, err
		}
		sets[i] = fmt.Sprintf("%q = ?", c)
		setArgs = append(setArgs, normalize(patch[c]))
	}
	setArgs = append(setArgs, ids[0])

	query := fmt.Sprintf("UPDATE %q SET %s WHERE rowid = ?", table, strings.Join(sets, ", "))
	if _, err := g.db.ExecContext(ctx, query, setArgs...); err != nil {
		return nil, mapError(table, err)
	}
	return g.byRowID(ctx, table, ids[0])
}

// Delete implements core.Gateway.
func (g *SQLiteGateway) Delete(ctx context.Context, table string, where core.Predicate) error {
	if err := g.checkWritable(table); err != nil {
		return err
	}
	clause, args, err := buildWhere(where)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %q%s", table, clause)
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(table, err)
	}
	return nil
}

func (g *SQLiteGateway) checkWritable(table string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	if g.readOnly[table] {
		return fmt.Errorf("%s: %w", table, core.ErrAccessDenied)
	}
	return nil
}

func (g *SQLiteGateway) matchingRowIDs(ctx context.Context, table, clause string, args []any) ([]int64, error) {
	query := fmt.Sprintf("SELECT rowid FROM %q%s LIMIT 2", table, clause)
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scanning rowid: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (g *SQLiteGateway) byRowID(ctx context.Context, table string, rowID int64) (core.Row, error) {
	rows, err := g.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q WHERE rowid = ?", table), rowID)
	if err != nil {
		return nil, mapError(table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: rowid %d: %w", table, rowID, core.ErrRowNotFound)
	}
	return out[0], nil
}

func buildWhere(where core.Predicate) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(where))
	var args []any
	for _, f := range where {
		if err := checkIdent(f.Column); err != nil {
			return "", nil, err
		}
		col := fmt.Sprintf("%q", f.Column)
		switch f.Op {
		case core.OpEq:
			if f.Value == nil {
				parts = append(parts, col+" IS NULL")
				continue
			}
			parts = append(parts, col+" = ?")
			args = append(args, normalize(f.Value))
		case core.OpNeq:
			if f.Value == nil {
				parts = append(parts, col+" IS NOT NULL")
				continue
			}
			parts = append(parts, col+" <> ?")
			args = append(args, normalize(f.Value))
		case core.OpIsNull:
			parts = append(parts, col+" IS NULL")
		case core.OpIn:
			values, ok := f.Value.([]any)
			if !ok {
				return "", nil, fmt.Errorf("filter %s: IN expects []any, got %T", f.Column, f.Value)
			}
			if len(values) == 0 {
				parts = append(parts, "0")
				continue
			}
			marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col, marks))
			for _, v := range values {
				args = append(args, normalize(v))
			}
		default:
			return "", nil, fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func scanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	out := make([]core.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// mapError translates driver errors into gateway errors.
func mapError(table string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
		return fmt.Errorf("%s: %w: %w", table, core.ErrUnknownColumn, err)
	case strings.Contains(msg, "readonly database"), strings.Contains(msg, "not authorized"),
		strings.Contains(msg, "authorization denied"):
		return fmt.Errorf("%s: %w: %w", table, core.ErrAccessDenied, err)
	}
	return fmt.Errorf("%s: %w", table, err)
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func sortedKeys(row core.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
