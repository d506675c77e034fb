package core

import (
	"context"
	"errors"
)

// =============================================================================
// Persistence Gateway Port
// =============================================================================

// Gateway errors. Adapters wrap driver errors so callers can match these
// with errors.Is.
var (
	// ErrRowNotFound is returned by single-row operations when the predicate
	// matches zero rows or more than one row.
	ErrRowNotFound = errors.New("row not found")

	// ErrUnknownColumn is returned when a write names a column the table
	// does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrAccessDenied is returned when the access policy rejects a write.
	ErrAccessDenied = errors.New("access denied")
)

// Table names shared by the gateway adapters and the kanban records.
const (
	TableStages   = "stages"
	TableCards    = "cards"
	TableHistory  = "card_history"
	TableComments = "card_comments"
)

// Row is one table row keyed by canonical snake_case column name.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FilterOp is a comparison used in a Predicate.
type FilterOp string

const (
	OpEq     FilterOp = "eq"
	OpNeq    FilterOp = "neq"
	OpIn     FilterOp = "in"
	OpIsNull FilterOp = "is_null"
)

// Filter compares one column against a value.
// For OpIn, Value must be a []any; for OpIsNull it is ignored.
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// Predicate is a conjunction of filters. An empty predicate matches every row.
type Predicate []Filter

// Eq builds an equality filter.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Neq builds an inequality filter.
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }

// IsNull builds a null check.
func IsNull(column string) Filter { return Filter{Column: column, Op: OpIsNull} }

// In builds a set-membership filter.
func In[T any](column string, values []T) Filter {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{Column: column, Op: OpIn, Value: vs}
}

// Where collects filters into a predicate.
func Where(filters ...Filter) Predicate { return Predicate(filters) }

// Order sorts a selection by one column.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Gateway is the row-level persistence contract consumed by the kanban core.
// Writes are single statements; no multi-row transaction is exposed.
type Gateway interface {
	// Select returns every row of table matching where, sorted by order.
	// Rows tying on every order column come back in insertion order.
	Select(ctx context.Context, table string, where Predicate, order ...Order) ([]Row, error)

	// SelectOne returns the single row matching where, or ErrRowNotFound.
	SelectOne(ctx context.Context, table string, where Predicate) (Row, error)

	// Insert writes row and returns it as stored.
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Update applies patch to the single row matching where and returns the
	// updated row, or ErrRowNotFound.
	Update(ctx context.Context, table string, where Predicate, patch Row) (Row, error)

	// Delete removes every row matching where.
	Delete(ctx context.Context, table string, where Predicate) error
}
