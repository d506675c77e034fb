package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// Backend names accepted by NewGateway.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options configures gateway creation.
type Options struct {
	// Backend selects the adapter; empty means SQLite.
	Backend string

	// Path is the SQLite database path. Ignored by the memory backend.
	Path string

	// ReadOnlyTables lists tables whose writes are denied.
	ReadOnlyTables []string
}

// NewGateway creates a core.Gateway for the configured backend.
func NewGateway(opts Options) (core.Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSQLite:
		path := opts.Path
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a store path")
		}
		// Ensure path has .db extension for SQLite
		if path != ":memory:" && !strings.HasSuffix(path, ".db") {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
		}
		return NewSQLiteGateway(path, WithReadOnlyTables(opts.ReadOnlyTables...))
	case BackendMemory:
		m := NewMemory()
		for _, t := range opts.ReadOnlyTables {
			m.DenyWrites(t)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Closeable is an optional interface for gateways that need cleanup.
type Closeable interface {
	Close() error
}

// CloseGateway safely closes a gateway if it implements Closeable.
func CloseGateway(gw core.Gateway) error {
	if closeable, ok := gw.(Closeable); ok {
		return closeable.Close()
	}
	return nil
}
