// Package config loads staffboard settings from defaults, a YAML file and
// STAFFBOARD_* environment variables.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Audit  AuditConfig  `mapstructure:"audit" yaml:"audit"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects and configures the persistence gateway.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
	// ReadOnlyTables denies writes to the named tables, mirroring an access
	// policy that grants select but not insert.
	ReadOnlyTables []string `mapstructure:"read_only_tables" yaml:"read_only_tables"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string   `mapstructure:"host" yaml:"host"`
	Port            int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AuditConfig configures the audit trail written by moves.
type AuditConfig struct {
	SystemActorID   string `mapstructure:"system_actor_id" yaml:"system_actor_id"`
	SystemActorName string `mapstructure:"system_actor_name" yaml:"system_actor_name"`
	// Async writes history and comments after the move returns.
	Async bool `mapstructure:"async" yaml:"async"`
}

// SystemActor returns the identity used for moves without an actor.
func (a AuditConfig) SystemActor() core.Actor {
	return core.Actor{ID: a.SystemActorID, Name: a.SystemActorName}
}

// Marshal renders cfg in the config file format.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
