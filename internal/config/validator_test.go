package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "auto"},
		Store:  StoreConfig{Backend: "sqlite", Path: "board.db"},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080, ShutdownTimeout: "10s"},
		Audit:  AuditConfig{SystemActorID: "system", SystemActorName: "System"},
	}
}

func TestValidator_Valid(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad backend", func(c *Config) { c.Store.Backend = "mysql" }, "store.backend"},
		{"sqlite without path", func(c *Config) { c.Store.Path = " " }, "store.path"},
		{"unknown table", func(c *Config) { c.Store.ReadOnlyTables = []string{"payroll"} }, "store.read_only_tables"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }, "server.shutdown_timeout"},
		{"empty actor", func(c *Config) { c.Audit.SystemActorID = "" }, "audit.system_actor_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			v := NewValidator()
			err := v.Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
			if !v.Errors().HasErrors() {
				t.Error("HasErrors() = false")
			}
		})
	}
}

func TestValidator_MemoryNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreConfig{Backend: "memory"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
