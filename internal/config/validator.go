package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateStore(&cfg.Store)
	v.validateServer(&cfg.Server)
	v.validateAudit(&cfg.Audit)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

var knownTables = map[string]bool{
	core.TableStages:   true,
	core.TableCards:    true,
	core.TableHistory:  true,
	core.TableComments: true,
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	switch cfg.Backend {
	case "sqlite":
		if strings.TrimSpace(cfg.Path) == "" {
			v.addError("store.path", cfg.Path, "required for the sqlite backend")
		}
	case "memory":
	default:
		v.addError("store.backend", cfg.Backend, "must be one of: sqlite, memory")
	}

	for _, table := range cfg.ReadOnlyTables {
		if !knownTables[table] {
			v.addError("store.read_only_tables", table, "unknown table")
		}
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if d, err := time.ParseDuration(cfg.ShutdownTimeout); err != nil || d <= 0 {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "must be a positive duration")
	}
}

func (v *Validator) validateAudit(cfg *AuditConfig) {
	if strings.TrimSpace(cfg.SystemActorID) == "" {
		v.addError("audit.system_actor_id", cfg.SystemActorID, "required")
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
