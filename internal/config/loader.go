package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STAFFBOARD"

// ProjectConfigFile is the per-directory config file name.
const ProjectConfigFile = ".staffboard.yaml"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: EnvPrefix,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads and validates configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (STAFFBOARD_*)
// 3. Project config (.staffboard.yaml in current directory)
// 4. User config (~/.config/staffboard/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if path := l.resolveConfigFile(); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return l.decode()
}

// decode unmarshals and validates the values viper currently holds.
func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	// Comma-separated env values arrive as a single element.
	cfg.Store.ReadOnlyTables = splitList(cfg.Store.ReadOnlyTables)
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-decodes the config file whenever it changes and passes each valid
// result to onChange. Invalid edits go to onError and are otherwise ignored.
// It reports false, and watches nothing, when Load used no file.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", DefaultLogLevel)
	l.v.SetDefault("log.format", DefaultLogFormat)

	l.v.SetDefault("store.backend", DefaultStoreBackend)
	l.v.SetDefault("store.path", DefaultStorePath)
	l.v.SetDefault("store.read_only_tables", []string{})

	l.v.SetDefault("server.host", DefaultServerHost)
	l.v.SetDefault("server.port", DefaultServerPort)
	l.v.SetDefault("server.allowed_origins", []string{})
	l.v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	l.v.SetDefault("audit.system_actor_id", DefaultSystemActorID)
	l.v.SetDefault("audit.system_actor_name", DefaultSystemActorName)
	l.v.SetDefault("audit.async", true)
}

// resolveConfigFile returns the explicit file, else the first existing
// candidate, else "".
func (l *Loader) resolveConfigFile() string {
	if l.configFile != "" {
		return l.configFile
	}
	candidates := []string{ProjectConfigFile}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "staffboard", "config.yaml"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			// The watcher needs a directory to observe.
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}
