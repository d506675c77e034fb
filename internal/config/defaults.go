package config

// Default values shared by the loader and DefaultConfigYAML.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "auto"
	DefaultStoreBackend    = "sqlite"
	DefaultStorePath       = ".staffboard/staffboard.db"
	DefaultServerHost      = "127.0.0.1"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = "15s"
	DefaultSystemActorID   = "system"
	DefaultSystemActorName = "System"
)

// DefaultConfigYAML is written by `staffboard config init`.
const DefaultConfigYAML = `# staffboard configuration
#
# Every key can be overridden with an environment variable:
# STAFFBOARD_<SECTION>_<KEY>, e.g. STAFFBOARD_SERVER_PORT=9090.

log:
  # debug, info, warn, error
  level: info
  # auto (pretty on a terminal, JSON otherwise), text, json
  format: auto

store:
  # sqlite or memory
  backend: sqlite
  path: .staffboard/staffboard.db
  # Tables the application role may read but not write.
  read_only_tables: []

server:
  host: 127.0.0.1
  port: 8080
  allowed_origins: []
  shutdown_timeout: 15s

audit:
  # Identity recorded for moves that carry no actor.
  system_actor_id: system
  system_actor_name: System
  # Write history and comments in the background after the move returns.
  async: true
`
