package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/staffboard/internal/config"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
	"github.com/hugo-lorenzo-mato/staffboard/internal/logging"
	"github.com/hugo-lorenzo-mato/staffboard/internal/tui"
)

// app holds the components a command works with.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	logger *logging.Logger
	gw     core.Gateway
	bus    *events.EventBus

	cards  *kanban.Store
	stages *kanban.Stages
	audit  *kanban.AuditTrail
	mover  *kanban.Mover

	out      io.Writer
	renderer *lipgloss.Renderer
	styles   tui.Styles
}

// open loads configuration and wires the kanban components.
func (o *rootOptions) open(cmd *cobra.Command) (*app, error) {
	loader := config.NewLoaderWithViper(o.v)
	if o.cfgFile != "" {
		loader.WithConfigFile(o.cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if used := loader.ConfigFile(); used != "" {
		logger.Debug("config loaded", "file", used)
	}

	gw, err := store.NewGateway(store.Options{
		Backend:        cfg.Store.Backend,
		Path:           cfg.Store.Path,
		ReadOnlyTables: cfg.Store.ReadOnlyTables,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	bus := events.New(100)
	opts := []kanban.Option{
		kanban.WithLogger(logger.Slog()),
		kanban.WithEventBus(bus),
		kanban.WithSystemActor(cfg.Audit.SystemActor()),
	}
	if !cfg.Audit.Async {
		opts = append(opts, kanban.WithSyncAudit())
	}

	out := cmd.OutOrStdout()
	renderer := lipgloss.NewRenderer(out)
	if o.noColor {
		renderer.SetColorProfile(termenv.Ascii)
	}

	cards := kanban.NewStore(gw, opts...)
	return &app{
		cfg:      cfg,
		loader:   loader,
		logger:   logger,
		gw:       gw,
		bus:      bus,
		cards:    cards,
		stages:   cards.Stages(),
		audit:    kanban.NewAuditTrail(gw, opts...),
		mover:    kanban.NewMover(gw, opts...),
		out:      out,
		renderer: renderer,
		styles:   tui.NewStyles(renderer),
	}, nil
}

// Close drains background audit writes and releases the store.
func (a *app) Close() error {
	a.mover.Wait()
	a.bus.Close()
	if err := store.CloseGateway(a.gw); err != nil {
		a.logger.Warn("failed to close store", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// withApp runs fn with an opened app and closes it afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(*app) error) (err error) {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(a)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
