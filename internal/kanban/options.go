// Package kanban implements the onboarding/offboarding board: the card
// store, the stage catalogue, the mover and the audit trail.
package kanban

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
)

// DefaultSystemActor signs audit entries when a move carries no actor.
var DefaultSystemActor = core.Actor{ID: "system", Name: "System"}

type options struct {
	logger      *slog.Logger
	bus         events.Publisher
	now         func() time.Time
	newID       func() string
	systemActor core.Actor
	syncAudit   bool
}

// Option configures the kanban components.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		bus:         nopPublisher{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		systemActor: DefaultSystemActor,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the component logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventBus publishes card and audit events to bus.
func WithEventBus(bus events.Publisher) Option {
	return func(o *options) {
		if bus != nil {
			o.bus = bus
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides row id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithSystemActor sets the identity used for audit entries of moves that
// carry no actor.
func WithSystemActor(actor core.Actor) Option {
	return func(o *options) {
		o.systemActor = actor.OrDefault(DefaultSystemActor)
	}
}

// WithSyncAudit makes the mover write history and comments before Move
// returns instead of on a background goroutine.
func WithSyncAudit() Option {
	return func(o *options) {
		o.syncAudit = true
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
