// Package middleware provides HTTP middleware for the staffboard API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// actorContextKey is the context key for storing the request actor.
const actorContextKey contextKey = "actor"

// Request headers carrying the caller's identity, set by the front end or an
// authenticating proxy.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// GetActor retrieves the request actor. The zero Actor means none was sent.
func GetActor(ctx context.Context) core.Actor {
	a, _ := ctx.Value(actorContextKey).(core.Actor)
	return a
}

// WithActor adds an actor to the context.
func WithActor(ctx context.Context, a core.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, a)
}

// ActorMiddleware stores the identity headers in the request context.
// Requests without X-Actor-ID pass through unchanged; handlers then fall
// back to the system actor.
func ActorMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderActorID))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			a := core.Actor{ID: id, Name: strings.TrimSpace(r.Header.Get(HeaderActorName))}
			logger.Debug("actor middleware: identified caller",
				"actor_id", a.ID,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}
