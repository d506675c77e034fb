package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActorMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    core.Actor
	}{
		{name: "no headers", want: core.Actor{}},
		{name: "id and name", headers: map[string]string{HeaderActorID: "u-1", HeaderActorName: "Bia"}, want: core.Actor{ID: "u-1", Name: "Bia"}},
		{name: "id only", headers: map[string]string{HeaderActorID: " u-2 "}, want: core.Actor{ID: "u-2"}},
		{name: "name without id ignored", headers: map[string]string{HeaderActorName: "Bia"}, want: core.Actor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got core.Actor
			h := ActorMiddleware(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = GetActor(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("actor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGetActor_Empty(t *testing.T) {
	t.Parallel()
	if a := GetActor(context.Background()); a != (core.Actor{}) {
		t.Errorf("GetActor() = %+v, want zero", a)
	}
	ctx := WithActor(context.Background(), core.Actor{ID: "x"})
	if a := GetActor(ctx); a.ID != "x" {
		t.Errorf("GetActor().ID = %q, want x", a.ID)
	}
}
