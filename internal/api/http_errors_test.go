package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

func TestHTTPStatusForDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		ok     bool
	}{
		{"validation", core.ErrValidation(core.CodeEmptyCardID, "x"), http.StatusUnprocessableEntity, true},
		{"card not found", core.ErrCardNotFound("c"), http.StatusNotFound, true},
		{"stage not found", core.ErrStageNotFound("s"), http.StatusNotFound, true},
		{"permission", core.ErrPermissionDenied(core.TableComments), http.StatusForbidden, true},
		{"audit", core.ErrAuditWrite("history", errors.New("boom")), http.StatusInternalServerError, true},
		{"wrapped", errorsJoin(core.ErrCardNotFound("c")), http.StatusNotFound, true},
		{"plain", errors.New("boom"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, ok := httpStatusForDomainError(tt.err)
			if status != tt.status || ok != tt.ok {
				t.Errorf("got (%d, %v), want (%d, %v)", status, ok, tt.status, tt.ok)
			}
		})
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("context"), err)
}
