package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := (&DomainError{
		Category: ErrCatValidation,
		Code:     "CODE",
		Message:  "message",
	}).WithCause(cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be unwrapped")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match cause")
	}
	if !strings.Contains(err.Error(), "(root)") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}

	match := &DomainError{Category: ErrCatValidation, Code: "CODE"}
	if !errors.Is(err, match) {
		t.Fatalf("expected errors.Is to match category and code")
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := ErrValidation("X", "msg")
	err.WithDetail("k", "v")
	if err.Details == nil || err.Details["k"] != "v" {
		t.Fatalf("expected details to be set")
	}
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name      string
		err       *DomainError
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{"validation", ErrValidation(CodeEmptyBody, "m"), ErrCatValidation, CodeEmptyBody, false},
		{"not found", ErrNotFound("thing", "1"), ErrCatNotFound, "NOT_FOUND", false},
		{"card", ErrCardNotFound("c1"), ErrCatNotFound, CodeCardNotFound, false},
		{"stage", ErrStageNotFound("s1"), ErrCatNotFound, CodeStageNotFound, false},
		{"permission", ErrPermissionDenied(TableHistory), ErrCatPermission, CodePermissionDenied, false},
		{"audit", ErrAuditWrite("history", errors.New("x")), ErrCatAudit, CodeAuditWriteFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", tt.err.Retryable, tt.retryable)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrAuditWrite("comment", nil)) {
		t.Fatalf("expected retryable error")
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("expected non-domain error to be non-retryable")
	}
}

func TestGetCategory(t *testing.T) {
	wrapped := fmt.Errorf("moving: %w", ErrCardNotFound("c1"))
	if GetCategory(wrapped) != ErrCatNotFound {
		t.Fatalf("expected not_found category through wrapping")
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Fatalf("expected internal category for non-domain error")
	}
	if !IsCategory(ErrPermissionDenied(TableComments), ErrCatPermission) {
		t.Fatalf("expected category match")
	}
}

func TestIsCardNotFound(t *testing.T) {
	if !IsCardNotFound(fmt.Errorf("x: %w", ErrCardNotFound("c1"))) {
		t.Fatalf("expected wrapped card not found to match")
	}
	if IsCardNotFound(ErrStageNotFound("s1")) {
		t.Fatalf("stage not found is not card not found")
	}
}

func TestRemediationHint(t *testing.T) {
	hint := RemediationHint(fmt.Errorf("x: %w", ErrPermissionDenied(TableHistory)))
	if !strings.Contains(hint, `"card_history"`) {
		t.Fatalf("expected hint to name the table, got %q", hint)
	}
	if RemediationHint(errors.New("plain")) != "" {
		t.Fatalf("expected no hint for plain error")
	}
}

func TestErrPermissionDenied_WrapsAccessDenied(t *testing.T) {
	gwErr := fmt.Errorf("%s: %w", TableComments, ErrAccessDenied)
	err := ErrPermissionDenied(TableComments).WithCause(gwErr)

	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected gateway sentinel to survive wrapping")
	}
	if !IsCategory(err, ErrCatPermission) {
		t.Fatalf("expected permission category")
	}
	if errors.Is(ErrAccessDenied, err) {
		t.Fatalf("sentinel must not match the domain error")
	}
}
