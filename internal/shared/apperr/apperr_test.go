package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict(CodeIdempotencyKeyExists, "dup"), http.StatusConflict},
		{Upstream("oracle", errors.New("x")), http.StatusBadGateway},
		{Internal("store", errors.New("x")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.err.Code, tc.want, got)
		}
	}
}

func TestAsWrapsUntypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("ask: %w", NotFound("document not found"))
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(wrapped))
	}
	plain := errors.New("disk on fire")
	ae := As(plain)
	if ae.Kind != KindInternal || !errors.Is(ae, plain) {
		t.Fatalf("expected internal wrapping plain error, got %#v", ae)
	}
}

func TestConflictCodesAreDistinguishable(t *testing.T) {
	replay := Conflict(CodeIdempotencyKeyExists, "already processed")
	generic := Conflict("", "duplicate")
	if !HasCode(replay, CodeIdempotencyKeyExists) {
		t.Fatalf("expected idempotency code")
	}
	if HasCode(generic, CodeIdempotencyKeyExists) || generic.Code != CodeConflict {
		t.Fatalf("expected generic conflict code, got %s", generic.Code)
	}
	notProcessed := Validation("document not processed").WithCode(CodeDocumentNotProcessed)
	if notProcessed.Kind != KindValidation || notProcessed.Status() != http.StatusBadRequest {
		t.Fatalf("unexpected mapping: %#v", notProcessed)
	}
}
