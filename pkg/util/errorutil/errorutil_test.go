package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", NewInvalidState("approval already resolved", nil))
	got := ToDomainError(wrapped)
	if got.Code != CodeInvalidState || got.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	got := ToDomainError(cause)
	if got.Code != CodeInternal || !errors.Is(got, cause) {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil error should map to nil")
	}
}

func TestHasCode(t *testing.T) {
	err := NewPartialWrite("approval request not created", map[string]any{"ticket_id": "t1"}, errors.New("insert failed"))
	if !HasCode(err, CodePartialWrite) {
		t.Fatal("expected PARTIAL_WRITE")
	}
	if HasCode(err, CodeStore) {
		t.Fatal("did not expect STORE_ERROR")
	}
	if HasCode(errors.New("plain"), CodeStore) {
		t.Fatal("plain errors carry no code")
	}
}
