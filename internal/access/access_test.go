package access

import (
	"errors"
	"testing"
)

func TestRequireOwner(t *testing.T) {
	if err := RequireOwner("a", "a"); err != nil {
		t.Fatalf("expected owner to pass, got %v", err)
	}
	if err := RequireOwner("a", "b"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := RequireOwner("", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for empty owner, got %v", err)
	}
}
