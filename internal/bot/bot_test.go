package bot

import (
	"context"
	"testing"
	"time"
)

func TestCloseWithoutConnection(t *testing.T) {
	b, _ := newTestBot(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := b.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := (&Bot{}).Close(ctx); err != nil {
		t.Fatalf("close without session: %v", err)
	}
}
