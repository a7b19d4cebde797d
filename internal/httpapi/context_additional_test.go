package httpapi

import (
	"context"
	"testing"
	"time"
)

func waitDone(t *testing.T, ctx context.Context, what string) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("joined context did not cancel after %s", what)
	}
}

func TestSetBaseContext_NilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	// nolint:staticcheck // SA1012: nil exercises the fallback
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatalf("expected background base context after nil reset")
	}
}

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	a, ac := context.WithCancel(context.Background())
	b, bc := context.WithCancel(context.Background())
	defer bc()
	j, cancelJ := joinContexts(a, b)
	defer cancelJ()
	ac()
	waitDone(t, j, "first parent canceled")

	a, ac = context.WithCancel(context.Background())
	defer ac()
	b, bc2 := context.WithCancel(context.Background())
	j, cancelJ2 := joinContexts(a, b)
	defer cancelJ2()
	bc2()
	waitDone(t, j, "second parent canceled")
}

func TestJoinContexts_CancelFuncReleases(t *testing.T) {
	j, cancel := joinContexts(context.Background(), context.Background())
	cancel()
	waitDone(t, j, "cancel func called")
}
