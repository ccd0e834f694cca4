package ctxutil

import (
	"context"
	"testing"
)

func TestWithUserID_And_UserIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), 17)

	got, ok := UserIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for a positive id")
	}
	if got != 17 {
		t.Fatalf("expected 17, got %d", got)
	}
}

func TestUserIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := UserIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestUserIDFromCtx_ZeroID(t *testing.T) {
	t.Parallel()

	_, ok := UserIDFromCtx(WithUserID(context.Background(), 0))
	if ok {
		t.Fatal("expected ok=false for id 0")
	}
}

func TestUserIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("user_id"), "17")

	if _, ok := UserIDFromCtx(ctx); ok {
		t.Fatal("expected ok=false for wrong type")
	}
}

func TestRole(t *testing.T) {
	t.Parallel()

	if IsAdminCtx(context.Background()) {
		t.Fatal("empty context must not be admin")
	}
	if IsAdminCtx(WithRole(context.Background(), "user")) {
		t.Fatal("user role must not be admin")
	}
	ctx := WithRole(context.Background(), RoleAdmin)
	if !IsAdminCtx(ctx) {
		t.Fatal("expected admin")
	}
	if got := RoleFromCtx(ctx); got != "admin" {
		t.Fatalf("expected admin, got %q", got)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromCtx(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
}
