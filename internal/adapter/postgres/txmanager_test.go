package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/testhelper"
)

func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8] + "@example.com"
}

func insertUser(ctx context.Context, q postgres.Querier, email string) error {
	_, err := q.Exec(ctx, `INSERT INTO users (email, first_name) VALUES ($1, 'Tx')`, email)
	return err
}

// userExists checks whether a user row with the given email exists in the database.
func userExists(t *testing.T, pool *pgxpool.Pool, email string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("userExists query: %v", err)
	}
	return exists
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	email := uniqueEmail("commit")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if !postgres.InTx(ctx) {
			t.Error("InTx = false inside RunInTx")
		}
		return insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), email)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !userExists(t, pool, email) {
		t.Fatal("expected user to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	email := uniqueEmail("rollback")
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), email); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if userExists(t, pool, email) {
		t.Fatal("expected user NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	email := uniqueEmail("panic")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}
		if userExists(t, pool, email) {
			t.Fatal("expected user NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), email); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInSavepoint_FailureKeepsOuterTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	kept := uniqueEmail("kept")
	dropped := uniqueEmail("dropped")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), kept); err != nil {
			return err
		}

		spErr := tm.RunInSavepoint(ctx, func(ctx context.Context) error {
			if err := insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), dropped); err != nil {
				return err
			}
			// Duplicate email aborts the statement; only the savepoint is lost.
			return insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), dropped)
		})
		if spErr == nil {
			t.Fatal("expected duplicate insert to fail inside savepoint")
		}

		// The outer transaction must still accept statements.
		var n int
		return postgres.QuerierFromCtx(ctx, pool).QueryRow(ctx, `SELECT 1`).Scan(&n)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !userExists(t, pool, kept) {
		t.Error("expected outer insert to be committed")
	}
	if userExists(t, pool, dropped) {
		t.Error("expected savepoint insert to be rolled back")
	}
}

func TestRunInSavepoint_WithoutTxCommits(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	email := uniqueEmail("standalone")

	err := tm.RunInSavepoint(context.Background(), func(ctx context.Context) error {
		return insertUser(ctx, postgres.QuerierFromCtx(ctx, pool), email)
	})
	if err != nil {
		t.Fatalf("RunInSavepoint returned error: %v", err)
	}
	if !userExists(t, pool, email) {
		t.Fatal("expected user to exist after standalone savepoint")
	}
}

func TestQuerierFromCtx_WithoutTxUsesPool(t *testing.T) {
	pool := testhelper.SetupTestDB(t)

	if postgres.InTx(context.Background()) {
		t.Fatal("InTx = true for a bare context")
	}
	if q := postgres.QuerierFromCtx(context.Background(), pool); q != postgres.Querier(pool) {
		t.Fatal("expected pool when no transaction is in context")
	}
}
