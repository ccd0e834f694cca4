package user_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/testhelper"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres/user"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// newRepo is a test helper that sets up the DB and returns a ready Repo.
func newRepo(t *testing.T) (*user.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return user.New(pool), pool
}

func TestRepo_GetByID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	seeded := testhelper.SeedUser(t, pool)

	got, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, got.Email)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsAdmin)
	assert.Nil(t, got.PasswordHash)
}

func TestRepo_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), -1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID(-1) error = %v, want ErrNotFound", err)
	}
}

func TestRepo_GetByEmail_CaseInsensitive(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	seeded := testhelper.SeedUser(t, pool)

	got, err := repo.GetByEmail(context.Background(), "  "+strings.ToUpper(seeded.Email)+" ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
}

func TestRepo_EnsureSystemUser_Idempotent(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	first, err := repo.EnsureSystemUser(ctx)
	require.NoError(t, err)
	second, err := repo.EnsureSystemUser(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.SystemUserEmail, first.Email)
	assert.True(t, first.IsSystem())
	assert.False(t, first.IsAdmin)
}

func TestRepo_EnsureSystemUser_PasswordIsUnusable(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	u, err := repo.EnsureSystemUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, u.PasswordHash)

	_, err = bcrypt.Cost([]byte(*u.PasswordHash))
	require.NoError(t, err, "stored hash must be a bcrypt hash")
	for _, guess := range []string{"", "password", domain.SystemUserEmail} {
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(guess)))
	}
}

func TestRepo_EnsureSystemUser_Concurrent(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	const workers = 5
	ids := make([]int64, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := repo.EnsureSystemUser(context.Background())
			errs[i] = err
			if u != nil {
				ids[i] = u.ID
			}
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}
