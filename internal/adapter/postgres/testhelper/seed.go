package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// UniqueMySidelineID returns a source id that no other test uses.
func UniqueMySidelineID() string {
	return "ms-" + uniqueSuffix()
}

// SeedUser creates an active, non-admin user. Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	user := domain.User{
		Email:     "testuser-" + suffix + "@example.com",
		FirstName: "Test",
		LastName:  "User " + suffix,
		IsActive:  true,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO users (email, first_name, last_name)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		user.Email, user.FirstName, user.LastName,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert: %v", err)
	}

	return user
}

// SeedClub creates an active club created by proxy. Returns its id.
func SeedClub(t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO clubs (club_name, state, created_by_proxy)
		 VALUES ($1, 'NSW', TRUE)
		 RETURNING id`,
		name+" "+uniqueSuffix(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedClub insert: %v", err)
	}
	return id
}

// CarnivalOption customises a seeded carnival row.
type CarnivalOption func(*domain.Carnival)

// WithClaimedAt marks the carnival as adopted by a local user.
func WithClaimedAt(at time.Time) CarnivalOption {
	return func(c *domain.Carnival) { c.ClaimedAt = &at }
}

// WithManualEntry marks the carnival as manually entered.
func WithManualEntry() CarnivalOption {
	return func(c *domain.Carnival) { c.IsManuallyEntered = true }
}

// WithClub sets the host club.
func WithClub(clubID int64) CarnivalOption {
	return func(c *domain.Carnival) { c.ClubID = &clubID }
}

// WithAdminNotes sets admin notes that sync must never touch.
func WithAdminNotes(notes string) CarnivalOption {
	return func(c *domain.Carnival) { c.AdminNotes = &notes }
}

// SeedCarnival inserts a MySideline-sourced, unclaimed carnival authored by
// createdBy and returns it as stored.
func SeedCarnival(t *testing.T, pool *pgxpool.Pool, createdBy int64, mySidelineID, title string, opts ...CarnivalOption) domain.Carnival {
	t.Helper()

	date := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	state := domain.StateQLD
	address := "Davies Park, Brisbane QLD 4101"
	c := domain.Carnival{
		Title:           title,
		MySidelineID:    &mySidelineID,
		MySidelineTitle: &title,
		Date:            &date,
		LocationAddress: &address,
		State:           &state,
		CreatedByUserID: createdBy,
		IsActive:        true,
	}
	for _, opt := range opts {
		opt(&c)
	}

	err := pool.QueryRow(context.Background(),
		`INSERT INTO carnivals (title, my_sideline_id, my_sideline_title, date, location_address, state,
		                        admin_notes, created_by_user_id, club_id, is_manually_entered, claimed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.MySidelineID, c.MySidelineTitle, c.Date, c.LocationAddress, string(state),
		c.AdminNotes, c.CreatedByUserID, c.ClubID, c.IsManuallyEntered, c.ClaimedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedCarnival insert: %v", err)
	}

	return c
}

// ClearSyncLogs deletes every sync log of syncType. Tests that exercise the
// single-flight index share one database and must start from a clean slate.
func ClearSyncLogs(t *testing.T, pool *pgxpool.Pool, syncType domain.SyncType) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `DELETE FROM sync_logs WHERE sync_type = $1`, string(syncType)); err != nil {
		t.Fatalf("testhelper: ClearSyncLogs: %v", err)
	}
}
