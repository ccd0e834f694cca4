// Package carnival implements the Carnival repository using PostgreSQL.
package carnival

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/adapter/postgres"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

var columns = []string{
	"id", "title", "my_sideline_id", "my_sideline_title", "date",
	"location_address", "state", "organiser_contact_email", "registration_link",
	"club_logo_url", "description", "admin_notes", "created_by_user_id", "club_id",
	"is_manually_entered", "is_active", "claimed_at", "claimed_by_user_id",
	"last_my_sideline_sync", "created_at", "updated_at",
}

// Repo provides carnival persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new carnival repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a carnival by primary key.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Carnival, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("carnivals").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select carnival: %w", err)
	}

	c, err := scanCarnival(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "carnival", id)
	}
	return c, nil
}

// FindByMySidelineID returns the carnival carrying the given source id and
// locks its row until the surrounding transaction ends. It returns
// domain.ErrNotFound when no carnival has that id.
func (r *Repo) FindByMySidelineID(ctx context.Context, mySidelineID string) (*domain.Carnival, error) {
	query, args, err := postgres.Builder.
		Select(columns...).
		From("carnivals").
		Where(sq.Eq{"my_sideline_id": mySidelineID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select carnival: %w", err)
	}

	c, err := scanCarnival(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "carnival", mySidelineID)
	}
	return c, nil
}

// Insert persists a new carnival and returns it as stored.
func (r *Repo) Insert(ctx context.Context, c *domain.Carnival) (*domain.Carnival, error) {
	query, args, err := postgres.Builder.
		Insert("carnivals").
		SetMap(map[string]any{
			"title":                   c.Title,
			"my_sideline_id":          c.MySidelineID,
			"my_sideline_title":       c.MySidelineTitle,
			"date":                    c.Date,
			"location_address":        c.LocationAddress,
			"state":                   stateParam(c.State),
			"organiser_contact_email": c.OrganiserContactEmail,
			"registration_link":       c.RegistrationLink,
			"club_logo_url":           c.ClubLogoURL,
			"description":             c.Description,
			"admin_notes":             c.AdminNotes,
			"created_by_user_id":      c.CreatedByUserID,
			"club_id":                 c.ClubID,
			"is_manually_entered":     c.IsManuallyEntered,
			"is_active":               c.IsActive,
			"claimed_at":              c.ClaimedAt,
			"last_my_sideline_sync":   c.LastMySidelineSync,
		}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert carnival: %w", err)
	}

	stored, err := scanCarnival(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "carnival", sourceKey(c))
	}
	return stored, nil
}

// Update applies the non-nil fields of patch and returns the stored row.
// An empty patch with no sync timestamp is a plain read.
func (r *Repo) Update(ctx context.Context, id int64, patch domain.CarnivalPatch) (*domain.Carnival, error) {
	set := patchColumns(patch)
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set["updated_at"] = sq.Expr("now()")

	query, args, err := postgres.Builder.
		Update("carnivals").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update carnival: %w", err)
	}

	c, err := scanCarnival(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "carnival", id)
	}
	return c, nil
}

// TouchSync records that the source still lists the carnival. It does not
// bump updated_at because no catalog data changed.
func (r *Repo) TouchSync(ctx context.Context, id int64, at time.Time) error {
	query, args, err := postgres.Builder.
		Update("carnivals").
		Set("last_my_sideline_sync", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch carnival: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "carnival", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("carnival %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Claim hands editorial ownership of a carnival to a local user. After a
// claim the sync only refreshes the source title and sync timestamp.
// Claiming twice returns domain.ErrAlreadyExists.
func (r *Repo) Claim(ctx context.Context, id, userID int64, at time.Time) (*domain.Carnival, error) {
	query, args, err := postgres.Builder.
		Update("carnivals").
		SetMap(map[string]any{
			"claimed_at":          at,
			"claimed_by_user_id":  userID,
			"is_manually_entered": true,
			"updated_at":          sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": id, "claimed_at": nil}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build claim carnival: %w", err)
	}

	c, err := scanCarnival(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, postgres.MapError(err, "carnival", id)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("carnival %d already claimed: %w", id, domain.ErrAlreadyExists)
}

func patchColumns(p domain.CarnivalPatch) map[string]any {
	set := make(map[string]any)
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.MySidelineTitle != nil {
		set["my_sideline_title"] = *p.MySidelineTitle
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.LocationAddress != nil {
		set["location_address"] = *p.LocationAddress
	}
	if p.State != nil {
		set["state"] = string(*p.State)
	}
	if p.OrganiserContactEmail != nil {
		set["organiser_contact_email"] = *p.OrganiserContactEmail
	}
	if p.RegistrationLink != nil {
		set["registration_link"] = *p.RegistrationLink
	}
	if p.ClubLogoURL != nil {
		set["club_logo_url"] = *p.ClubLogoURL
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.LastMySidelineSync != nil {
		set["last_my_sideline_sync"] = *p.LastMySidelineSync
	}
	return set
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func scanCarnival(row pgx.Row) (*domain.Carnival, error) {
	var (
		c     domain.Carnival
		state *string
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.MySidelineID, &c.MySidelineTitle, &c.Date,
		&c.LocationAddress, &state, &c.OrganiserContactEmail, &c.RegistrationLink,
		&c.ClubLogoURL, &c.Description, &c.AdminNotes, &c.CreatedByUserID, &c.ClubID,
		&c.IsManuallyEntered, &c.IsActive, &c.ClaimedAt, &c.ClaimedByUserID,
		&c.LastMySidelineSync, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if state != nil {
		s := domain.State(*state)
		c.State = &s
	}
	return &c, nil
}

func stateParam(s *domain.State) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func sourceKey(c *domain.Carnival) any {
	if c.MySidelineID != nil {
		return *c.MySidelineID
	}
	return c.Title
}
