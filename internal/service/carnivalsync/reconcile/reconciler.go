// Package reconcile applies canonical MySideline records to the carnival
// catalog. Identity is the source id alone; claimed carnivals keep their
// editorial fields.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

type carnivalRepo interface {
	FindByMySidelineID(ctx context.Context, mySidelineID string) (*domain.Carnival, error)
	Insert(ctx context.Context, c *domain.Carnival) (*domain.Carnival, error)
	Update(ctx context.Context, id int64, patch domain.CarnivalPatch) (*domain.Carnival, error)
	TouchSync(ctx context.Context, id int64, at time.Time) error
}

type savepointRunner interface {
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// Reconciler applies batches inside the transaction carried by ctx.
type Reconciler struct {
	carnivals carnivalRepo
	tx        savepointRunner
	log       *slog.Logger
	now       func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(log *slog.Logger, carnivals carnivalRepo, tx savepointRunner) *Reconciler {
	return &Reconciler{
		carnivals: carnivals,
		tx:        tx,
		log:       log.With("service", "reconcile"),
		now:       time.Now,
	}
}

// Reconcile applies batch in order. Each record runs in its own savepoint:
// validation and uniqueness failures are recorded and the batch continues,
// any other error aborts and is returned with the partial report.
func (r *Reconciler) Reconcile(ctx context.Context, batch []domain.CanonicalCarnival, proxyUserID int64) (Report, error) {
	report := Report{Decisions: make([]Decision, 0, len(batch))}
	syncedAt := r.now().UTC()

	for _, rec := range batch {
		var decision Decision
		err := r.tx.RunInSavepoint(ctx, func(ctx context.Context) error {
			var applyErr error
			decision, applyErr = r.apply(ctx, rec, proxyUserID, syncedAt)
			return applyErr
		})
		if err != nil {
			kind, recoverable := errorKind(err)
			if !recoverable {
				return report, fmt.Errorf("reconcile %s: %w", rec.MySidelineID, err)
			}
			r.log.WarnContext(ctx, "carnival record rejected",
				slog.String("my_sideline_id", rec.MySidelineID),
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
			decision = Decision{MySidelineID: rec.MySidelineID, Action: ActionError, ErrorKind: kind}
		}
		report.add(decision)
	}

	r.log.InfoContext(ctx, "reconciled batch",
		slog.Int("processed", report.Processed()),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors),
	)

	return report, nil
}

func errorKind(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return ErrorKindValidation, true
	case errors.Is(err, domain.ErrAlreadyExists):
		return ErrorKindConflict, true
	default:
		return "", false
	}
}

func (r *Reconciler) apply(ctx context.Context, rec domain.CanonicalCarnival, proxyUserID int64, syncedAt time.Time) (Decision, error) {
	existing, err := r.carnivals.FindByMySidelineID(ctx, rec.MySidelineID)
	if errors.Is(err, domain.ErrNotFound) {
		return r.create(ctx, rec, proxyUserID, syncedAt)
	}
	if err != nil {
		return Decision{}, err
	}

	claimed := existing.IsClaimed()
	patch := Diff(*existing, rec, claimed)

	if patch.IsEmpty() {
		if err := r.carnivals.TouchSync(ctx, existing.ID, syncedAt); err != nil {
			return Decision{}, err
		}
		reason := ReasonUnchanged
		if claimed {
			reason = ReasonClaimed
		}
		return Decision{MySidelineID: rec.MySidelineID, Action: ActionSkipped, CarnivalID: existing.ID, Reason: reason}, nil
	}

	fields := patch.Fields()
	patch.LastMySidelineSync = &syncedAt
	if _, err := r.carnivals.Update(ctx, existing.ID, patch); err != nil {
		return Decision{}, err
	}

	r.log.DebugContext(ctx, "carnival updated from source",
		slog.String("my_sideline_id", rec.MySidelineID),
		slog.Int64("carnival_id", existing.ID),
		slog.Bool("claimed", claimed),
		slog.Any("fields", fields),
	)

	return Decision{MySidelineID: rec.MySidelineID, Action: ActionUpdated, CarnivalID: existing.ID, Fields: fields}, nil
}

func (r *Reconciler) create(ctx context.Context, rec domain.CanonicalCarnival, proxyUserID int64, syncedAt time.Time) (Decision, error) {
	id := rec.MySidelineID
	title := rec.MySidelineTitle
	c := &domain.Carnival{
		Title:                 rec.Title,
		MySidelineID:          &id,
		MySidelineTitle:       &title,
		Date:                  rec.Date,
		LocationAddress:       rec.LocationAddress,
		State:                 rec.State,
		OrganiserContactEmail: rec.OrganiserContactEmail,
		RegistrationLink:      rec.RegistrationLink,
		ClubLogoURL:           rec.ClubLogoURL,
		Description:           rec.Description,
		CreatedByUserID:       proxyUserID,
		IsManuallyEntered:     false,
		IsActive:              true,
		LastMySidelineSync:    &syncedAt,
	}

	stored, err := r.carnivals.Insert(ctx, c)
	if err != nil {
		return Decision{}, err
	}
	return Decision{MySidelineID: id, Action: ActionCreated, CarnivalID: stored.ID}, nil
}

// Diff returns the authoritative fields whose canonical value differs from
// the persisted one. Nil canonical values never clear a persisted value.
// For a claimed carnival only the source title is considered.
func Diff(existing domain.Carnival, rec domain.CanonicalCarnival, claimed bool) domain.CarnivalPatch {
	var p domain.CarnivalPatch

	if rec.MySidelineTitle != "" && !equalString(existing.MySidelineTitle, &rec.MySidelineTitle) {
		v := rec.MySidelineTitle
		p.MySidelineTitle = &v
	}
	if claimed {
		return p
	}

	if rec.Title != "" && rec.Title != existing.Title {
		v := rec.Title
		p.Title = &v
	}
	if rec.Date != nil && !equalDate(existing.Date, rec.Date) {
		p.Date = rec.Date
	}
	if rec.State != nil && (existing.State == nil || *existing.State != *rec.State) {
		p.State = rec.State
	}
	if rec.LocationAddress != nil && !equalString(existing.LocationAddress, rec.LocationAddress) {
		p.LocationAddress = rec.LocationAddress
	}
	if rec.OrganiserContactEmail != nil && !equalString(existing.OrganiserContactEmail, rec.OrganiserContactEmail) {
		p.OrganiserContactEmail = rec.OrganiserContactEmail
	}
	if rec.RegistrationLink != nil && !equalString(existing.RegistrationLink, rec.RegistrationLink) {
		p.RegistrationLink = rec.RegistrationLink
	}
	if rec.ClubLogoURL != nil && !equalString(existing.ClubLogoURL, rec.ClubLogoURL) {
		p.ClubLogoURL = rec.ClubLogoURL
	}
	if rec.Description != nil && !equalString(existing.Description, rec.Description) {
		p.Description = rec.Description
	}
	return p
}

func equalString(persisted, canonical *string) bool {
	return persisted != nil && *persisted == *canonical
}

// equalDate compares calendar days; DATE columns carry no time of day.
func equalDate(persisted, canonical *time.Time) bool {
	if persisted == nil {
		return false
	}
	py, pm, pd := persisted.Date()
	cy, cm, cd := canonical.UTC().Date()
	return py == cy && pm == cm && pd == cd
}
