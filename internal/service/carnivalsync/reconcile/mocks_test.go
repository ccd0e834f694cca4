package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// memCarnivals is an in-memory carnival store keyed by id. Hooks let a test
// inject failures for a given source id.
type memCarnivals struct {
	rows   map[int64]domain.Carnival
	nextID int64

	insertErr map[string]error
	updateErr map[string]error
	findErr   map[string]error

	inserts, updates, touches int
}

func newMemCarnivals() *memCarnivals {
	return &memCarnivals{rows: map[int64]domain.Carnival{}, nextID: 1}
}

func (m *memCarnivals) FindByMySidelineID(_ context.Context, id string) (*domain.Carnival, error) {
	if err := m.findErr[id]; err != nil {
		return nil, err
	}
	for _, c := range m.rows {
		if c.MySidelineID != nil && *c.MySidelineID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("carnival %s: %w", id, domain.ErrNotFound)
}

func (m *memCarnivals) Insert(_ context.Context, c *domain.Carnival) (*domain.Carnival, error) {
	if err := m.insertErr[*c.MySidelineID]; err != nil {
		return nil, err
	}
	m.inserts++
	stored := *c
	stored.ID = m.nextID
	m.nextID++
	m.rows[stored.ID] = stored
	return &stored, nil
}

func (m *memCarnivals) Update(_ context.Context, id int64, p domain.CarnivalPatch) (*domain.Carnival, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("carnival %d: %w", id, domain.ErrNotFound)
	}
	if err := m.updateErr[*c.MySidelineID]; err != nil {
		return nil, err
	}
	m.updates++
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.MySidelineTitle != nil {
		c.MySidelineTitle = p.MySidelineTitle
	}
	if p.Date != nil {
		c.Date = p.Date
	}
	if p.LocationAddress != nil {
		c.LocationAddress = p.LocationAddress
	}
	if p.State != nil {
		c.State = p.State
	}
	if p.OrganiserContactEmail != nil {
		c.OrganiserContactEmail = p.OrganiserContactEmail
	}
	if p.RegistrationLink != nil {
		c.RegistrationLink = p.RegistrationLink
	}
	if p.ClubLogoURL != nil {
		c.ClubLogoURL = p.ClubLogoURL
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.LastMySidelineSync != nil {
		c.LastMySidelineSync = p.LastMySidelineSync
	}
	m.rows[id] = c
	return &c, nil
}

func (m *memCarnivals) TouchSync(_ context.Context, id int64, at time.Time) error {
	c, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("carnival %d: %w", id, domain.ErrNotFound)
	}
	m.touches++
	c.LastMySidelineSync = &at
	m.rows[id] = c
	return nil
}

func (m *memCarnivals) seed(c domain.Carnival) domain.Carnival {
	c.ID = m.nextID
	m.nextID++
	m.rows[c.ID] = c
	return c
}

// savepoints emulates savepoint rollback by restoring a snapshot of the
// store when fn fails.
type savepoints struct {
	store *memCarnivals
	calls int
}

func (s *savepoints) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	snapshot := maps.Clone(s.store.rows)
	if err := fn(ctx); err != nil {
		s.store.rows = snapshot
		return err
	}
	return nil
}
