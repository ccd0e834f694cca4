package domain

import (
	"strings"
	"time"
)

// Club is a Masters rugby league club.
type Club struct {
	ID              int64
	ClubName        string
	State           *State
	IsActive        bool
	CreatedByProxy  bool
	CreatedByUserID *int64
	InviteEmail     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsUnclaimed reports whether a proxy-created club has nobody managing it yet.
func (c Club) IsUnclaimed(delegateCount int) bool {
	return c.CreatedByProxy && delegateCount == 0
}

// ClubAlternateName is another name a club is known by (e.g. on MySideline).
type ClubAlternateName struct {
	ID            int64
	ClubID        int64
	AlternateName string
	IsActive      bool
	CreatedAt     time.Time
}

// NewClubAlternateName builds an alternate name in its stored, normalized form.
func NewClubAlternateName(clubID int64, name string) ClubAlternateName {
	return ClubAlternateName{
		ClubID:        clubID,
		AlternateName: NormalizeText(name),
		IsActive:      true,
	}
}

// Matches reports whether the normalized query is a substring of the
// normalized alternate name. Inactive names never match.
func (a ClubAlternateName) Matches(query string) bool {
	q := NormalizeText(query)
	if !a.IsActive || q == "" {
		return false
	}
	return strings.Contains(NormalizeText(a.AlternateName), q)
}
