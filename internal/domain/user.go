package domain

import "time"

// SystemUserEmail is the reserved principal that authors every carnival
// created by an external sync.
const SystemUserEmail = "system@oldmanfooty.internal"

// User is an application account. Only the fields the ingestion core reads
// are modelled here.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	PasswordHash *string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsSystem reports whether u is the proxy-authorship user.
func (u User) IsSystem() bool {
	return NormalizeEmail(u.Email) == SystemUserEmail
}
