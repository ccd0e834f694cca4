package domain

import "time"

// SourceMySideline tags canonical records produced from MySideline.
const SourceMySideline = "MySideline"

// CanonicalCarnival is a normalized carnival record produced by the parser.
// It is transient: it lives only for the run that produced it. Nil pointer
// fields mean "the source did not provide a usable value".
type CanonicalCarnival struct {
	MySidelineID          string
	Title                 string
	MySidelineTitle       string
	Date                  *time.Time
	State                 *State
	LocationAddress       *string
	OrganiserContactEmail *string
	RegistrationLink      *string
	Description           *string
	ClubLogoURL           *string
	Source                string
}
