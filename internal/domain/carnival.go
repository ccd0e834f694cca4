package domain

import "time"

// Carnival is a tournament event in the catalog. A carnival with a
// MySidelineID was imported from MySideline; once ClaimedAt is set a local
// user owns its editorial fields.
type Carnival struct {
	ID                    int64
	Title                 string
	MySidelineID          *string
	MySidelineTitle       *string
	Date                  *time.Time
	LocationAddress       *string
	State                 *State
	OrganiserContactEmail *string
	RegistrationLink      *string
	ClubLogoURL           *string
	Description           *string
	AdminNotes            *string
	CreatedByUserID       int64
	ClubID                *int64
	IsManuallyEntered     bool
	IsActive              bool
	ClaimedAt             *time.Time
	ClaimedByUserID       *int64
	LastMySidelineSync    *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsFromMySideline reports whether the carnival carries a MySideline identity.
func (c Carnival) IsFromMySideline() bool {
	return c.MySidelineID != nil && *c.MySidelineID != ""
}

// IsClaimed reports whether a local user has taken editorial ownership.
// A manually entered carnival that carries a MySideline id was adopted by a
// user and counts as claimed.
func (c Carnival) IsClaimed() bool {
	return c.ClaimedAt != nil || c.IsManuallyEntered
}

// CarnivalField names a carnival attribute that the sync may write.
type CarnivalField string

const (
	FieldTitle                 CarnivalField = "title"
	FieldMySidelineTitle       CarnivalField = "mySidelineTitle"
	FieldDate                  CarnivalField = "date"
	FieldLocationAddress       CarnivalField = "locationAddress"
	FieldState                 CarnivalField = "state"
	FieldOrganiserContactEmail CarnivalField = "organiserContactEmail"
	FieldRegistrationLink      CarnivalField = "registrationLink"
	FieldClubLogoURL           CarnivalField = "clubLogoURL"
	FieldDescription           CarnivalField = "description"
)

// AuthoritativeFields are owned by the source while a carnival is unclaimed.
// clubId, isActive and adminNotes are deliberately absent.
var AuthoritativeFields = []CarnivalField{
	FieldTitle,
	FieldMySidelineTitle,
	FieldDate,
	FieldLocationAddress,
	FieldState,
	FieldOrganiserContactEmail,
	FieldRegistrationLink,
	FieldClubLogoURL,
	FieldDescription,
}

// CarnivalPatch is a sparse update. Nil pointers leave the column untouched.
type CarnivalPatch struct {
	Title                 *string
	MySidelineTitle       *string
	Date                  *time.Time
	LocationAddress       *string
	State                 *State
	OrganiserContactEmail *string
	RegistrationLink      *string
	ClubLogoURL           *string
	Description           *string
	LastMySidelineSync    *time.Time
}

// Fields returns the authoritative fields set on the patch, in
// AuthoritativeFields order. LastMySidelineSync is not reported.
func (p CarnivalPatch) Fields() []CarnivalField {
	var fields []CarnivalField
	set := map[CarnivalField]bool{
		FieldTitle:                 p.Title != nil,
		FieldMySidelineTitle:       p.MySidelineTitle != nil,
		FieldDate:                  p.Date != nil,
		FieldLocationAddress:       p.LocationAddress != nil,
		FieldState:                 p.State != nil,
		FieldOrganiserContactEmail: p.OrganiserContactEmail != nil,
		FieldRegistrationLink:      p.RegistrationLink != nil,
		FieldClubLogoURL:           p.ClubLogoURL != nil,
		FieldDescription:           p.Description != nil,
	}
	for _, f := range AuthoritativeFields {
		if set[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

// IsEmpty reports whether the patch changes no authoritative field.
func (p CarnivalPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}
