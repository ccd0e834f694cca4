// Package parser turns a raw MySideline document into ordered canonical
// carnival records. Parsing is pure: the same payload always yields the
// same result and nothing outside the payload is read.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/provider"
)

// Result is the outcome of a successful parse.
type Result struct {
	// Records are the Masters events in document order, unique by id.
	Records []domain.CanonicalCarnival
	// Warnings list fields that were dropped to nil.
	Warnings []Warning
	// Filtered counts non-Masters records that were discarded.
	Filtered int
}

// IDs returns the source ids of the records in order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Records))
	for i, rec := range r.Records {
		ids[i] = rec.MySidelineID
	}
	return ids
}

// rawEvent is one listing entry as found in the document, before
// normalization. Empty strings mean absent.
type rawEvent struct {
	ID               string
	Title            string
	Date             string
	Location         string
	State            string
	Email            string
	RegistrationLink string
	Description      string
	Logo             string
}

// Parse converts payload into canonical records. A *ParseError fails the
// whole batch.
func Parse(payload provider.RawPayload) (Result, error) {
	body := bytes.TrimSpace(payload.Body)
	if len(body) == 0 {
		return Result{Records: []domain.CanonicalCarnival{}}, nil
	}

	var (
		events []rawEvent
		err    error
	)
	if isJSON(payload.ContentType, body) {
		events, err = parseJSON(body)
	} else {
		events, err = parseHTML(body)
	}
	if err != nil {
		return Result{}, err
	}

	base, _ := url.Parse(payload.SourceURL)
	return build(events, base)
}

func isJSON(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "json") {
		return true
	}
	return body[0] == '[' || body[0] == '{'
}

func build(events []rawEvent, base *url.URL) (Result, error) {
	res := Result{Records: make([]domain.CanonicalCarnival, 0, len(events))}
	seen := make(map[string]bool, len(events))

	for i, ev := range events {
		id := domain.CleanText(ev.ID)
		title := domain.CleanText(ev.Title)

		switch {
		case title == "" && id == "":
			// An empty placeholder card carries nothing to import.
			res.Warnings = append(res.Warnings, Warning{
				RecordID: fmt.Sprintf("#%d", i+1),
				Field:    FieldTitle,
				Detail:   "record has neither id nor title",
			})
			continue
		case title == "":
			return Result{}, &ParseError{
				Kind:   KindRequiredFieldMissing,
				Field:  FieldTitle,
				Detail: fmt.Sprintf("record %q has no title", id),
			}
		case !IsMasters(title):
			res.Filtered++
			continue
		case id == "":
			return Result{}, &ParseError{
				Kind:   KindRequiredFieldMissing,
				Field:  FieldMySidelineID,
				Detail: fmt.Sprintf("record %q has no id", title),
			}
		}

		if seen[id] {
			return Result{}, &ParseError{
				Kind:   KindIDCollision,
				Field:  id,
				Detail: fmt.Sprintf("id %q appears more than once", id),
			}
		}
		seen[id] = true

		rec, warnings := normalizeEvent(id, title, ev, base)
		res.Records = append(res.Records, rec)
		res.Warnings = append(res.Warnings, warnings...)
	}

	return res, nil
}

// IsMasters reports whether a title names a Masters event.
func IsMasters(title string) bool {
	return strings.Contains(strings.ToLower(title), "masters")
}

func normalizeEvent(id, title string, ev rawEvent, base *url.URL) (domain.CanonicalCarnival, []Warning) {
	var warnings []Warning
	warn := func(field, detail string) {
		warnings = append(warnings, Warning{RecordID: id, Field: field, Detail: detail})
	}

	rec := domain.CanonicalCarnival{
		MySidelineID:    id,
		Title:           title,
		MySidelineTitle: title,
		LocationAddress: domain.OptionalText(ev.Location),
		Description:     domain.OptionalText(ev.Description),
		Source:          domain.SourceMySideline,
	}

	if raw := domain.CleanText(ev.Date); raw != "" {
		if d, ok := ParseDate(raw); ok {
			rec.Date = &d
		} else {
			warn("date", fmt.Sprintf("unrecognized date %q", raw))
		}
	}

	rec.State = InferState(ev.State, ev.Location)

	if email := normalizeEmail(ev.Email); email != "" {
		rec.OrganiserContactEmail = &email
	}

	if raw := domain.CleanText(ev.RegistrationLink); raw != "" {
		if u, ok := ResolveURL(base, raw); ok {
			rec.RegistrationLink = &u
		} else {
			warn("registrationLink", fmt.Sprintf("unusable url %q", raw))
		}
	}

	if raw := domain.CleanText(ev.Logo); raw != "" {
		if u, ok := ResolveURL(base, raw); ok {
			rec.ClubLogoURL = &u
		} else {
			warn("clubLogoURL", fmt.Sprintf("unusable url %q", raw))
		}
	}

	return rec, warnings
}

// normalizeEmail strips a mailto: scheme and query, then trims and
// lower-cases. Addresses are never rejected.
func normalizeEmail(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 7 && strings.EqualFold(s[:7], "mailto:") {
		s = s[7:]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	return domain.NormalizeEmail(s)
}
