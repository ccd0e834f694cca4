package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// Key aliases seen in MySideline event feeds, in priority order.
var (
	idKeys          = []string{"id", "_id", "eventId", "mySidelineId"}
	titleKeys       = []string{"title", "name"}
	dateKeys        = []string{"date", "startDate", "eventDate"}
	locationKeys    = []string{"location", "venue", "address"}
	emailKeys       = []string{"contactEmail", "email", "organiserContactEmail"}
	registerKeys    = []string{"registrationLink", "registrationUrl", "url"}
	descriptionKeys = []string{"description", "summary"}
	logoKeys        = []string{"logo", "logoUrl", "clubLogo"}
	envelopeKeys    = []string{"events", "results", "data"}
	locationParts   = []string{"name", "address", "suburb", "state", "postcode"}
)

func parseJSON(body []byte) ([]rawEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Kind: KindUnrecognizedSchema, Detail: fmt.Sprintf("invalid json: %v", err)}
	}

	items, ok := eventArray(doc)
	if !ok {
		return nil, &ParseError{Kind: KindUnrecognizedSchema, Detail: "json document has no event array"}
	}

	events := make([]rawEvent, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ParseError{Kind: KindUnrecognizedSchema, Detail: fmt.Sprintf("event %d is not an object", i+1)}
		}
		events = append(events, eventFromJSON(obj))
	}
	return events, nil
}

// eventArray accepts a top-level array or an object wrapping one.
func eventArray(doc any) ([]any, bool) {
	switch v := doc.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range envelopeKeys {
			if arr, ok := v[key].([]any); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

func eventFromJSON(obj map[string]any) rawEvent {
	ev := rawEvent{
		ID:               firstString(obj, idKeys),
		Title:            firstString(obj, titleKeys),
		Date:             firstString(obj, dateKeys),
		State:            scalar(obj["state"]),
		Email:            firstString(obj, emailKeys),
		RegistrationLink: firstString(obj, registerKeys),
		Description:      firstString(obj, descriptionKeys),
		Logo:             firstString(obj, logoKeys),
	}

	if ev.Email == "" {
		if contact, ok := obj["contact"].(map[string]any); ok {
			ev.Email = scalar(contact["email"])
		}
	}

	for _, key := range locationKeys {
		switch loc := obj[key].(type) {
		case map[string]any:
			ev.Location = joinLocation(loc)
			if ev.State == "" {
				ev.State = scalar(loc["state"])
			}
		default:
			ev.Location = scalar(loc)
		}
		if ev.Location != "" {
			break
		}
	}

	return ev
}

// joinLocation flattens a structured venue into one address line.
func joinLocation(loc map[string]any) string {
	var parts []string
	for _, key := range locationParts {
		if s := domain.CleanText(scalar(loc[key])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s := scalar(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

// scalar renders strings and numbers; anything else is absent.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
