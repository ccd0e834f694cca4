package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/domain"
)

// dateLayouts are tried in order. ISO forms come first; numeric forms are
// day-first as written in Australia.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon 2 Jan 2006",
	"Monday 2 January 2006",
	"Monday, 2 January 2006",
	"Mon, 2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var ordinalSuffix = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)

// ParseDate parses a date in any accepted form and returns it as midnight
// UTC of the calendar day written in the source.
func ParseDate(raw string) (time.Time, bool) {
	s := ordinalSuffix.ReplaceAllString(domain.CleanText(raw), "$1")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

var stateNames = []struct {
	name  string
	state domain.State
}{
	// Longer names first so "South Australia" is not read from
	// "Western Australia" and territories win over their substrings.
	{"australian capital territory", domain.StateACT},
	{"northern territory", domain.StateNT},
	{"new south wales", domain.StateNSW},
	{"western australia", domain.StateWA},
	{"south australia", domain.StateSA},
	{"queensland", domain.StateQLD},
	{"tasmania", domain.StateTAS},
	{"victoria", domain.StateVIC},
}

var (
	stateCode = regexp.MustCompile(`\b(NSW|QLD|VIC|WA|SA|TAS|NT|ACT)\b`)

	// A postcode only counts as the final token after a suburb word, so
	// street numbers and years elsewhere in the text are ignored.
	postcode = regexp.MustCompile(`[A-Za-z][A-Za-z.'-]*,?\s+(\d{4})(?:,?\s*(?i:australia))?\.?$`)
)

// InferState derives a state from an explicit field, falling back to the
// location text: upper-case codes first, then full names, then the
// Australian postcode. Nil when nothing matches.
func InferState(explicit, location string) *domain.State {
	if s, ok := stateFromField(explicit); ok {
		return &s
	}

	loc := domain.CleanText(location)
	if loc == "" {
		return nil
	}

	if m := stateCode.FindAllString(loc, -1); len(m) > 0 {
		s := domain.State(m[len(m)-1])
		return &s
	}

	lower := strings.ToLower(loc)
	for _, n := range stateNames {
		if strings.Contains(lower, n.name) {
			s := n.state
			return &s
		}
	}

	if m := postcode.FindStringSubmatch(loc); m != nil {
		if s, ok := stateFromPostcode(m[1]); ok {
			return &s
		}
	}
	return nil
}

func stateFromField(raw string) (domain.State, bool) {
	s := domain.CleanText(raw)
	if s == "" {
		return "", false
	}
	if code := domain.State(strings.ToUpper(s)); code.IsValid() {
		return code, true
	}
	lower := strings.ToLower(s)
	for _, n := range stateNames {
		if lower == n.name {
			return n.state, true
		}
	}
	return "", false
}

// postcodeRanges follow Australia Post allocations, including the ACT
// enclaves inside the NSW range.
var postcodeRanges = []struct {
	lo, hi int
	state  domain.State
}{
	{200, 299, domain.StateACT},
	{800, 999, domain.StateNT},
	{1000, 2599, domain.StateNSW},
	{2600, 2618, domain.StateACT},
	{2619, 2899, domain.StateNSW},
	{2900, 2920, domain.StateACT},
	{2921, 2999, domain.StateNSW},
	{3000, 3999, domain.StateVIC},
	{4000, 4999, domain.StateQLD},
	{5000, 5999, domain.StateSA},
	{6000, 6999, domain.StateWA},
	{7000, 7999, domain.StateTAS},
	{8000, 8999, domain.StateVIC},
	{9000, 9999, domain.StateQLD},
}

func stateFromPostcode(code string) (domain.State, bool) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return "", false
	}
	for _, r := range postcodeRanges {
		if n >= r.lo && n <= r.hi {
			return r.state, true
		}
	}
	return "", false
}

// ResolveURL resolves raw against base and accepts only absolute http(s)
// results.
func ResolveURL(base *url.URL, raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if base == nil || !base.IsAbs() {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}
