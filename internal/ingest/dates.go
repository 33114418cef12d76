package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Statement dates arrive in whatever shape the bank's export tool produced.
// normalizeDate tries the shapes seen in the wild, most specific first, and
// reports ok=false when none fit so the caller can drop the row instead of
// guessing.

var (
	dayFirstPattern   = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})$`)
	isoDatePattern    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	namedMonthPattern = regexp.MustCompile(`(?i)^(\d{1,2})[-/ ]+([a-z]{3,9})\.?[-/ ]+(\d{2,4})$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// fallbackLayouts handle full timestamps and US-style prose dates that the
// structured patterns above don't cover.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// normalizeDate parses a raw date token into a calendar date. Numeric forms
// with the day first ("31/01/2024", "31-1-24"), ISO ("2024-01-31") and named
// months ("31 Jan 2024", "31-january-24") are recognized; two-digit years
// land in 2000-2099. Calendar-invalid dates such as Feb 31 fail rather than
// roll over.
func normalizeDate(token string) (civil.Date, bool) {
	s := strings.TrimSpace(token)
	if s == "" {
		return civil.Date{}, false
	}

	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if d, ok := calendarDate(year, month, day); ok {
			return d, true
		}
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := calendarDate(year, month, day); ok {
			return d, true
		}
	}

	if m := namedMonthPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month, ok := monthsByPrefix[strings.ToLower(m[2])[:3]]; ok {
			if d, ok := calendarDate(year, int(month), day); ok {
				return d, true
			}
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}

	return civil.Date{}, false
}

// calendarDate builds a civil.Date only when the components name a real day.
// time.Date normalizes out-of-range values (Feb 31 becomes Mar 2/3), so the
// round trip detects them.
func calendarDate(year, month, day int) (civil.Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return civil.Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}
