package fhir

import (
	"strings"
	"time"
)

// UnknownDate is shown when a record carries no date at all
const UnknownDate = "Unknown Date"

// DisplayDateLayout renders dates as "May 15, 2023"
const DisplayDateLayout = "January 2, 2006"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// datePath is one location probed for a clinical date
type datePath []string

// resourceDatePaths is the fixed priority list of resource date fields
var resourceDatePaths = []datePath{
	{"effectiveDateTime"},
	{"effectivePeriod", "start"},
	{"issued"},
	{"date"},
	{"authoredOn"},
	{"recorded"},
	{"period", "start"},
	{"onset"},
	{"onsetDateTime"},
	{"recordedDate"},
	{"meta", "lastUpdated"},
}

// ParseDate parses the ISO-8601 shapes FHIR uses, full and partial
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a raw date string for display. Parseable dates become
// "Month Day, Year", unparseable strings pass through, empty becomes UnknownDate.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownDate
	}
	if t, ok := ParseDate(raw); ok {
		return t.Format(DisplayDateLayout)
	}
	return raw
}

// rawDate resolves the raw date string of an envelope: wrapper sort date,
// then wrapper created/updated timestamps, then the resource date fields.
func rawDate(env Envelope) string {
	if env.Wrapped {
		for _, s := range []string{env.Meta.SortDate, env.Meta.CreatedAt, env.Meta.UpdatedAt} {
			if s != "" {
				return s
			}
		}
	} else if env.Meta.SortDate != "" {
		return env.Meta.SortDate
	}

	for _, path := range resourceDatePaths {
		if s := env.Resource.Path(path...); s != "" {
			return s
		}
	}
	return ""
}
