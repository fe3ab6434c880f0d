package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Naive layouts carry no zone and are read in the business location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

var spaceRe = regexp.MustCompile(`\s+`)

// Timestamp parses an RFC3339 timestamp or a naive local timestamp. Naive
// values are interpreted in loc; zoned values are converted into it.
// A nil loc means time.Local.
func Timestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := spaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp %q: want YYYY-MM-DDTHH:MM[:SS] or RFC3339", raw)
}

// OptionalTimestamp is Timestamp for fields that may be absent. An empty
// or nil input yields nil.
func OptionalTimestamp(raw *string, loc *time.Location) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := Timestamp(*raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Date parses YYYY-MM-DD as midnight in loc.
func Date(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q: want YYYY-MM-DD", raw)
	}
	return t, nil
}

// EndOfDay returns the last representable instant of the day d falls on.
func EndOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day+1, 0, 0, 0, 0, d.Location()).Add(-time.Nanosecond)
}
