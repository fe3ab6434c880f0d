package booking

import (
	"fmt"
	"time"

	"meeting-room-backend/config"
)

// Rules are the business constraints every booking interval must satisfy.
type Rules struct {
	OpenHour    int // first hour a booking may start
	CloseHour   int // bookings end at CloseHour:00 at the latest
	Granularity time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
	// Location is the business timezone hours are read in. Nil keeps each
	// timestamp's own location.
	Location *time.Location
}

// DefaultRules are 08:00-18:00 on the half hour, 30 minutes to 4 hours.
func DefaultRules() Rules {
	return Rules{
		OpenHour:    8,
		CloseHour:   18,
		Granularity: 30 * time.Minute,
		MinDuration: 30 * time.Minute,
		MaxDuration: 4 * time.Hour,
	}
}

// RulesFromConfig builds Rules from the booking section of the config.
func RulesFromConfig(cfg config.BookingConfig) Rules {
	return Rules{
		OpenHour:    cfg.OpenHour,
		CloseHour:   cfg.CloseHour,
		Granularity: time.Duration(cfg.GranularityMinutes) * time.Minute,
		MinDuration: time.Duration(cfg.MinDurationMinutes) * time.Minute,
		MaxDuration: time.Duration(cfg.MaxDurationMinutes) * time.Minute,
		Location:    cfg.Location,
	}
}

// Validator checks intervals against Rules. It is stateless and safe for
// concurrent use. Per field the rules run in a fixed order: business hours,
// then granularity, then ordering and duration.
type Validator struct {
	rules Rules
}

// NewValidator creates a Validator for the given rules.
func NewValidator(rules Rules) *Validator {
	return &Validator{rules: rules}
}

// Rules returns the rules the validator enforces.
func (v *Validator) Rules() Rules {
	return v.rules
}

// ValidateStart checks a start time on its own.
func (v *Validator) ValidateStart(start time.Time) error {
	return collect(v.checkStart(start))
}

// ValidateEnd checks an end time. Ordering and duration are only checked
// when start is known.
func (v *Validator) ValidateEnd(end time.Time, start *time.Time) error {
	return collect(v.checkEnd(end, start))
}

// ValidateInterval checks a complete proposal.
func (v *Validator) ValidateInterval(start, end time.Time) error {
	return collect(v.checkStart(start), v.checkEnd(end, &start))
}

// ValidatePartial checks the fields present in a partial update. An update
// carrying only end skips the duration rules; callers re-check the merged
// interval with ValidateDuration.
func (v *Validator) ValidatePartial(start, end *time.Time) error {
	var found []*Violation
	if start != nil {
		found = append(found, v.checkStart(*start))
	}
	if end != nil {
		found = append(found, v.checkEnd(*end, start))
	}
	return collect(found...)
}

// ValidateDuration checks only ordering and duration bounds.
func (v *Validator) ValidateDuration(start, end time.Time) error {
	return collect(v.checkDuration(start, end))
}

// ValidateOrder checks that end is strictly after start.
func (v *Validator) ValidateOrder(start, end time.Time) error {
	return collect(checkOrder(start, end))
}

func (v *Validator) checkStart(start time.Time) *Violation {
	t := v.local(start)
	if t.Hour() < v.rules.OpenHour || t.Hour() >= v.rules.CloseHour {
		return &Violation{
			Field:   "start_time",
			Reason:  OutsideBusinessHours,
			Message: fmt.Sprintf("bookings must be between %s and %s", clock(v.rules.OpenHour), clock(v.rules.CloseHour)),
		}
	}
	if !v.onGrid(t) {
		return &Violation{
			Field:   "start_time",
			Reason:  InvalidGranularity,
			Message: fmt.Sprintf("bookings must start on a %d-minute boundary", v.rules.Granularity/time.Minute),
		}
	}
	return nil
}

func (v *Validator) checkEnd(end time.Time, start *time.Time) *Violation {
	t := v.local(end)
	pastClose := t.Hour() == v.rules.CloseHour && (t.Minute() > 0 || t.Second() > 0 || t.Nanosecond() > 0)
	if t.Hour() > v.rules.CloseHour || pastClose {
		return &Violation{
			Field:   "end_time",
			Reason:  OutsideBusinessHours,
			Message: fmt.Sprintf("bookings must end by %s", clock(v.rules.CloseHour)),
		}
	}
	if !v.onGrid(t) {
		return &Violation{
			Field:   "end_time",
			Reason:  InvalidGranularity,
			Message: fmt.Sprintf("bookings must end on a %d-minute boundary", v.rules.Granularity/time.Minute),
		}
	}
	if start != nil {
		return v.checkDuration(*start, end)
	}
	return nil
}

func (v *Validator) checkDuration(start, end time.Time) *Violation {
	if bad := checkOrder(start, end); bad != nil {
		return bad
	}
	d := end.Sub(start)
	switch {
	case d > v.rules.MaxDuration:
		return &Violation{
			Field:   "end_time",
			Reason:  DurationTooLong,
			Message: "booking cannot exceed " + humanize(v.rules.MaxDuration),
		}
	case d < v.rules.MinDuration:
		return &Violation{
			Field:   "end_time",
			Reason:  DurationTooShort,
			Message: "minimum booking duration is " + humanize(v.rules.MinDuration),
		}
	}
	return nil
}

func checkOrder(start, end time.Time) *Violation {
	switch {
	case end.Before(start):
		return &Violation{Field: "end_time", Reason: EndBeforeStart, Message: "end time must be after start time"}
	case end.Equal(start):
		return &Violation{Field: "end_time", Reason: NonPositiveDuration, Message: "booking must have a positive duration"}
	}
	return nil
}

// onGrid reports whether t sits exactly on a granularity boundary within its hour.
func (v *Validator) onGrid(t time.Time) bool {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	step := int(v.rules.Granularity / time.Minute)
	if step <= 0 {
		return true
	}
	return t.Minute()%step == 0
}

func (v *Validator) local(t time.Time) time.Time {
	if v.rules.Location == nil {
		return t
	}
	return t.In(v.rules.Location)
}

func clock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func humanize(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	default:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
}

func collect(found ...*Violation) error {
	var out []Violation
	for _, v := range found {
		if v != nil {
			out = append(out, *v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return &ValidationError{Violations: out}
}
