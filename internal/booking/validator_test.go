package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour, minute int) time.Time {
	return time.Date(2030, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Reason()
}

func TestValidator_ValidateStart(t *testing.T) {
	v := NewValidator(DefaultRules())

	testCases := []struct {
		name   string
		start  time.Time
		reason Reason
	}{
		{"opening time", day(8, 0), ""},
		{"half past", day(9, 30), ""},
		{"last slot", day(17, 30), ""},
		{"one minute before opening", day(7, 59), OutsideBusinessHours},
		{"closing time", day(18, 0), OutsideBusinessHours},
		{"quarter past", day(10, 15), InvalidGranularity},
		{"seconds off grid", day(10, 0).Add(30 * time.Second), InvalidGranularity},
		{"hour rule wins over granularity", day(7, 15), OutsideBusinessHours},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateStart(tc.start)
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

func TestValidator_ValidateEnd(t *testing.T) {
	v := NewValidator(DefaultRules())

	testCases := []struct {
		name   string
		end    time.Time
		start  *time.Time
		reason Reason
	}{
		{"closing time without start", day(18, 0), nil, ""},
		{"one minute past closing", day(18, 1), nil, OutsideBusinessHours},
		{"evening", day(19, 0), nil, OutsideBusinessHours},
		{"off grid", day(11, 45), nil, InvalidGranularity},
		{"closing time plus seconds", day(18, 0).Add(time.Second), nil, OutsideBusinessHours},
		{"minimum duration", day(9, 30), ptr(day(9, 0)), ""},
		{"maximum duration", day(13, 0), ptr(day(9, 0)), ""},
		{"too long", day(13, 30), ptr(day(9, 0)), DurationTooLong},
		{"equal to start", day(9, 0), ptr(day(9, 0)), NonPositiveDuration},
		{"before start", day(9, 0), ptr(day(10, 0)), EndBeforeStart},
		{"granularity wins over duration", day(9, 15), ptr(day(9, 0)), InvalidGranularity},
		{"early end without start only checks bounds", day(7, 0), nil, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateEnd(tc.end, tc.start)
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

func TestValidator_DurationTooShort(t *testing.T) {
	rules := DefaultRules()
	rules.Granularity = 15 * time.Minute
	v := NewValidator(rules)

	err := v.ValidateInterval(day(9, 0), day(9, 15))
	assert.Equal(t, DurationTooShort, reasonOf(t, err))
}

func TestValidator_ValidateInterval_ReportsOneViolationPerField(t *testing.T) {
	v := NewValidator(DefaultRules())

	err := v.ValidateInterval(day(7, 15), day(19, 45))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, "start_time", verr.Violations[0].Field)
	assert.Equal(t, OutsideBusinessHours, verr.Violations[0].Reason)
	assert.Equal(t, "end_time", verr.Violations[1].Field)
	assert.Equal(t, OutsideBusinessHours, verr.Violations[1].Reason)
	assert.Contains(t, err.Error(), "bookings must end by 18:00")
}

func TestValidator_ValidatePartial(t *testing.T) {
	v := NewValidator(DefaultRules())

	assert.NoError(t, v.ValidatePartial(nil, nil))
	assert.NoError(t, v.ValidatePartial(ptr(day(9, 0)), nil))
	assert.NoError(t, v.ValidatePartial(nil, ptr(day(17, 0))), "end alone skips duration rules")
	assert.Equal(t, OutsideBusinessHours, reasonOf(t, v.ValidatePartial(nil, ptr(day(18, 30)))))
	assert.Equal(t, DurationTooLong, reasonOf(t, v.ValidatePartial(ptr(day(8, 0)), ptr(day(12, 30)))))

	// The merged interval check closes the gap an end-only update leaves open.
	assert.Equal(t, DurationTooLong, reasonOf(t, v.ValidateDuration(day(9, 0), day(17, 0))))
}

func TestValidator_UsesBusinessLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	rules := DefaultRules()
	rules.Location = loc
	v := NewValidator(rules)

	// 07:00 UTC is 09:00 in the business timezone.
	assert.NoError(t, v.ValidateStart(day(7, 0)))
	assert.Equal(t, OutsideBusinessHours, reasonOf(t, v.ValidateStart(day(16, 0))))
}

func TestValidator_ValidateOrder(t *testing.T) {
	v := NewValidator(DefaultRules())

	assert.NoError(t, v.ValidateOrder(day(0, 0), day(23, 0)), "availability windows may span the day")
	assert.Equal(t, EndBeforeStart, reasonOf(t, v.ValidateOrder(day(10, 0), day(9, 0))))
	assert.Equal(t, NonPositiveDuration, reasonOf(t, v.ValidateOrder(day(10, 0), day(10, 0))))
}
