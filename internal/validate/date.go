package validate

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"hotel-bot/internal/calendar"
	"hotel-bot/internal/models"
)

var (
	ErrDateFormat = errors.New("date does not match format dd.mm.yyyy")
	ErrMonthRange = errors.New("month must be in 1..12")
	ErrDayRange   = errors.New("day is out of range for month")
)

// ParseDate parses dd.mm.yyyy; day and month may omit the leading zero.
func ParseDate(text string) (models.Date, error) {
	parts := strings.Split(strings.TrimSpace(text), ".")
	if len(parts) != 3 || len(parts[0]) > 2 || len(parts[1]) > 2 || len(parts[2]) != 4 {
		return models.Date{}, ErrDateFormat
	}
	var nums [3]int
	for i, p := range parts {
		if p == "" || strings.IndexFunc(p, notDigit) >= 0 {
			return models.Date{}, ErrDateFormat
		}
		nums[i], _ = strconv.Atoi(p)
	}
	d := models.Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Month < 1 || d.Month > 12 {
		return models.Date{}, ErrMonthRange
	}
	if d.Day < 1 || d.Day > daysIn(d.Year, d.Month) {
		return models.Date{}, ErrDayRange
	}
	return d, nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsFutureOrToday compares calendar dates only.
func IsFutureOrToday(d, today models.Date) bool {
	return !d.Before(today)
}

// IsAfter reports whether a is strictly later than b.
func IsAfter(a, b models.Date) bool {
	return b.Before(a)
}

// DateFromCalendar extracts the pressed day from a calendar callback. It
// returns false for navigation, filler buttons and foreign payloads.
func DateFromCalendar(data string) (models.Date, bool) {
	cb, err := calendar.Parse(data)
	if err != nil || cb.Action != calendar.ActionDay {
		return models.Date{}, false
	}
	d := cb.Date()
	if d.Day > daysIn(d.Year, d.Month) {
		return models.Date{}, false
	}
	return d, true
}
