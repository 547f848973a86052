// Package calendar renders inline month and year grids and encodes their
// button payloads as typed callbacks.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hotel-bot/internal/models"
)

const prefix = "cal"

type Action string

const (
	ActionDay    Action = "d" // a day was picked
	ActionMonth  Action = "m" // show the month grid
	ActionYear   Action = "y" // show the year grid
	ActionIgnore Action = "n" // labels and filler cells
)

var ErrNotCalendar = errors.New("calendar: not a calendar payload")

type Callback struct {
	Action Action
	Year   int
	Month  int
	Day    int
}

func Day(d models.Date) Callback {
	return Callback{Action: ActionDay, Year: d.Year, Month: d.Month, Day: d.Day}
}

func (c Callback) Date() models.Date {
	return models.Date{Day: c.Day, Month: c.Month, Year: c.Year}
}

// IsNavigation reports whether pressing the button should redraw the grid.
func (c Callback) IsNavigation() bool {
	return c.Action == ActionMonth || c.Action == ActionYear
}

func (c Callback) Data() string {
	switch c.Action {
	case ActionDay:
		return fmt.Sprintf("%s:%s:%d:%d:%d", prefix, c.Action, c.Year, c.Month, c.Day)
	case ActionMonth:
		return fmt.Sprintf("%s:%s:%d:%d", prefix, c.Action, c.Year, c.Month)
	case ActionYear:
		return fmt.Sprintf("%s:%s:%d", prefix, c.Action, c.Year)
	default:
		return prefix + ":" + string(ActionIgnore)
	}
}

// IsCalendar reports whether data belongs to a calendar button.
func IsCalendar(data string) bool {
	return strings.HasPrefix(data, prefix+":")
}

func Parse(data string) (Callback, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != prefix {
		return Callback{}, ErrNotCalendar
	}
	cb := Callback{Action: Action(parts[1])}
	var want int
	switch cb.Action {
	case ActionDay:
		want = 5
	case ActionMonth:
		want = 4
	case ActionYear:
		want = 3
	case ActionIgnore:
		want = 2
	default:
		return Callback{}, fmt.Errorf("calendar: unknown action %q", parts[1])
	}
	if len(parts) != want {
		return Callback{}, fmt.Errorf("calendar: malformed payload %q", data)
	}
	nums := make([]int, 0, 3)
	for _, p := range parts[2:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Callback{}, fmt.Errorf("calendar: malformed payload %q: %w", data, err)
		}
		nums = append(nums, n)
	}
	if len(nums) > 0 {
		cb.Year = nums[0]
		if cb.Year < 1 || cb.Year > 9999 {
			return Callback{}, fmt.Errorf("calendar: year out of range in %q", data)
		}
	}
	if len(nums) > 1 {
		cb.Month = nums[1]
		if cb.Month < 1 || cb.Month > 12 {
			return Callback{}, fmt.Errorf("calendar: month out of range in %q", data)
		}
	}
	if len(nums) > 2 {
		cb.Day = nums[2]
		if cb.Day < 1 || cb.Day > 31 {
			return Callback{}, fmt.Errorf("calendar: day out of range in %q", data)
		}
	}
	return cb, nil
}
