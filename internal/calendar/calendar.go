package calendar

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var weekdays = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

func ignore(text string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, Callback{Action: ActionIgnore}.Data())
}

// Month renders the day grid for one month with month navigation and a
// header that zooms out to the year grid.
func Month(year int, month time.Month) tgbotapi.InlineKeyboardMarkup {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("«", Callback{Action: ActionMonth, Year: prev.Year(), Month: int(prev.Month())}.Data()),
			tgbotapi.NewInlineKeyboardButtonData(month.String()+" "+strconv.Itoa(year), Callback{Action: ActionYear, Year: year}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("»", Callback{Action: ActionMonth, Year: next.Year(), Month: int(next.Month())}.Data()),
		),
	}

	header := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for _, w := range weekdays {
		header = append(header, ignore(w))
	}
	rows = append(rows, header)

	// Monday-first offset of the 1st
	offset := (int(first.Weekday()) + 6) % 7
	days := first.AddDate(0, 1, -1).Day()

	row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, ignore(" "))
	}
	for day := 1; day <= days; day++ {
		cb := Callback{Action: ActionDay, Year: year, Month: int(month), Day: day}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(day), cb.Data()))
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, ignore(" "))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Year renders a grid of the twelve months of a year with year navigation.
func Year(year int) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("«", Callback{Action: ActionYear, Year: year - 1}.Data()),
			ignore(strconv.Itoa(year)),
			tgbotapi.NewInlineKeyboardButtonData("»", Callback{Action: ActionYear, Year: year + 1}.Data()),
		),
	}
	for q := 0; q < 4; q++ {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
		for i := 1; i <= 3; i++ {
			m := time.Month(q*3 + i)
			cb := Callback{Action: ActionMonth, Year: year, Month: int(m)}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(m.String()[:3], cb.Data()))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Render draws the grid a navigation callback asks for.
func Render(cb Callback) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch cb.Action {
	case ActionMonth:
		return Month(cb.Year, time.Month(cb.Month)), true
	case ActionYear:
		return Year(cb.Year), true
	}
	return tgbotapi.InlineKeyboardMarkup{}, false
}
