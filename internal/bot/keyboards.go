package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hotel-bot/internal/calendar"
	"hotel-bot/internal/conversation"
	"hotel-bot/internal/models"
)

// markup draws the keyboard a reply asks for, or nil.
func markup(r conversation.Reply) interface{} {
	switch r.Markup {
	case conversation.MarkupCancel:
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(models.CommandCancel.Shortcut()),
			),
		)
		kb.ResizeKeyboard = true
		return kb
	case conversation.MarkupRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	case conversation.MarkupStartMenu:
		return startMenu()
	case conversation.MarkupCities:
		return cityButtons(r.Cities)
	case conversation.MarkupCalendar:
		return calendar.Month(r.Calendar.Year, time.Month(r.Calendar.Month))
	}
	return nil
}

func startMenu() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range conversation.MenuCommands() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Shortcut, conversation.CommandData(c.Command)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cityButtons(cities []models.CityCandidate) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cities)+1)
	for _, c := range cities {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.FullName, conversation.CityData(c.RegionID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(conversation.BtnAnotherCity, conversation.CityOtherData),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
