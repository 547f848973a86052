package conversation

import (
	"context"
	"strings"

	"hotel-bot/internal/models"
)

// Markup selects the keyboard attached to a reply. The transport decides how
// each kind is drawn.
type Markup int

const (
	MarkupNone      Markup = iota
	MarkupCancel           // reply keyboard with the cancel shortcut
	MarkupRemove           // drop any reply keyboard
	MarkupStartMenu        // inline menu of search commands
	MarkupCities           // inline list of city candidates
	MarkupCalendar         // inline month grid
)

// Reply is one outbound chat message. When Photos is non-empty the message
// is a media group and Text is the caption of the first photo.
type Reply struct {
	Text     string
	Markup   Markup
	Cities   []models.CityCandidate
	Calendar models.Date
	Photos   []string
}

type Sender interface {
	Send(ctx context.Context, chatID int64, r Reply) error
}

// Inline button payloads owned by the conversation.
const (
	cityPrefix    = "city:"
	CityOtherData = "city:other"
	commandPrefix = "cmd:"
)

// CityData keys a city button by region id so a press on an outdated
// keyboard cannot pick a different candidate.
func CityData(regionID string) string {
	return cityPrefix + regionID
}

func CommandData(c models.Command) string {
	return commandPrefix + string(c)
}

func parseCityData(data string) (string, bool) {
	if data == CityOtherData {
		return "", false
	}
	id, ok := strings.CutPrefix(data, cityPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// MenuCommands are offered by the start menu.
func MenuCommands() []models.CommandInfo {
	out := make([]models.CommandInfo, 0, len(models.Commands))
	for _, c := range models.Commands {
		if c.Command == models.CommandStart || c.Command == models.CommandCancel {
			continue
		}
		out = append(out, c)
	}
	return out
}
