package models

import "strings"

// Command identifies a bot command and, for searches, the variant it starts.
type Command string

const (
	CommandStart   Command = "start"
	CommandCancel  Command = "cancel_search"
	CommandHelp    Command = "help"
	CommandBudget  Command = "low_price"
	CommandLuxury  Command = "high_price"
	CommandCustom  Command = "best_deal"
	CommandHistory Command = "history"
)

// Upstream sort keys.
const (
	SortPriceLowToHigh = "PRICE_LOW_TO_HIGH"
	SortDistance       = "DISTANCE"
)

type CommandInfo struct {
	Command     Command
	Shortcut    string
	Description string
}

// Commands is the command menu in display order.
var Commands = []CommandInfo{
	{CommandStart, "Start Bot", "Start the bot and show the search menu"},
	{CommandCancel, "Cancel Current Search", "Cancel the search in progress"},
	{CommandHelp, "Help", "Show available commands"},
	{CommandBudget, "Top Budget Hotels", "Cheapest hotels in the city"},
	{CommandLuxury, "Top Luxury Hotels", "Most expensive hotels in the city"},
	{CommandCustom, "Custom Hotel Search", "Hotels by price range and distance from the city center"},
	{CommandHistory, "History search", "Show your latest hotel searches"},
}

// ParseCommand resolves "/cmd", "/cmd@botname" or the exact text of a menu
// shortcut. Bare command names are ordinary input.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if name, ok := strings.CutPrefix(text, "/"); ok {
		if at := strings.IndexByte(name, '@'); at >= 0 {
			name = name[:at]
		}
		if sp := strings.IndexAny(name, " \t\n"); sp >= 0 {
			name = name[:sp]
		}
		return LookupCommand(name)
	}
	for _, c := range Commands {
		if c.Shortcut == text {
			return c.Command, true
		}
	}
	return "", false
}

// LookupCommand resolves a bare command name such as callback data.
func LookupCommand(name string) (Command, bool) {
	for _, c := range Commands {
		if string(c.Command) == name {
			return c.Command, true
		}
	}
	return "", false
}

func (c Command) Info() (CommandInfo, bool) {
	for _, info := range Commands {
		if info.Command == c {
			return info, true
		}
	}
	return CommandInfo{}, false
}

func (c Command) Shortcut() string {
	info, ok := c.Info()
	if !ok {
		return string(c)
	}
	return info.Shortcut
}

// IsSearch reports whether the command starts a hotel search.
func (c Command) IsSearch() bool {
	return c == CommandBudget || c == CommandLuxury || c == CommandCustom
}

func (c Command) SortKey() string {
	if c == CommandCustom {
		return SortDistance
	}
	return SortPriceLowToHigh
}
