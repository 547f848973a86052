package conversation

import (
	"fmt"
	"strings"

	"hotel-bot/internal/models"
)

const BotName = "Hotel Data Provider"

const (
	msgWelcome = "Welcome, %s!\nI'm %s bot.\nI can help you to find a suitable hotel."
	msgHelpTop = "Available commands:\n"

	msgSelected    = "Selected %s"
	msgCanceled    = "Your search state was canceled."
	msgUnknown     = "I don't understand you.\nUse /start to begin a search or /help to see all commands."
	msgFailure     = "Something went wrong, kindly start a new search."
	msgInterrupted = "Your previous search was interrupted.\nKindly start a new search."

	msgTypeCity     = "Type city name:"
	msgCityLetters  = "Enter city name using ENGLISH letters only!\n(ex. Miami)"
	msgCityNotFound = "Sorry, there is no city '%s' in our database.\nTry to enter proper city name or use another place."
	msgYouMean      = "You mean:"
	msgSelectOption = "Kindly select one of the below options!"
	BtnAnotherCity  = "Type another city:"

	msgMinPrice    = "Type minimum hotel price per day in USD:\n(ex. min: 1)\n*USD - United States dollar."
	msgMaxPrice    = "Type maximum hotel price per day in USD:\n(ex. max: 1000000)"
	msgMinDistance = "Type minimum hotel distance in miles from city center.\n(ex. min: 0)"
	msgMaxDistance = "Type maximum hotel distance in miles from city center.\n(ex. max: 300)"

	msgCheckIn        = "Select check in date:\n(ex. %s)"
	msgCheckOut       = "Select check out date:\n(ex. %s)"
	msgDateFormat     = "Use format to enter date dd.mm.yyyy\n(ex. %s)"
	msgUseCalendar    = "%s.\nKindly use calendar."
	msgPressDigit     = "Press digit on calendar!\n(ex. 1, 2.. 31)"
	msgCheckInPast    = "Select check in date starting %s:"
	msgCheckOutBefore = "Select check out date after check in date %s"

	msgTravellers    = "Type number of travellers: \n(ex. min: 1, max: 14)"
	msgHotelsAmount  = "How many hotels to display?\n(ex. min: 1, max: %d)"
	msgPhotosDisplay = "Do you need photo of hotels?\nType 'yes' or 'no'."
	msgPhotosAmount  = "How many photos to display (max %d)?"
	msgYesNo         = "Type 'yes' or 'no'.\n(ex. yes)"

	msgWait      = "Kindly wait, searching for your suitable hotels.\n*press cancel button if your want to break the search."
	msgSearching = "Searching suitable hotels...\nKindly wait!"
	MsgNoHotels  = "There is no available hotels as per your search settings.\nTry again with another search configuration."

	msgRecordsNumber    = "Select number of records 1 to %d:"
	msgNoHistory        = "History records are not found!\nPerform at least 1 hotel search!"
	msgSearchingHistory = "Searching history records!\nkindly wait!"
	msgFewerRecords     = "There are %d records in hotel search history!"
	msgRecordHeader     = "*****Record # %d******"
	msgRecordCreated    = "Created: %s\n%s"
	msgRecordCanceled   = "Bot response: searched was canceled by user."
	msgRecordBroken     = "Bot response: stored results could not be restored."
	msgHistoryShown     = "Shown %d of your latest searches."
)

// rejections are the corrective texts of one numeric field.
type rejections struct {
	notNumber string
	tooLow    string
	tooHigh   string
}

var (
	minPriceRejections = rejections{
		notNumber: "Use digits only to set min price!\n(ex. 50)",
		tooLow:    "Minimum price per day is 1 USD!\nKindly type higher price.",
		tooHigh:   "Maximum price per day is 100000 USD!\nKindly type lower price.",
	}
	minDistanceRejections = rejections{
		notNumber: "Use digits only to set min distance!\n(ex. 0)",
		tooLow:    "Minimum distance is 0 MILE!\nKindly type higher distance.",
		tooHigh:   "Min distance can't be more than 200 MILE!\nKindly type lower distance.",
	}
	travellersRejections = rejections{
		notNumber: "Use digits only to set number of travellers!\n(ex. 2)",
		tooLow:    "Minimum number of travellers is 1!\nKindly type higher number.",
		tooHigh:   "Maximum number of travellers is 14!\nKindly type lower number.",
	}
)

func maxPriceRejections(min int) rejections {
	return rejections{
		notNumber: "Use digits only to set max price!!\n(ex. 1000)",
		tooLow:    fmt.Sprintf("Max price must be higher then min price: %d USD.", min),
		tooHigh:   "Maximum price per day is 1000000 USD!\nKindly type lower price.",
	}
}

func maxDistanceRejections(min int) rejections {
	return rejections{
		notNumber: "Use digits only to set max distance!\n(ex. 10)",
		tooLow:    fmt.Sprintf("Max distance must be greater then min distance: %d!", min),
		tooHigh:   "Maximum distance is 300 MILE!\nKindly type lower distance.",
	}
}

func countRejections(what string, max int, example int) rejections {
	return rejections{
		notNumber: fmt.Sprintf("Use digits only to set number of %s!\n(ex. %d)", what, example),
		tooLow:    fmt.Sprintf("Minimum number of %s to display is 1!\nKindly type higher number.", what),
		tooHigh:   fmt.Sprintf("Maximum number of %s to display is %d!\nKindly type lower number.", what, max),
	}
}

func welcomeText(name string) string {
	if name == "" {
		name = "traveller"
	}
	return fmt.Sprintf(msgWelcome, name, BotName)
}

func helpText() string {
	var b strings.Builder
	b.WriteString(msgHelpTop)
	for _, c := range models.Commands {
		fmt.Fprintf(&b, "/%s - %s - %s\n", c.Command, c.Shortcut, c.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
