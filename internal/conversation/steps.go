package conversation

import (
	"context"
	"errors"
	"fmt"

	"hotel-bot/internal/models"
	"hotel-bot/internal/validate"
)

// stepFunc validates input for the session's current state. On success it
// fills the session copy and returns the flow event to fire. On rejection
// it has already replied and returns "".
type stepFunc func(ctx context.Context, in input, s *models.SearchSession) string

func (e *Engine) stepTable() map[models.State]stepFunc {
	return map[models.State]stepFunc{
		models.StateInputCity:     e.inputCity,
		models.StateConfirmCity:   e.confirmCity,
		models.StateMinPrice:      e.minPrice,
		models.StateMaxPrice:      e.maxPrice,
		models.StateMinDistance:   e.minDistance,
		models.StateMaxDistance:   e.maxDistance,
		models.StateCheckIn:       e.checkIn,
		models.StateCheckOut:      e.checkOut,
		models.StateTravellers:    e.travellers,
		models.StateHotelsAmount:  e.hotelsAmount,
		models.StatePhotosDisplay: e.photosDisplay,
		models.StatePhotosAmount:  e.photosAmount,
		models.StateRecordsNumber: e.recordsNumber,
	}
}

// prompt asks for the input of the session's current state.
func (e *Engine) prompt(ctx context.Context, chatID int64, s *models.SearchSession) {
	var r Reply
	switch s.State {
	case models.StateInputCity:
		r = Reply{Text: msgTypeCity, Markup: MarkupCancel}
	case models.StateConfirmCity:
		r = Reply{Text: msgYouMean, Markup: MarkupCities, Cities: s.City.Candidates}
	case models.StateMinPrice:
		r = Reply{Text: msgMinPrice}
	case models.StateMaxPrice:
		r = Reply{Text: msgMaxPrice}
	case models.StateMinDistance:
		r = Reply{Text: msgMinDistance}
	case models.StateMaxDistance:
		r = Reply{Text: msgMaxDistance}
	case models.StateCheckIn:
		today := e.today()
		r = Reply{Text: fmt.Sprintf(msgCheckIn, today), Markup: MarkupCalendar, Calendar: today}
	case models.StateCheckOut:
		next := s.Stay.CheckIn.AddDays(1)
		r = Reply{Text: fmt.Sprintf(msgCheckOut, next), Markup: MarkupCalendar, Calendar: next}
	case models.StateTravellers:
		r = Reply{Text: msgTravellers}
	case models.StateHotelsAmount:
		r = Reply{Text: fmt.Sprintf(msgHotelsAmount, e.opts.MaxHotels)}
	case models.StatePhotosDisplay:
		r = Reply{Text: msgPhotosDisplay}
	case models.StatePhotosAmount:
		r = Reply{Text: fmt.Sprintf(msgPhotosAmount, e.opts.MaxPhotos)}
	case models.StateRecordsNumber:
		r = Reply{Text: fmt.Sprintf(msgRecordsNumber, e.opts.MaxHistory), Markup: MarkupCancel}
	default:
		return
	}
	e.send(ctx, chatID, r)
}

// textOnly drops stale button presses in states that expect typed input.
func (e *Engine) textOnly(in input, s *models.SearchSession) bool {
	if in.callback {
		e.logger.Debugw("Ignoring button in text state", "session", in.key.String(), "state", s.State, "data", in.data)
		return false
	}
	return true
}

func (e *Engine) readNumber(ctx context.Context, in input, min, max int, rej rejections) (int, bool) {
	n, err := validate.ParseIntInRange(in.text, min, max)
	if err == nil {
		return n, true
	}
	msg := rej.notNumber
	var re *validate.RangeError
	if errors.As(err, &re) {
		switch re.Reason {
		case validate.TooLow:
			msg = rej.tooLow
		case validate.TooHigh:
			msg = rej.tooHigh
		}
	}
	e.logger.Debugw("Rejected number", "session", in.key.String(), "input", in.text, "reason", err)
	e.send(ctx, in.key.ChatID, Reply{Text: msg})
	return 0, false
}

// readDate accepts a typed dd.mm.yyyy date or a calendar day press.
func (e *Engine) readDate(ctx context.Context, in input, shown models.Date) (models.Date, bool) {
	if in.callback {
		d, ok := validate.DateFromCalendar(in.data)
		if !ok {
			e.send(ctx, in.key.ChatID, Reply{Text: msgPressDigit})
		}
		return d, ok
	}
	d, err := validate.ParseDate(in.text)
	if err == nil {
		return d, true
	}
	if errors.Is(err, validate.ErrDateFormat) {
		e.send(ctx, in.key.ChatID, Reply{Text: fmt.Sprintf(msgDateFormat, e.today())})
	} else {
		e.send(ctx, in.key.ChatID, Reply{
			Text:     fmt.Sprintf(msgUseCalendar, err),
			Markup:   MarkupCalendar,
			Calendar: shown,
		})
	}
	return models.Date{}, false
}

func (e *Engine) inputCity(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	query, ok := validate.CityName(in.text)
	if !ok {
		e.send(ctx, in.key.ChatID, Reply{Text: msgCityLetters})
		return ""
	}
	cities := e.gateway.FindCity(ctx, query)
	if len(cities) == 0 {
		e.send(ctx, in.key.ChatID, Reply{Text: fmt.Sprintf(msgCityNotFound, query)})
		return ""
	}
	s.City = models.CitySelection{Query: query, Candidates: cities}
	return eventNext
}

func (e *Engine) confirmCity(ctx context.Context, in input, s *models.SearchSession) string {
	reprompt := Reply{Text: msgSelectOption, Markup: MarkupCities, Cities: s.City.Candidates}
	if !in.callback {
		e.send(ctx, in.key.ChatID, reprompt)
		return ""
	}
	if in.data == CityOtherData {
		s.City = models.CitySelection{}
		return eventBack
	}
	id, ok := parseCityData(in.data)
	if ok {
		for _, c := range s.City.Candidates {
			if c.RegionID == id {
				s.City.RegionID = c.RegionID
				s.City.FullName = c.FullName
				return eventNext
			}
		}
	}
	e.send(ctx, in.key.ChatID, reprompt)
	return ""
}

func (e *Engine) minPrice(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	n, ok := e.readNumber(ctx, in, 1, 100000, minPriceRejections)
	if !ok {
		return ""
	}
	s.Custom.MinPrice = n
	return eventNext
}

func (e *Engine) maxPrice(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	min := s.Custom.MinPrice
	n, ok := e.readNumber(ctx, in, min+1, models.DefaultMaxPrice, maxPriceRejections(min))
	if !ok {
		return ""
	}
	s.Custom.MaxPrice = n
	return eventNext
}

func (e *Engine) minDistance(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	n, ok := e.readNumber(ctx, in, 0, 200, minDistanceRejections)
	if !ok {
		return ""
	}
	s.Custom.MinDistance = n
	return eventNext
}

func (e *Engine) maxDistance(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	min := s.Custom.MinDistance
	n, ok := e.readNumber(ctx, in, min+1, 300, maxDistanceRejections(min))
	if !ok {
		return ""
	}
	s.Custom.MaxDistance = n
	return eventNext
}

func (e *Engine) checkIn(ctx context.Context, in input, s *models.SearchSession) string {
	today := e.today()
	d, ok := e.readDate(ctx, in, today)
	if !ok {
		return ""
	}
	if !validate.IsFutureOrToday(d, today) {
		e.send(ctx, in.key.ChatID, Reply{
			Text:     fmt.Sprintf(msgCheckInPast, today),
			Markup:   MarkupCalendar,
			Calendar: today,
		})
		return ""
	}
	s.Stay.CheckIn = d
	return eventNext
}

func (e *Engine) checkOut(ctx context.Context, in input, s *models.SearchSession) string {
	earliest := s.Stay.CheckIn.AddDays(1)
	d, ok := e.readDate(ctx, in, earliest)
	if !ok {
		return ""
	}
	if !validate.IsAfter(d, s.Stay.CheckIn) {
		e.send(ctx, in.key.ChatID, Reply{
			Text:     fmt.Sprintf(msgCheckOutBefore, s.Stay.CheckIn),
			Markup:   MarkupCalendar,
			Calendar: earliest,
		})
		return ""
	}
	s.Stay.CheckOut = d
	return eventNext
}

func (e *Engine) travellers(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	n, ok := e.readNumber(ctx, in, 1, 14, travellersRejections)
	if !ok {
		return ""
	}
	s.Adults = n
	return eventNext
}

func (e *Engine) hotelsAmount(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	n, ok := e.readNumber(ctx, in, 1, e.opts.MaxHotels, countRejections("hotels", e.opts.MaxHotels, 3))
	if !ok {
		return ""
	}
	s.Output.HotelsAmount = n
	return eventNext
}

func (e *Engine) photosDisplay(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	yes, ok := validate.YesNo(in.text)
	if !ok {
		e.send(ctx, in.key.ChatID, Reply{Text: msgYesNo})
		return ""
	}
	s.Output.ShowPhotos = yes
	if !yes {
		s.Output.PhotosAmount = 0
		return eventSearch
	}
	return eventNext
}

func (e *Engine) photosAmount(ctx context.Context, in input, s *models.SearchSession) string {
	if !e.textOnly(in, s) {
		return ""
	}
	n, ok := e.readNumber(ctx, in, 1, e.opts.MaxPhotos, countRejections("photos", e.opts.MaxPhotos, 2))
	if !ok {
		return ""
	}
	s.Output.PhotosAmount = n
	return eventSearch
}
