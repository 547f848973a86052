package conversation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hotel-bot/internal/calendar"
	"hotel-bot/internal/db"
	"hotel-bot/internal/history"
	"hotel-bot/internal/models"
	"hotel-bot/internal/state"
	"hotel-bot/pkg/logger"
)

type sent struct {
	chatID int64
	reply  Reply
}

type recordingSender struct {
	mu      sync.Mutex
	replies []sent
}

func (r *recordingSender) Send(_ context.Context, chatID int64, reply Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, sent{chatID: chatID, reply: reply})
	return nil
}

func (r *recordingSender) all() []Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Reply, 0, len(r.replies))
	for _, s := range r.replies {
		out = append(out, s.reply)
	}
	return out
}

func (r *recordingSender) last() Reply {
	all := r.all()
	if len(all) == 0 {
		return Reply{}
	}
	return all[len(all)-1]
}

func (r *recordingSender) contains(text string) bool {
	for _, reply := range r.all() {
		if strings.Contains(reply.Text, text) {
			return true
		}
	}
	return false
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = nil
}

type fakeGateway struct {
	mu      sync.Mutex
	cities  map[string][]models.CityCandidate
	hotels  []models.HotelCandidate
	got     *models.SearchSession
	photos  int
	block   chan struct{}
	entered chan struct{}

	cityBlock   chan struct{}
	cityEntered chan struct{}
}

func (g *fakeGateway) FindCity(ctx context.Context, query string) []models.CityCandidate {
	if g.cityEntered != nil {
		close(g.cityEntered)
	}
	if g.cityBlock != nil {
		select {
		case <-g.cityBlock:
		case <-ctx.Done():
			return nil
		}
	}
	return g.cities[query]
}

func (g *fakeGateway) FindHotels(ctx context.Context, s *models.SearchSession) []models.HotelCandidate {
	g.mu.Lock()
	g.got = s.Clone()
	block, entered := g.block, g.entered
	g.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil
		}
	}
	return g.hotels
}

func (g *fakeGateway) EnrichAll(_ context.Context, hotels []models.HotelCandidate, photos int) []models.HotelDetail {
	g.mu.Lock()
	g.photos = photos
	g.mu.Unlock()

	out := make([]models.HotelDetail, 0, len(hotels))
	for _, h := range hotels {
		d := models.HotelDetail{HotelCandidate: h, Address: "1 Ocean Dr", Rating: "4.5", SiteURL: "https://hotels.example/" + h.ID}
		for i := 0; i < photos; i++ {
			d.Photos = append(d.Photos, fmt.Sprintf("https://img.example/%s/%d.jpg", h.ID, i))
		}
		out = append(out, d)
	}
	return out
}

func (g *fakeGateway) searched() *models.SearchSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.got
}

type EngineSuite struct {
	suite.Suite
	ctx     context.Context
	key     models.SessionKey
	db      *db.SQLiteDB
	store   *state.MemoryStore
	gateway *fakeGateway
	sender  *recordingSender
	engine  *Engine
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.key = models.SessionKey{ChatID: 100, UserID: 7}

	var err error
	s.db, err = db.NewSQLiteDB(filepath.Join(s.T().TempDir(), "history.db"))
	s.Require().NoError(err)
	s.Require().NoError(s.db.Migrate(s.ctx))

	s.store = state.NewMemoryStore(time.Hour, logger.NewNop())
	s.gateway = &fakeGateway{
		cities: map[string][]models.CityCandidate{
			"miami": {
				{RegionID: "2297", FullName: "Miami, Florida, United States"},
				{RegionID: "6046", FullName: "Miami Beach, Florida, United States"},
			},
			"paris": {
				{RegionID: "2734", FullName: "Paris, France"},
				{RegionID: "9911", FullName: "Paris, Texas, United States"},
			},
		},
		hotels: []models.HotelCandidate{
			{ID: "h1", Name: "Sea View", PricePerDay: "99.00 USD", PricePerStay: "495.00 USD including all taxes", DistanceText: "1.2 mi"},
			{ID: "h2", Name: "Palm Inn", PricePerDay: "120.00 USD", PricePerStay: "600.00 USD including all taxes", DistanceText: "3.4 mi"},
		},
	}
	s.sender = &recordingSender{}
	s.engine = NewEngine(Deps{
		Store:   s.store,
		Gateway: s.gateway,
		History: history.NewRecorder(s.db, logger.NewNop()),
		Sender:  s.sender,
		Logger:  logger.NewNop(),
	}, Options{
		Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	})
}

func (s *EngineSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.NoError(s.engine.Shutdown(ctx))
	s.db.Close()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) text(text string) {
	s.engine.HandleMessage(s.ctx, Message{Key: s.key, FirstName: "Alex", Text: text})
}

func (s *EngineSuite) press(data string) {
	s.engine.HandleCallback(s.ctx, Callback{Key: s.key, FirstName: "Alex", Data: data})
}

func (s *EngineSuite) session() *models.SearchSession {
	got, err := s.store.Get(s.ctx, s.key)
	s.Require().NoError(err)
	return got
}

func (s *EngineSuite) day(y, m, d int) string {
	return calendar.Day(models.Date{Day: d, Month: m, Year: y}).Data()
}

// fillUntilPhotos walks a budget search up to the photo question.
func (s *EngineSuite) fillUntilPhotos(cmd string) {
	s.text(cmd)
	s.text("Miami")
	s.press(CityData("2297"))
	s.press(s.day(2098, 1, 5))
	s.text("10.01.2098")
	s.text("2")
	s.text("2")
}

func (s *EngineSuite) TestBudgetSearchEndToEnd() {
	s.text("/low_price")
	s.Equal("Selected Top Budget Hotels", s.sender.all()[0].Text)
	s.Equal(Reply{Text: msgTypeCity, Markup: MarkupCancel}, s.sender.last())
	s.Equal(models.StateInputCity, s.session().State)

	s.text("Miami")
	s.Equal(MarkupCities, s.sender.last().Markup)
	s.Len(s.sender.last().Cities, 2)
	s.Equal(models.StateConfirmCity, s.session().State)

	s.press(CityData("2297"))
	s.Equal(MarkupCalendar, s.sender.last().Markup)
	s.Equal(models.Date{Day: 10, Month: 5, Year: 2024}, s.sender.last().Calendar)
	s.Equal("2297", s.session().City.RegionID)

	s.text("01.01.2099")
	s.Equal(models.StateCheckOut, s.session().State)
	s.Equal(models.Date{Day: 2, Month: 1, Year: 2099}, s.sender.last().Calendar)

	s.text("01.01.2098")
	s.Equal(fmt.Sprintf(msgCheckOutBefore, models.Date{Day: 1, Month: 1, Year: 2099}), s.sender.last().Text)
	s.Equal(models.StateCheckOut, s.session().State)
	s.True(s.session().Stay.CheckOut.IsZero())

	s.text("02.01.2099")
	s.Equal(msgTravellers, s.sender.last().Text)

	s.text("2")
	s.text("2")
	s.Equal(msgPhotosDisplay, s.sender.last().Text)

	s.text("no")
	s.engine.Wait()

	s.Nil(s.session())
	got := s.gateway.searched()
	s.Require().NotNil(got)
	s.Equal(models.CommandBudget, got.Command)
	s.Equal(2, got.Adults)
	s.Equal(models.Date{Day: 2, Month: 1, Year: 2099}, got.Stay.CheckOut)
	s.True(s.sender.contains("Criteria: Top Budget Hotels"))
	s.True(s.sender.contains("Name: Sea View"))
	s.True(s.sender.contains("Name: Palm Inn"))
	s.Equal(MarkupRemove, s.sender.last().Markup)

	records, err := s.db.LatestHistory(s.ctx, s.key.UserID, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("Top Budget Hotels", records[0].Command)
	s.True(records[0].Completed())
	s.Contains(records[0].UserRequest, "City: Miami, Florida, United States")
	s.Contains(records[0].BotResponse, "Sea View")
}

func (s *EngineSuite) TestInvalidInputKeepsSession() {
	s.text("/high_price")
	s.text("Mi4mi")
	s.Equal(msgCityLetters, s.sender.last().Text)
	s.Equal(models.StateInputCity, s.session().State)

	s.text("Atlantis")
	s.Equal(fmt.Sprintf(msgCityNotFound, "atlantis"), s.sender.last().Text)

	s.text("Miami")
	s.text("Miami")
	s.Equal(msgSelectOption, s.sender.last().Text)
	s.press(CityData("9999"))
	s.Equal(models.StateConfirmCity, s.session().State)

	s.press(CityData("6046"))
	s.text("01.01.2020")
	s.Equal(MarkupCalendar, s.sender.last().Markup)
	s.True(s.session().Stay.CheckIn.IsZero())

	s.text("32.01.2098")
	s.Equal(models.StateCheckIn, s.session().State)
	s.text("tomorrow")
	s.Equal(fmt.Sprintf(msgDateFormat, models.Date{Day: 10, Month: 5, Year: 2024}), s.sender.last().Text)

	s.press("cal:n")
	s.Equal(msgPressDigit, s.sender.last().Text)

	s.text("11.05.2024")
	s.text("12.05.2024")
	before := s.session()

	s.text("abc")
	s.Equal(travellersRejections.notNumber, s.sender.last().Text)
	s.text("0")
	s.Equal(travellersRejections.tooLow, s.sender.last().Text)
	s.text("15")
	s.Equal(travellersRejections.tooHigh, s.sender.last().Text)
	s.Equal(before, s.session())

	s.text("1")
	s.text("11")
	s.Equal(countRejections("hotels", 10, 3).tooHigh, s.sender.last().Text)
	s.text("1")
	s.text("maybe")
	s.Equal(msgYesNo, s.sender.last().Text)
	s.Equal(models.StatePhotosDisplay, s.session().State)
}

func (s *EngineSuite) TestAnotherCityGoesBack() {
	s.text("/low_price")
	s.text("Miami")
	s.press(CityOtherData)
	s.Equal(models.StateInputCity, s.session().State)
	s.Empty(s.session().City.Candidates)
	s.Equal(msgTypeCity, s.sender.last().Text)
}

func (s *EngineSuite) TestOutdatedCityButtonReprompts() {
	s.text("/low_price")
	s.text("Miami")
	s.press(CityOtherData)
	s.text("Paris")
	s.Equal(models.StateConfirmCity, s.session().State)

	// Miami Beach from the first keyboard
	s.press(CityData("6046"))
	s.Equal(Reply{Text: msgSelectOption, Markup: MarkupCities, Cities: s.gateway.cities["paris"]}, s.sender.last())
	s.Equal(models.StateConfirmCity, s.session().State)
	s.Empty(s.session().City.RegionID)

	s.press(CityData("9911"))
	s.Equal(models.StateCheckIn, s.session().State)
	s.Equal("Paris, Texas, United States", s.session().City.FullName)
}

func (s *EngineSuite) TestCustomSearchWithPhotos() {
	s.text("Custom Hotel Search")
	s.text("miami")
	s.press(CityData("6046"))
	s.Equal(msgMinPrice, s.sender.last().Text)

	s.text("100")
	s.text("50")
	s.Equal(maxPriceRejections(100).tooLow, s.sender.last().Text)
	s.text("300")
	s.text("201")
	s.Equal(minDistanceRejections.tooHigh, s.sender.last().Text)
	s.text("0")
	s.text("5")
	s.Equal(models.StateCheckIn, s.session().State)

	s.text("10.05.2024")
	s.text("11.05.2024")
	s.text("1")
	s.text("2")
	s.text("yes")
	s.Equal(fmt.Sprintf(msgPhotosAmount, 5), s.sender.last().Text)
	s.text("6")
	s.Equal(countRejections("photos", 5, 2).tooHigh, s.sender.last().Text)
	s.text("2")
	s.engine.Wait()

	got := s.gateway.searched()
	s.Require().NotNil(got)
	s.Equal(&models.CustomCriteria{MinPrice: 100, MaxPrice: 300, MinDistance: 0, MaxDistance: 5}, got.Custom)
	s.Equal("6046", got.City.RegionID)
	s.Equal(2, s.gateway.photos)

	var withPhotos int
	for _, r := range s.sender.all() {
		if len(r.Photos) > 0 {
			s.Len(r.Photos, 2)
			withPhotos++
		}
	}
	s.Equal(2, withPhotos)
	s.True(s.sender.contains("Price range: 100 - 300 per day in USD"))
	s.Nil(s.session())
}

func (s *EngineSuite) TestNoHotelsFound() {
	s.gateway.hotels = nil
	s.fillUntilPhotos("/low_price")
	s.text("no")
	s.engine.Wait()

	s.Equal(MsgNoHotels, s.sender.last().Text)
	records, err := s.db.LatestHistory(s.ctx, s.key.UserID, 1)
	s.Require().NoError(err)
	units, err := history.DecodeResponse(records[0].BotResponse)
	s.Require().NoError(err)
	s.Equal([]models.DisplayUnit{{Caption: MsgNoHotels}}, units)
}

func (s *EngineSuite) TestWaitWhileSearching() {
	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{})
	s.fillUntilPhotos("/low_price")
	s.text("no")
	<-s.gateway.entered

	s.True(s.session().CommenceSearch)
	s.text("hello")
	s.Equal(Reply{Text: msgWait, Markup: MarkupCancel}, s.sender.last())

	close(s.gateway.block)
	s.engine.Wait()
	s.True(s.sender.contains("Name: Sea View"))
	s.Nil(s.session())
}

func (s *EngineSuite) TestCancelAbortsSearch() {
	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{})
	s.fillUntilPhotos("/low_price")
	s.text("no")
	<-s.gateway.entered

	s.text("Cancel Current Search")
	s.Equal(Reply{Text: msgCanceled, Markup: MarkupRemove}, s.sender.last())
	s.engine.Wait()

	s.Nil(s.session())
	s.False(s.sender.contains("Name: Sea View"))
	s.Equal(msgCanceled, s.sender.last().Text)

	records, err := s.db.LatestHistory(s.ctx, s.key.UserID, 1)
	s.Require().NoError(err)
	s.False(records[0].Completed())
}

func (s *EngineSuite) TestNewCommandReplacesSearch() {
	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{})
	s.fillUntilPhotos("/low_price")
	s.text("no")
	<-s.gateway.entered

	s.text("/high_price")
	s.engine.Wait()

	got := s.session()
	s.Require().NotNil(got)
	s.Equal(models.CommandLuxury, got.Command)
	s.Equal(models.StateInputCity, got.State)
	s.False(s.sender.contains("Name: Sea View"))
}

func (s *EngineSuite) TestStaleSearchSessionIsCleared() {
	stale := models.NewSearchSession(models.CommandBudget, 1)
	stale.State = models.StateSearching
	stale.CommenceSearch = true
	s.Require().NoError(s.store.Put(s.ctx, s.key, stale))

	s.text("hello")
	s.Equal(msgInterrupted, s.sender.last().Text)
	s.Nil(s.session())
}

func (s *EngineSuite) TestIdleSession() {
	s.text("hello")
	s.Equal(msgUnknown, s.sender.last().Text)

	s.press(CityData("2297"))
	s.Len(s.sender.all(), 1)
}

func (s *EngineSuite) TestStartAndHelp() {
	s.text("/start")
	s.Equal(Reply{Text: welcomeText("Alex"), Markup: MarkupStartMenu}, s.sender.last())

	s.press(CommandData(models.CommandHelp))
	s.Contains(s.sender.last().Text, "/low_price - Top Budget Hotels")

	s.press(CommandData(models.CommandBudget))
	s.Equal(msgTypeCity, s.sender.last().Text)
}

func (s *EngineSuite) TestHistoryWithoutRecords() {
	s.text("/history")
	s.Equal(msgNoHistory, s.sender.last().Text)
	s.Nil(s.session())
}

func (s *EngineSuite) TestHistoryReplay() {
	s.fillUntilPhotos("/low_price")
	s.text("no")
	s.engine.Wait()
	s.text("/high_price")
	s.sender.reset()

	s.text("History search")
	s.Equal(fmt.Sprintf(msgRecordsNumber, 10), s.sender.last().Text)
	s.Equal(models.StateRecordsNumber, s.session().State)

	s.text("11")
	s.Equal(countRejections("records", 10, 3).tooHigh, s.sender.last().Text)

	s.text("5")
	s.Nil(s.session())
	s.True(s.sender.contains(fmt.Sprintf(msgFewerRecords, 2)))
	s.True(s.sender.contains(fmt.Sprintf(msgRecordHeader, 1)))
	s.True(s.sender.contains(fmt.Sprintf(msgRecordHeader, 2)))
	// the abandoned luxury search is shown with its placeholder request
	s.True(s.sender.contains("\n" + models.RequestCanceled))
	s.True(s.sender.contains("Name: Palm Inn"))
	s.Equal(fmt.Sprintf(msgHistoryShown, 2), s.sender.last().Text)
}

func (s *EngineSuite) TestSessionsAreIsolated() {
	other := models.SessionKey{ChatID: 100, UserID: 8}
	s.text("/low_price")
	s.engine.HandleMessage(s.ctx, Message{Key: other, Text: "/best_deal"})
	s.text("Miami")

	got, err := s.store.Get(s.ctx, other)
	s.Require().NoError(err)
	s.Equal(models.StateInputCity, got.State)
	s.Equal(models.StateConfirmCity, s.session().State)
}

func (s *EngineSuite) TestSlowCityLookupDoesNotStallOtherSessions() {
	s.gateway.cityBlock = make(chan struct{})
	s.gateway.cityEntered = make(chan struct{})
	s.text("/low_price")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.text("Miami")
	}()
	<-s.gateway.cityEntered

	other := models.SessionKey{ChatID: 200, UserID: 9}
	s.engine.HandleMessage(s.ctx, Message{Key: other, FirstName: "Sam", Text: "/help"})
	s.Contains(s.sender.last().Text, "/low_price - Top Budget Hotels")

	close(s.gateway.cityBlock)
	<-done
	s.Equal(models.StateConfirmCity, s.session().State)

	s.engine.locksMu.Lock()
	defer s.engine.locksMu.Unlock()
	s.Empty(s.engine.keyLocks)
}

func (s *EngineSuite) TestTypedCommandNameIsStepInput() {
	s.text("/low_price")
	s.text("help")
	s.Equal(fmt.Sprintf(msgCityNotFound, "help"), s.sender.last().Text)
	s.Equal(models.StateInputCity, s.session().State)

	s.text("history")
	s.Equal(models.StateInputCity, s.session().State)
	s.Equal(models.CommandBudget, s.session().Command)
}

func (s *EngineSuite) TestShutdownAbortsSearch() {
	s.gateway.block = make(chan struct{})
	s.gateway.entered = make(chan struct{})
	s.fillUntilPhotos("/low_price")
	s.text("no")
	<-s.gateway.entered

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.engine.Shutdown(ctx))

	s.Nil(s.session())
	s.False(s.sender.contains("Name: Sea View"))
}
