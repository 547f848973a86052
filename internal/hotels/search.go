package hotels

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"hotel-bot/internal/models"
)

type destination struct {
	RegionID string `json:"regionId"`
}

type room struct {
	Adults   int   `json:"adults"`
	Children []int `json:"children"`
}

type priceFilter struct {
	Max int `json:"max"`
	Min int `json:"min"`
}

type filters struct {
	Price           priceFilter `json:"price"`
	AvailableFilter string      `json:"availableFilter"`
}

type listRequest struct {
	Currency             string      `json:"currency"`
	Locale               string      `json:"locale"`
	Destination          destination `json:"destination"`
	CheckInDate          models.Date `json:"checkInDate"`
	CheckOutDate         models.Date `json:"checkOutDate"`
	Rooms                []room      `json:"rooms"`
	ResultsStartingIndex int         `json:"resultsStartingIndex"`
	ResultsSize          int         `json:"resultsSize"`
	Sort                 string      `json:"sort"`
	Filters              filters     `json:"filters"`
}

func (c *Client) listRequest(s *models.SearchSession) listRequest {
	min, max := s.PriceRange()
	return listRequest{
		Currency:     "USD",
		Locale:       "en_US",
		Destination:  destination{RegionID: s.City.RegionID},
		CheckInDate:  s.Stay.CheckIn,
		CheckOutDate: s.Stay.CheckOut,
		Rooms:        []room{{Adults: s.Adults, Children: []int{}}},
		ResultsSize:  c.opts.ResultsSize,
		Sort:         s.Command.SortKey(),
		Filters: filters{
			Price:           priceFilter{Max: max, Min: min},
			AvailableFilter: "SHOW_AVAILABLE_ONLY",
		},
	}
}

// FindHotels lists hotels for the session's city and dates and applies the
// variant's ordering and filtering.
func (c *Client) FindHotels(ctx context.Context, s *models.SearchSession) []models.HotelCandidate {
	body, err := c.do(ctx, http.MethodPost, listPath, nil, c.listRequest(s))
	if err != nil {
		c.logger.Warnw("Hotel list failed", "region", s.City.RegionID, "error", err)
		return nil
	}
	c.dump(s.City.FullName, "find_hotels", body)

	found := parseHotels(body)
	selected := Select(s, found)
	c.logger.Infow("Hotels selected",
		"region", s.City.RegionID,
		"command", s.Command,
		"upstream", len(found),
		"selected", len(selected))
	return selected
}

func parseHotels(body []byte) []models.HotelCandidate {
	if !gjson.ValidBytes(body) {
		return nil
	}
	props := gjson.GetBytes(body, "data.propertySearch.properties")
	if !props.IsArray() {
		return nil
	}
	var hotels []models.HotelCandidate
	props.ForEach(func(_, p gjson.Result) bool {
		if h, ok := parseHotel(p); ok {
			hotels = append(hotels, h)
		}
		return true
	})
	return hotels
}

func parseHotel(p gjson.Result) (models.HotelCandidate, bool) {
	id := p.Get("id").String()
	name := p.Get("name").String()
	amount := p.Get("price.lead.amount")
	distance := p.Get("destinationInfo.distanceFromDestination.value")
	if id == "" || name == "" || !distance.Exists() {
		return models.HotelCandidate{}, false
	}

	stay := p.Get("price.displayMessages.1.lineItems.0.value").String()
	if stay == "" {
		stay = notProvided
	}

	h := models.HotelCandidate{
		ID:           id,
		Name:         name,
		PricePerDay:  notProvided,
		PricePerStay: strings.ReplaceAll(stay, "total", "including all taxes"),
		Distance:     distance.Float(),
		DistanceText: strings.TrimSpace(distance.String() + " " + p.Get("destinationInfo.distanceFromDestination.unit").String()),
	}
	if amount.Type == gjson.Number {
		h.Price = amount.Float()
		h.PricePerDay = fmt.Sprintf("%.2f %s", h.Price, p.Get("price.lead.currencyInfo.code").String())
	} else {
		// kept for budget and luxury lists; custom windows cannot place it
		h.Unpriced = true
	}
	return h, true
}

// Select applies the variant rules to the upstream price-ascending list:
// budget keeps the head, luxury the reversed tail, custom keeps in-window
// hotels in upstream order. The result holds at most HotelsAmount entries.
func Select(s *models.SearchSession, hotels []models.HotelCandidate) []models.HotelCandidate {
	n := s.Output.HotelsAmount
	if n <= 0 {
		return nil
	}
	switch s.Command {
	case models.CommandLuxury:
		if n > len(hotels) {
			n = len(hotels)
		}
		out := make([]models.HotelCandidate, 0, n)
		for i := len(hotels) - 1; i >= len(hotels)-n; i-- {
			out = append(out, hotels[i])
		}
		return out
	case models.CommandCustom:
		if s.Custom == nil {
			return nil
		}
		out := make([]models.HotelCandidate, 0, n)
		for _, h := range hotels {
			if len(out) == n {
				break
			}
			if inWindow(h, s.Custom) {
				out = append(out, h)
			}
		}
		return out
	default:
		if n > len(hotels) {
			n = len(hotels)
		}
		return append([]models.HotelCandidate(nil), hotels[:n]...)
	}
}

func inWindow(h models.HotelCandidate, c *models.CustomCriteria) bool {
	return !h.Unpriced &&
		h.Price >= float64(c.MinPrice) && h.Price <= float64(c.MaxPrice) &&
		h.Distance >= float64(c.MinDistance) && h.Distance <= float64(c.MaxDistance)
}
