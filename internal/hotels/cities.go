package hotels

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"hotel-bot/internal/models"
)

var cityTypes = map[string]bool{
	"CITY":         true,
	"NEIGHBORHOOD": true,
	"MULTIREGION":  true,
}

// FindCity returns the city-like locations matching query.
func (c *Client) FindCity(ctx context.Context, query string) []models.CityCandidate {
	if cities, ok := c.cache.Cities(ctx, query); ok {
		c.logger.Debugw("City cache hit", "query", query, "found", len(cities))
		return cities
	}

	body, err := c.do(ctx, http.MethodGet, cityPath, url.Values{"q": {query}, "locale": {"en_US"}}, nil)
	if err != nil {
		c.logger.Warnw("City lookup failed", "query", query, "error", err)
		return nil
	}
	c.dump(query, "find_city", body)

	cities := parseCities(body)
	if cities == nil {
		c.logger.Infow("No cities found", "query", query)
		return nil
	}
	c.cache.StoreCities(ctx, query, cities)
	return cities
}

func parseCities(body []byte) []models.CityCandidate {
	if !gjson.ValidBytes(body) {
		return nil
	}
	var cities []models.CityCandidate
	gjson.GetBytes(body, "sr").ForEach(func(_, loc gjson.Result) bool {
		if !cityTypes[loc.Get("type").String()] {
			return true
		}
		id := loc.Get("gaiaId").String()
		name := loc.Get("regionNames.fullName").String()
		if id != "" && name != "" {
			cities = append(cities, models.CityCandidate{RegionID: id, FullName: name})
		}
		return true
	})
	return cities
}
