package hotels

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"hotel-bot/internal/models"
)

const (
	notProvided = "not provided"
	notRated    = "not rated"
)

type detailRequest struct {
	Currency   string `json:"currency"`
	Locale     string `json:"locale"`
	PropertyID string `json:"propertyId"`
}

// Enrich fetches address, rating and up to photos gallery URLs for one
// hotel. Missing data degrades to sentinels.
func (c *Client) Enrich(ctx context.Context, h models.HotelCandidate, photos int) models.HotelDetail {
	d := models.HotelDetail{
		HotelCandidate: h,
		Address:        notProvided,
		Rating:         notRated,
		SiteURL:        c.siteURL(h.ID),
	}

	body, err := c.do(ctx, http.MethodPost, detailPath, nil, detailRequest{Currency: "USD", Locale: "en_US", PropertyID: h.ID})
	if err != nil {
		c.logger.Warnw("Hotel detail failed", "hotel_id", h.ID, "error", err)
		return d
	}
	c.dump(h.Name, "enrich", body)

	info := gjson.GetBytes(body, "data.propertyInfo")
	if !info.IsObject() {
		c.logger.Warnw("Hotel detail has no property info", "hotel_id", h.ID)
		return d
	}
	if addr := info.Get("summary.location.address.addressLine").String(); addr != "" {
		d.Address = addr
	}
	if rating := info.Get("summary.overview.propertyRating.rating"); rating.Exists() && rating.Type != gjson.Null {
		d.Rating = rating.String()
	}
	if photos > 0 {
		for _, img := range info.Get("propertyGallery.images").Array() {
			if len(d.Photos) == photos {
				break
			}
			if u := img.Get("image.url").String(); u != "" {
				d.Photos = append(d.Photos, u)
			}
		}
	}
	return d
}

// EnrichAll enriches hotels concurrently, at most Parallelism at a time,
// and keeps the input order.
func (c *Client) EnrichAll(ctx context.Context, hotels []models.HotelCandidate, photos int) []models.HotelDetail {
	out := make([]models.HotelDetail, len(hotels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallelism)
	for i, h := range hotels {
		i, h := i, h
		g.Go(func() error {
			out[i] = c.Enrich(gctx, h, photos)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) siteURL(id string) string {
	if c.opts.SiteURLTemplate == "" || id == "" {
		return notProvided
	}
	return fmt.Sprintf(c.opts.SiteURLTemplate, id)
}
