// Package format turns search results and settings into chat text.
package format

import (
	"fmt"
	"strings"

	"hotel-bot/internal/models"
)

// Units builds one display unit per hotel. Photos are attached only when
// includePhotos is set and the hotel has any.
func Units(details []models.HotelDetail, includePhotos bool) []models.DisplayUnit {
	units := make([]models.DisplayUnit, 0, len(details))
	for _, d := range details {
		u := models.DisplayUnit{Caption: Caption(d)}
		if includePhotos && len(d.Photos) > 0 {
			u.Photos = append([]string(nil), d.Photos...)
		}
		units = append(units, u)
	}
	return units
}

func Caption(d models.HotelDetail) string {
	rating := d.Rating
	if rating != "" && rating != "not rated" {
		rating += "/5"
	}
	return fmt.Sprintf(
		"Name: %s\nPrice per day: %s\nPrice per stay: %s\nRating: %s\nDistance from city center: %s\nAddress: %s\nWebsite: %s",
		d.Name, d.PricePerDay, d.PricePerStay, rating, d.DistanceText, d.Address, d.SiteURL,
	)
}

// Summary describes the resolved search settings. It is shown to the user
// before the search and stored as the history request.
func Summary(s *models.SearchSession) string {
	var b strings.Builder
	b.WriteString("Search settings:\n\n")
	fmt.Fprintf(&b, "Criteria: %s\n", s.Command.Shortcut())
	fmt.Fprintf(&b, "City: %s\n", s.City.FullName)
	fmt.Fprintf(&b, "Check in date: %s\n", s.Stay.CheckIn.Short())
	fmt.Fprintf(&b, "Check out date: %s\n", s.Stay.CheckOut.Short())
	if c := s.Custom; c != nil {
		fmt.Fprintf(&b, "Price range: %d - %d per day in USD\n", c.MinPrice, c.MaxPrice)
		fmt.Fprintf(&b, "Distance range: %d - %d MILE\n", c.MinDistance, c.MaxDistance)
	}
	fmt.Fprintf(&b, "Travellers: %d\n", s.Adults)
	fmt.Fprintf(&b, "Hotels: %d\n", s.Output.HotelsAmount)
	if s.Output.ShowPhotos {
		b.WriteString("Hotel photos: Yes")
		fmt.Fprintf(&b, "\nPhotos: %d", s.Output.PhotosAmount)
	} else {
		b.WriteString("Hotel photos: No")
	}
	return b.String()
}
