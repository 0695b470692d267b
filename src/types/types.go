package types

import (
	"context"
	"strings"
)

const (
	DefaultRadius = 1000
	DefaultSize   = 10
)

type Place struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	CategoryCode string   `json:"category_code,omitempty"`
	Address      string   `json:"address"`
	RoadAddress  string   `json:"road_address,omitempty"`
	Phone        string   `json:"phone"`
	URL          string   `json:"url,omitempty"`
	Distance     string   `json:"distance,omitempty"`
	Location     GeoPoint `json:"location"`
}

// ShortCategory returns the most specific segment of a "a > b > c" category path.
func (p Place) ShortCategory() string {
	parts := strings.Split(p.Category, ">")
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return "-"
	}
	return last
}

func (p Place) DisplayAddress() string {
	if p.RoadAddress != "" {
		return p.RoadAddress
	}
	return p.Address
}

type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Address is a single geocoding result the user can pick as the search origin.
type Address struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

type Category struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var Categories = []Category{
	{Code: "FD6", Label: "Restaurant"},
	{Code: "CE7", Label: "Cafe"},
}

func LookupCategory(code string) (Category, bool) {
	for _, c := range Categories {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

// Query describes one nearby search. Zero Radius and Size fall back to the defaults.
type Query struct {
	Category string
	Location GeoPoint
	Radius   int
	Size     int
}

func (q Query) WithDefaults() Query {
	if q.Radius <= 0 {
		q.Radius = DefaultRadius
	}
	if q.Size <= 0 {
		q.Size = DefaultSize
	}
	return q
}

// Page is one page of an externally paginated search. IsEnd is reported by the source.
type Page struct {
	Places []Place `json:"places"`
	IsEnd  bool    `json:"is_end"`
	Total  int     `json:"total"`
}

type PlaceSource interface {
	SearchPlaces(ctx context.Context, query Query, page int) (Page, error)
}

type Geocoder interface {
	SearchAddress(ctx context.Context, query string) ([]Address, error)
}

type DataStore interface {
	GetPlaces(limit, offset int) ([]Place, int, error)
	GetNearbyPlaces(lat, lon float64) ([]Place, error)
}
