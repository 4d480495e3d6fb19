package dataset

import "slices"

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Bounds is a lat/lng box given by its south-west and north-east corners.
type Bounds struct {
	SouthWest Coordinates `json:"southWest"`
	NorthEast Coordinates `json:"northEast"`
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Coordinates) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// Center returns the midpoint of b.
func (b Bounds) Center() Coordinates {
	return Coordinates{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// OperationalBounds is the Special Region of Yogyakarta; every location must lie inside it.
var OperationalBounds = Bounds{
	SouthWest: Coordinates{Lat: -8.20, Lng: 110.00},
	NorthEast: Coordinates{Lat: -7.55, Lng: 110.85},
}

// CityCenter is where a fresh map opens.
var CityCenter = Coordinates{Lat: -7.7956, Lng: 110.3695}

// EntryFee is the ticket price in rupiah for domestic and foreign visitors.
type EntryFee struct {
	Local   int `json:"local" yaml:"local"`
	Foreign int `json:"foreign" yaml:"foreign"`
}

// Contact lists the ways to reach a location. Any field may be blank.
type Contact struct {
	Phone    string `json:"phone,omitempty" yaml:"phone"`
	WhatsApp string `json:"whatsapp,omitempty" yaml:"whatsapp"`
	Email    string `json:"email,omitempty" yaml:"email"`
}

// Empty reports whether no contact channel is set.
func (c Contact) Empty() bool {
	return c.Phone == "" && c.WhatsApp == "" && c.Email == ""
}

// Location is one point of interest. Values handed out by Dataset are copies.
type Location struct {
	ID          string      `json:"id" yaml:"id"`
	Category    Category    `json:"category" yaml:"category"`
	Name        Localized   `json:"name" yaml:"name"`
	Description Localized   `json:"description" yaml:"description"`
	Address     Localized   `json:"address" yaml:"address"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Images      []string    `json:"images" yaml:"images"`

	OpeningHours string    `json:"openingHours,omitempty" yaml:"openingHours"`
	EntryFee     *EntryFee `json:"entryFee,omitempty" yaml:"entryFee"`
	Facilities   []string  `json:"facilities,omitempty" yaml:"facilities"`
	Products     []string  `json:"products,omitempty" yaml:"products"`
	PriceRange   string    `json:"priceRange,omitempty" yaml:"priceRange"`
	Contact      *Contact  `json:"contact,omitempty" yaml:"contact"`
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	out := l
	out.Images = slices.Clone(l.Images)
	out.Facilities = slices.Clone(l.Facilities)
	out.Products = slices.Clone(l.Products)
	if l.EntryFee != nil {
		fee := *l.EntryFee
		out.EntryFee = &fee
	}
	if l.Contact != nil {
		c := *l.Contact
		out.Contact = &c
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}
