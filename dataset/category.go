package dataset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Category is the closed set of location kinds shown on the map.
type Category uint8

const (
	Heritage Category = iota + 1
	Monument
	Religious
	Tourism
	UMKM
	Culinary
	Market
)

// Meta describes how a category is drawn and labelled.
type Meta struct {
	Color string    `json:"color"`
	Icon  string    `json:"icon"`
	Label Localized `json:"label"`
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Heritage, Monument, Religious, Tourism, UMKM, Culinary, Market}
}

// Meta returns the fixed color, icon and bilingual label of c.
func (c Category) Meta() Meta {
	switch c {
	case Heritage:
		return Meta{Color: "#8B4513", Icon: "🏛️", Label: Localized{ID: "Cagar Budaya", EN: "Heritage"}}
	case Monument:
		return Meta{Color: "#DC2626", Icon: "🗿", Label: Localized{ID: "Monumen", EN: "Monument"}}
	case Religious:
		return Meta{Color: "#059669", Icon: "🕌", Label: Localized{ID: "Religi", EN: "Religious"}}
	case Tourism:
		return Meta{Color: "#2563EB", Icon: "🏞️", Label: Localized{ID: "Wisata", EN: "Tourism"}}
	case UMKM:
		return Meta{Color: "#D97706", Icon: "🛍️", Label: Localized{ID: "UMKM", EN: "Local Business"}}
	case Culinary:
		return Meta{Color: "#EA580C", Icon: "🍜", Label: Localized{ID: "Kuliner", EN: "Culinary"}}
	case Market:
		return Meta{Color: "#7C3AED", Icon: "🏪", Label: Localized{ID: "Pasar", EN: "Market"}}
	}
	return Meta{Color: "#6B7280", Icon: "📍", Label: Localized{ID: "Lainnya", EN: "Other"}}
}

func (c Category) String() string {
	switch c {
	case Heritage:
		return "heritage"
	case Monument:
		return "monument"
	case Religious:
		return "religious"
	case Tourism:
		return "tourism"
	case UMKM:
		return "umkm"
	case Culinary:
		return "culinary"
	case Market:
		return "market"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= Heritage && c <= Market
}

// ParseCategory resolves the wire name of a category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	return c.UnmarshalText([]byte(value.Value))
}
