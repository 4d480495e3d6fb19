// Package dataset holds the immutable set of tourism locations and the fixed
// category table the map viewer draws them with.
package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateID     = errors.New("duplicate location id")
	ErrOutOfBounds     = errors.New("coordinates outside operational bounds")
	ErrEmptyName       = errors.New("location name missing")
)

//go:embed locations.yaml
var defaultLocations []byte

// Dataset is a read-only, ordered collection of locations.
type Dataset struct {
	locations []Location
	byID      map[string]int
}

type file struct {
	Locations []Location `yaml:"locations"`
}

// New validates locs and freezes them into a Dataset.
func New(locs []Location) (*Dataset, error) {
	d := &Dataset{
		locations: make([]Location, 0, len(locs)),
		byID:      make(map[string]int, len(locs)),
	}
	for i, loc := range locs {
		if err := validate(loc); err != nil {
			return nil, fmt.Errorf("location %d (%s): %w", i, loc.ID, err)
		}
		if _, dup := d.byID[loc.ID]; dup {
			return nil, fmt.Errorf("location %d: %w: %s", i, ErrDuplicateID, loc.ID)
		}
		d.byID[loc.ID] = len(d.locations)
		d.locations = append(d.locations, loc.Clone())
	}
	return d, nil
}

func validate(loc Location) error {
	if strings.TrimSpace(loc.ID) == "" {
		return errors.New("location id missing")
	}
	if !loc.Category.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(loc.Category))
	}
	if strings.TrimSpace(loc.Name.ID) == "" || strings.TrimSpace(loc.Name.EN) == "" {
		return ErrEmptyName
	}
	if !OperationalBounds.Contains(loc.Coordinates) {
		return fmt.Errorf("%w: %f,%f", ErrOutOfBounds, loc.Coordinates.Lat, loc.Coordinates.Lng)
	}
	return nil
}

// Parse decodes a YAML document with a top-level "locations" list.
func Parse(data []byte) (*Dataset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return New(f.Locations)
}

// Load reads a YAML dataset from path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(data)
}

// Default returns the dataset compiled into the binary.
func Default() (*Dataset, error) {
	return Parse(defaultLocations)
}

// Len returns the number of locations.
func (d *Dataset) Len() int {
	return len(d.locations)
}

// All returns every location in dataset order.
func (d *Dataset) All() []Location {
	out := make([]Location, len(d.locations))
	for i, loc := range d.locations {
		out[i] = loc.Clone()
	}
	return out
}

// Get looks a location up by id.
func (d *Dataset) Get(id string) (Location, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Location{}, false
	}
	return d.locations[i].Clone(), true
}

// Filter returns the locations accepted by keep, in dataset order.
func (d *Dataset) Filter(keep func(Location) bool) []Location {
	var out []Location
	for _, loc := range d.locations {
		if keep(loc) {
			out = append(out, loc.Clone())
		}
	}
	return out
}

// Related returns the other locations sharing loc's category.
func (d *Dataset) Related(loc Location) []Location {
	return d.Filter(func(other Location) bool {
		return other.Category == loc.Category && other.ID != loc.ID
	})
}
