package mapview

import (
	"fmt"

	"github.com/michalswi/jogjamap/dataset"
)

// CategorySet is a set of categories stored as a bit mask.
type CategorySet uint16

// AllCategories holds every category.
func AllCategories() CategorySet {
	return SetOf(dataset.Categories()...)
}

// SetOf builds a set from cs.
func SetOf(cs ...dataset.Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

func (s CategorySet) Has(c dataset.Category) bool {
	return c.Valid() && s&(1<<c) != 0
}

func (s CategorySet) With(c dataset.Category) CategorySet {
	if !c.Valid() {
		return s
	}
	return s | 1<<c
}

func (s CategorySet) Without(c dataset.Category) CategorySet {
	return s &^ (1 << c)
}

// List returns the members in display order.
func (s CategorySet) List() []dataset.Category {
	out := []dataset.Category{}
	for _, c := range dataset.Categories() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (v *Viewer) visibleLocations() []dataset.Location {
	return v.ds.Filter(func(loc dataset.Location) bool {
		return v.filter.Has(loc.Category)
	})
}

// setFilter applies a new active set and rebuilds the clusters if it changed.
func (v *Viewer) setFilter(s CategorySet) {
	if s == v.filter {
		return
	}
	v.filter = s
	v.rebuildClusters()
}

// ToggleCategory shows or hides one category's markers.
func (v *Viewer) ToggleCategory(c dataset.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return v.locked(func() error {
		if v.filter.Has(c) {
			v.setFilter(v.filter.Without(c))
		} else {
			v.setFilter(v.filter.With(c))
		}
		return nil
	})
}

// SetCategories replaces the active set.
func (v *Viewer) SetCategories(cs ...dataset.Category) error {
	for _, c := range cs {
		if !c.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
		}
	}
	return v.locked(func() error {
		v.setFilter(SetOf(cs...))
		return nil
	})
}

// ActiveCategories lists the categories currently drawn.
func (v *Viewer) ActiveCategories() []dataset.Category {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter.List()
}

// VisibleLocations returns the dataset restricted to the active categories.
func (v *Viewer) VisibleLocations() []dataset.Location {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleLocations()
}
