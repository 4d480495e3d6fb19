package mapview

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/michalswi/jogjamap/dataset"
)

// Search returns the locations whose name, description or address in locale
// contains query, ignoring case. A blank query matches nothing.
func Search(ds *dataset.Dataset, query string, locale dataset.Locale) []dataset.Location {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return ds.Filter(func(loc dataset.Location) bool {
		for _, field := range []dataset.Localized{loc.Name, loc.Description, loc.Address} {
			if strings.Contains(fold.String(field.In(locale)), q) {
				return true
			}
		}
		return false
	})
}

type searchState struct {
	open      bool
	collapsed bool
	query     string
	results   []dataset.Location
}

// OpenSearch opens the search sidebar.
//
// Opening search always resets the category filter to every category. Search
// runs over the whole dataset, and the map is made to agree with that by
// showing every marker again.
func (v *Viewer) OpenSearch() error {
	return v.locked(func() error {
		v.search.open = true
		v.search.collapsed = false
		v.setFilter(AllCategories())
		return nil
	})
}

// CloseSearch closes the search sidebar.
func (v *Viewer) CloseSearch() error {
	return v.locked(func() error {
		v.search.open = false
		return nil
	})
}

// CollapseSearch shrinks the open sidebar to its re-expand handle, or
// expands it again. Query and results are kept.
func (v *Viewer) CollapseSearch(collapsed bool) error {
	return v.locked(func() error {
		v.search.collapsed = collapsed
		return nil
	})
}

// SetQuery runs a new search and returns its results.
func (v *Viewer) SetQuery(query string) ([]dataset.Location, error) {
	var out []dataset.Location
	err := v.locked(func() error {
		v.search.query = query
		v.search.results = Search(v.ds, query, v.locale)
		out = cloneLocations(v.search.results)
		return nil
	})
	return out, err
}

// SearchResults returns the results of the last query.
func (v *Viewer) SearchResults() []dataset.Location {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cloneLocations(v.search.results)
}

// ChooseResult selects a search result and closes the search sidebar. The
// detail sidebar opened by the selection stays open.
func (v *Viewer) ChooseResult(id string) error {
	return v.locked(func() error {
		if err := v.selectByID(id); err != nil {
			return err
		}
		v.search.open = false
		return nil
	})
}

func cloneLocations(locs []dataset.Location) []dataset.Location {
	if locs == nil {
		return nil
	}
	out := make([]dataset.Location, len(locs))
	for i, l := range locs {
		out[i] = l.Clone()
	}
	return out
}
