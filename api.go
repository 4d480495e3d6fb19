package main

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
	"github.com/michalswi/jogjamap/observability"
	"github.com/michalswi/jogjamap/session"
)

type categoryView struct {
	ID    dataset.Category `json:"id"`
	Label string           `json:"label"`
	Color string           `json:"color"`
	Icon  string           `json:"icon"`
	Count int              `json:"count"`
}

func newCategoryView(c dataset.Category, locale dataset.Locale, count int) categoryView {
	meta := c.Meta()
	return categoryView{
		ID:    c,
		Label: meta.Label.In(locale),
		Color: meta.Color,
		Icon:  meta.Icon,
		Count: count,
	}
}

// categoryViews lists every category with its number of locations in ds.
func categoryViews(ds *dataset.Dataset, locale dataset.Locale) []categoryView {
	counts := map[dataset.Category]int{}
	for _, loc := range ds.All() {
		counts[loc.Category]++
	}
	out := make([]categoryView, 0, len(dataset.Categories()))
	for _, c := range dataset.Categories() {
		out = append(out, newCategoryView(c, locale, counts[c]))
	}
	return out
}

type locationResponse struct {
	dataset.Location
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

// listLocations serves GET /api/locations. ?category= takes a comma separated
// list of categories; ?near=lat,lng orders the result by distance.
func (a *app) listLocations(w http.ResponseWriter, r *http.Request) {
	ds := a.store.get()
	q := r.URL.Query()

	keep := mapview.AllCategories()
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		keep = mapview.SetOf()
		for _, name := range strings.Split(raw, ",") {
			c, err := dataset.ParseCategory(strings.TrimSpace(name))
			if err != nil {
				observability.WriteError(w, r, http.StatusBadRequest, "invalid_category", err.Error())
				return
			}
			keep = keep.With(c)
		}
	}

	locs := ds.Filter(func(loc dataset.Location) bool { return keep.Has(loc.Category) })
	out := make([]locationResponse, 0, len(locs))
	for _, loc := range locs {
		out = append(out, locationResponse{Location: loc})
	}

	if q.Has("near") {
		lat, lng, err := parseLocationString(q.Get("near"))
		if err != nil {
			observability.WriteError(w, r, http.StatusBadRequest, "invalid_near", err.Error())
			return
		}
		from := dataset.Coordinates{Lat: lat, Lng: lng}
		for i := range out {
			d := mapview.DistanceMeters(from, out[i].Coordinates)
			out[i].DistanceMeters = &d
		}
		sort.SliceStable(out, func(i, j int) bool {
			return *out[i].DistanceMeters < *out[j].DistanceMeters
		})
	}

	observability.WriteJSON(w, http.StatusOK, map[string]any{
		"locations": out,
		"count":     len(out),
	})
}

func (a *app) getLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	loc, ok := a.store.get().Get(id)
	if !ok {
		observability.WriteError(w, r, http.StatusNotFound, "not_found", "location not found")
		return
	}
	observability.WriteJSON(w, http.StatusOK, locationResponse{Location: loc})
}

func (a *app) listCategories(w http.ResponseWriter, r *http.Request) {
	locale := session.RequestLocale(r, a.cfg.Map.Locale)
	observability.WriteJSON(w, http.StatusOK, map[string]any{
		"locale":     locale,
		"categories": categoryViews(a.store.get(), locale),
	})
}

// search serves GET /api/search with the matching rules of the search sidebar.
func (a *app) search(w http.ResponseWriter, r *http.Request) {
	locale := session.RequestLocale(r, a.cfg.Map.Locale)
	query := r.URL.Query().Get("q")
	hits := mapview.Search(a.store.get(), query, locale)

	out := make([]mapview.SearchResult, 0, len(hits))
	for _, loc := range hits {
		out = append(out, mapview.NewSearchResult(loc, locale))
	}
	observability.WriteJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"locale":  locale,
		"results": out,
	})
}
