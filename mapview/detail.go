package mapview

import (
	"fmt"
	"slices"

	"golang.org/x/text/language"
	xmessage "golang.org/x/text/message"

	"github.com/michalswi/jogjamap/dataset"
)

// DetailTab is a page of the location detail sidebar.
type DetailTab string

const (
	TabInfo    DetailTab = "info"
	TabMedia   DetailTab = "media"
	TabRelated DetailTab = "related"
)

// ParseDetailTab accepts info, media or related.
func ParseDetailTab(s string) (DetailTab, error) {
	switch DetailTab(s) {
	case TabInfo, TabMedia, TabRelated:
		return DetailTab(s), nil
	}
	return "", fmt.Errorf("unknown detail tab %q", s)
}

type detailState struct {
	open      bool
	collapsed bool
	tab       DetailTab
}

// SectionKind identifies an optional block of the Info tab.
type SectionKind string

const (
	SectionOpeningHours SectionKind = "openingHours"
	SectionEntryFee     SectionKind = "entryFee"
	SectionFacilities   SectionKind = "facilities"
	SectionProducts     SectionKind = "products"
	SectionPriceRange   SectionKind = "priceRange"
	SectionContact      SectionKind = "contact"
)

// InfoSection is one present optional field, ready to display.
type InfoSection struct {
	Kind  SectionKind `json:"kind"`
	Title string      `json:"title"`
	Lines []string    `json:"lines"`
}

// MediaView is the Media tab. Empty carries the empty-state text when there
// are no images.
type MediaView struct {
	Images []string `json:"images"`
	Empty  string   `json:"empty,omitempty"`
}

// RelatedEntry is one link on the Related tab.
type RelatedEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DetailView is the localized content of the detail sidebar.
type DetailView struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Address       string           `json:"address"`
	Category      dataset.Category `json:"category"`
	CategoryLabel string           `json:"categoryLabel"`
	Color         string           `json:"color"`
	Icon          string           `json:"icon"`
	Coordinates   LatLng           `json:"coordinates"`
	Open          bool             `json:"open"`
	Collapsed     bool             `json:"collapsed"`
	Tab           DetailTab        `json:"tab"`
	Info          []InfoSection    `json:"info"`
	Media         MediaView        `json:"media"`
	Related       []RelatedEntry   `json:"related"`
}

// Detail returns the sidebar content for the selected location.
func (v *Viewer) Detail() (DetailView, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return DetailView{}, false
	}
	return v.detailView(*v.selected), true
}

func (v *Viewer) detailView(loc dataset.Location) DetailView {
	meta := loc.Category.Meta()
	return DetailView{
		ID:            loc.ID,
		Name:          loc.Name.Display(v.locale),
		Description:   loc.Description.Display(v.locale),
		Address:       loc.Address.Display(v.locale),
		Category:      loc.Category,
		CategoryLabel: meta.Label.In(v.locale),
		Color:         meta.Color,
		Icon:          meta.Icon,
		Coordinates:   loc.Coordinates,
		Open:          v.detail.open,
		Collapsed:     v.detail.collapsed,
		Tab:           v.detail.tab,
		Info:          InfoSections(loc, v.locale),
		Media:         mediaView(loc, v.locale),
		Related:       v.relatedEntries(loc),
	}
}

// InfoSections lists the optional fields loc actually has. Missing fields
// produce no section at all.
func InfoSections(loc dataset.Location, locale dataset.Locale) []InfoSection {
	sections := []InfoSection{}
	add := func(kind SectionKind, title message, lines ...string) {
		sections = append(sections, InfoSection{Kind: kind, Title: title.in(locale), Lines: lines})
	}

	if loc.OpeningHours != "" {
		add(SectionOpeningHours, msgOpeningHours, loc.OpeningHours)
	}
	if loc.EntryFee != nil {
		add(SectionEntryFee, msgEntryFee,
			msgFeeLocal.in(locale)+": "+formatRupiah(loc.EntryFee.Local, locale),
			msgFeeForeign.in(locale)+": "+formatRupiah(loc.EntryFee.Foreign, locale),
		)
	}
	if len(loc.Facilities) > 0 {
		add(SectionFacilities, msgFacilities, slices.Clone(loc.Facilities)...)
	}
	if len(loc.Products) > 0 {
		add(SectionProducts, msgProducts, slices.Clone(loc.Products)...)
	}
	if loc.PriceRange != "" {
		add(SectionPriceRange, msgPriceRange, loc.PriceRange)
	}
	if loc.Contact != nil && !loc.Contact.Empty() {
		var lines []string
		if loc.Contact.Phone != "" {
			lines = append(lines, msgPhone.in(locale)+": "+loc.Contact.Phone)
		}
		if loc.Contact.WhatsApp != "" {
			lines = append(lines, msgWhatsApp.in(locale)+": "+loc.Contact.WhatsApp)
		}
		if loc.Contact.Email != "" {
			lines = append(lines, msgEmail.in(locale)+": "+loc.Contact.Email)
		}
		add(SectionContact, msgContact, lines...)
	}
	return sections
}

func formatRupiah(amount int, locale dataset.Locale) string {
	if amount <= 0 {
		return msgFeeFree.in(locale)
	}
	tag := language.Indonesian
	if locale == dataset.English {
		tag = language.English
	}
	return xmessage.NewPrinter(tag).Sprintf("Rp %d", amount)
}

func mediaView(loc dataset.Location, locale dataset.Locale) MediaView {
	if len(loc.Images) == 0 {
		return MediaView{Images: []string{}, Empty: msgMediaEmpty.in(locale)}
	}
	return MediaView{Images: slices.Clone(loc.Images)}
}

func (v *Viewer) relatedEntries(loc dataset.Location) []RelatedEntry {
	related := v.ds.Related(loc)
	out := make([]RelatedEntry, len(related))
	for i, r := range related {
		out[i] = RelatedEntry{
			ID:      r.ID,
			Name:    r.Name.Display(v.locale),
			Address: r.Address.Display(v.locale),
		}
	}
	return out
}

// Related returns the other locations in the selected location's category.
func (v *Viewer) Related() []dataset.Location {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return nil
	}
	return v.ds.Related(*v.selected)
}

// SetDetailTab switches the detail sidebar tab.
func (v *Viewer) SetDetailTab(tab DetailTab) error {
	if _, err := ParseDetailTab(string(tab)); err != nil {
		return err
	}
	return v.locked(func() error {
		v.detail.tab = tab
		return nil
	})
}

// CollapseDetail shrinks the detail sidebar to its re-expand handle, or
// expands it again.
func (v *Viewer) CollapseDetail(collapsed bool) error {
	return v.locked(func() error {
		v.detail.collapsed = collapsed
		return nil
	})
}

// ChooseRelated selects a location from the Related tab. The sidebar stays
// open, its content switches in place and the camera flies to the new location.
func (v *Viewer) ChooseRelated(id string) error {
	return v.locked(func() error {
		if v.selected == nil {
			return fmt.Errorf("%w: nothing selected", ErrUnknownLocation)
		}
		related := v.ds.Related(*v.selected)
		i := slices.IndexFunc(related, func(l dataset.Location) bool { return l.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s is not related to %s", ErrUnknownLocation, id, v.selected.ID)
		}
		v.selectLocation(related[i])
		return nil
	})
}
