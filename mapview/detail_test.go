package mapview

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michalswi/jogjamap/dataset"
)

func sectionKinds(sections []InfoSection) []SectionKind {
	out := make([]SectionKind, len(sections))
	for i, s := range sections {
		out[i] = s.Kind
	}
	return out
}

func TestInfoSectionsOnlyForPresentFields(t *testing.T) {
	t.Parallel()
	ds, err := dataset.Default()
	require.NoError(t, err)

	tests := []struct {
		id   string
		want []SectionKind
	}{
		{id: "tugu-yogyakarta", want: []SectionKind{SectionOpeningHours}},
		{id: "keraton-yogyakarta", want: []SectionKind{SectionOpeningHours, SectionEntryFee, SectionFacilities, SectionContact}},
		{id: "pasar-kotagede", want: []SectionKind{SectionProducts}},
		{id: "perak-kotagede", want: []SectionKind{SectionProducts, SectionPriceRange, SectionContact}},
	}
	for _, tt := range tests {
		loc, ok := ds.Get(tt.id)
		require.True(t, ok, tt.id)
		require.Equal(t, tt.want, sectionKinds(InfoSections(loc, dataset.Indonesian)), tt.id)
	}

	bare := place("bare", dataset.Tourism, -7.8, 110.4)
	require.Empty(t, InfoSections(bare, dataset.English))
}

func TestInfoSectionText(t *testing.T) {
	t.Parallel()
	loc := place("x", dataset.Heritage, -7.8, 110.4)
	loc.EntryFee = &dataset.EntryFee{Local: 15000, Foreign: 0}
	loc.Contact = &dataset.Contact{WhatsApp: "+62 812 0000"}

	id := InfoSections(loc, dataset.Indonesian)
	require.Len(t, id, 2)
	require.Equal(t, "Harga Tiket", id[0].Title)
	require.Equal(t, []string{"Wisatawan domestik: Rp 15.000", "Wisatawan mancanegara: Gratis"}, id[0].Lines)
	require.Equal(t, []string{"WhatsApp: +62 812 0000"}, id[1].Lines)

	en := InfoSections(loc, dataset.English)
	require.Equal(t, "Entry Fee", en[0].Title)
	require.Equal(t, []string{"Domestic visitors: Rp 15,000", "Foreign visitors: Free"}, en[0].Lines)
}

func TestDetailView(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{Locale: dataset.English})

	_, ok := h.v.Detail()
	require.False(t, ok)

	require.NoError(t, h.v.Select("benteng-vredeburg"))
	d, ok := h.v.Detail()
	require.True(t, ok)
	require.Equal(t, "benteng-vredeburg", d.ID)
	require.Equal(t, "Heritage", d.CategoryLabel)
	require.Equal(t, dataset.Heritage.Meta().Color, d.Color)
	require.Empty(t, d.Media.Images)
	require.Equal(t, msgMediaEmpty.in(dataset.English), d.Media.Empty)
	require.Equal(t, []string{"keraton-yogyakarta", "taman-sari", "candi-prambanan"}, relatedIDs(d.Related))

	require.NoError(t, h.v.Select("keraton-yogyakarta"))
	d, _ = h.v.Detail()
	require.Len(t, d.Media.Images, 3)
	require.Empty(t, d.Media.Empty)
	require.Equal(t, "Yogyakarta Kraton Palace", d.Name)
}

func relatedIDs(entries []RelatedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestDetailTabs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})
	require.NoError(t, h.v.Select("gudeg-yu-djum"))

	for _, tab := range []DetailTab{TabMedia, TabRelated, TabInfo} {
		require.NoError(t, h.v.SetDetailTab(tab))
		d, _ := h.v.Detail()
		require.Equal(t, tab, d.Tab)
	}

	require.NoError(t, h.v.SetDetailTab(TabRelated))
	require.NoError(t, h.v.Select("sate-klathak-pak-pong"))
	d, _ := h.v.Detail()
	require.Equal(t, TabInfo, d.Tab, "a new selection starts on Info")

	tab, err := ParseDetailTab("media")
	require.NoError(t, err)
	require.Equal(t, TabMedia, tab)
	_, err = ParseDetailTab("Media")
	require.Error(t, err)
}
