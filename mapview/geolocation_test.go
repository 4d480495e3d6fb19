package mapview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michalswi/jogjamap/dataset"
)

func TestLocateRequestsFreshPosition(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})
	h.rec.reset()

	require.NoError(t, h.v.Locate())
	cmds := h.rec.of(CmdGeolocate)
	require.Len(t, cmds, 1)
	require.Equal(t, struct {
		EnableHighAccuracy bool  `json:"enableHighAccuracy"`
		Timeout            int64 `json:"timeout"`
		MaximumAge         int64 `json:"maximumAge"`
	}{true, 10000, 0}, cmds[0].Data)
}

func TestTwoPositionsLeaveOneMarker(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})
	_, zoomBefore := h.v.Camera()

	first := Position{Lat: -7.79, Lng: 110.36, Accuracy: 30}
	second := Position{Lat: -7.80, Lng: 110.37, Accuracy: 12}
	require.NoError(t, h.v.HandlePosition(first))
	require.NoError(t, h.v.HandlePosition(second))

	markers := h.v.canvas.LayersOf(KindUserMarker)
	circles := h.v.canvas.LayersOf(KindAccuracyCircle)
	require.Len(t, markers, 1)
	require.Len(t, circles, 1)
	require.Equal(t, LatLng{Lat: second.Lat, Lng: second.Lng}, markers[0].(*UserMarker).Position)
	require.InDelta(t, second.Accuracy, circles[0].(*AccuracyCircle).Radius, 1e-9)

	pos, ok := h.v.UserPosition()
	require.True(t, ok)
	require.Equal(t, second, pos)

	pans := h.rec.of(CmdCameraPan)
	require.Len(t, pans, 2)
	h.clock.Advance(PanDuration)
	center, zoom := h.v.Camera()
	require.Equal(t, zoomBefore, zoom, "panning keeps the zoom")
	require.Equal(t, LatLng{Lat: second.Lat, Lng: second.Lng}, center)
	require.Len(t, h.rec.of(CmdLayerRemove), 2)
}

func TestHandlePositionRejectsGarbage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	for _, p := range []Position{
		{Lat: math.NaN(), Lng: 110},
		{Lat: -7.8, Lng: 200},
		{Lat: -7.8, Lng: 110, Accuracy: -1},
		{Lat: -7.8, Lng: 110, Accuracy: math.Inf(1)},
	} {
		require.Error(t, h.v.HandlePosition(p))
	}
	require.Empty(t, h.v.canvas.LayersOf(KindUserMarker))
}

func TestGeolocationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want GeoErrorClass
	}{
		{code: GeoCodePermissionDenied, want: GeoPermissionDenied},
		{code: GeoCodePositionUnavailable, want: GeoPositionUnavailable},
		{code: GeoCodeTimeout, want: GeoTimeout},
		{code: GeoCodeUnsupported, want: GeoUnsupported},
		{code: 42, want: GeoUnknown},
	}
	messages := map[string]bool{}
	for _, tt := range tests {
		h := newHarness(t, nil, Options{Locale: dataset.English})
		require.NoError(t, h.v.HandlePosition(Position{Lat: -7.8, Lng: 110.36, Accuracy: 10}))
		before := h.v.State()
		h.rec.reset()

		class, err := h.v.HandlePositionError(tt.code, "browser detail")
		require.NoError(t, err)
		require.Equal(t, tt.want, class)
		require.Equal(t, tt.want, ClassifyGeoError(tt.code))

		notes := h.rec.of(CmdNotify)
		require.Len(t, notes, 1)
		n := notes[0].Data.(notification)
		require.Equal(t, "geolocation."+string(tt.want), n.Code)
		require.False(t, messages[n.Message], "each class has its own message")
		messages[n.Message] = true

		require.Len(t, h.rec.all(), 1, "errors change nothing on the map")
		require.Equal(t, before, h.v.State())
	}
}
