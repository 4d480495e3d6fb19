package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
)

type message struct {
	Type     mapview.CommandType `json:"type"`
	Layer    string              `json:"layer"`
	Replaces string              `json:"replaces"`
	Data     json.RawMessage     `json:"data"`
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ds, err := dataset.Default()
	require.NoError(t, err)
	hub, err := NewHub(Config{Dataset: func() *dataset.Dataset { return ds }})
	require.NoError(t, err)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until one of type kind arrives.
func readUntil(t *testing.T, conn *websocket.Conn, kind mapview.CommandType) (message, []message) {
	t.Helper()
	var seen []message
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		seen = append(seen, msg)
		if msg.Type == kind {
			return msg, seen
		}
	}
}

func decodeState(t *testing.T, msg message) mapview.State {
	t.Helper()
	var s mapview.State
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	return s
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "?lang=en&theme=dark")

	hello, _ := readUntil(t, conn, CmdHello)
	var h struct {
		Session string `json:"session"`
	}
	require.NoError(t, json.Unmarshal(hello.Data, &h))
	require.Len(t, h.Session, 36)

	first, seen := readUntil(t, conn, CmdState)
	require.Equal(t, mapview.CmdMapInit, seen[0].Type)
	s := decodeState(t, first)
	require.Equal(t, dataset.English, s.Locale)
	require.Equal(t, mapview.ThemeDark, s.Theme)
	require.Equal(t, "dark", s.BaseLayer)
	require.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteJSON(Event{Type: "select", ID: "malioboro"}))
	msg, seen := readUntil(t, conn, CmdState)
	s = decodeState(t, msg)
	require.NotNil(t, s.Selected)
	require.Equal(t, "malioboro", *s.Selected)
	require.True(t, s.Detail.Open)
	var kinds []mapview.CommandType
	for _, m := range seen {
		kinds = append(kinds, m.Type)
	}
	require.Contains(t, kinds, mapview.CmdCameraFly)
	require.Contains(t, kinds, mapview.CmdSelection)

	require.NoError(t, conn.WriteJSON(Event{Type: "category.toggle", Category: "culinary"}))
	msg, _ = readUntil(t, conn, CmdState)
	require.NotContains(t, decodeState(t, msg).ActiveCategories, dataset.Culinary)

	require.NoError(t, conn.WriteJSON(Event{
		Type:     "geolocate.result",
		Position: &mapview.Position{Lat: -7.79, Lng: 110.36, Accuracy: 15},
	}))
	msg, _ = readUntil(t, conn, CmdState)
	require.NotNil(t, decodeState(t, msg).UserPosition)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSessionRejectsBadEvents(t *testing.T) {
	t.Parallel()
	_, srv := newTestHub(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, CmdState)

	tests := []struct {
		name  string
		event string
	}{
		{name: "unknown type", event: `{"type":"teleport"}`},
		{name: "malformed", event: `{"type":`},
		{name: "unknown location", event: `{"type":"select","id":"atlantis"}`},
		{name: "unknown category", event: `{"type":"category.toggle","category":"casino"}`},
		{name: "missing center", event: `{"type":"view.change","zoom":12}`},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.event)), tt.name)
		msg, _ := readUntil(t, conn, CmdError)
		var e eventError
		require.NoError(t, json.Unmarshal(msg.Data, &e), tt.name)
		require.NotEmpty(t, e.Message, tt.name)
	}

	// The session is still usable.
	readUntil(t, conn, CmdState)
	require.NoError(t, conn.WriteJSON(Event{Type: "zoom.in"}))
	msg, _ := readUntil(t, conn, CmdState)
	require.Equal(t, mapview.DefaultZoom+1, decodeState(t, msg).Zoom)
}

func TestShutdownRacesAttach(t *testing.T) {
	hub, _ := newTestHub(t)
	ds, err := dataset.Default()
	require.NoError(t, err)

	early := newSession("early", nil, hub, zap.NewNop())
	early.shutdown("test")
	v, err := mapview.New(ds, early, mapview.Options{})
	require.NoError(t, err)
	require.False(t, early.attach(v))
	require.NoError(t, v.Close())

	late := newSession("late", nil, hub, zap.NewNop())
	v, err = mapview.New(ds, late, mapview.Options{})
	require.NoError(t, err)
	require.True(t, late.attach(v))
	late.shutdown("test")
	require.ErrorIs(t, v.Close(), mapview.ErrClosed)
}

func TestHubCloseEndsSessions(t *testing.T) {
	t.Parallel()
	hub, srv := newTestHub(t)
	conn := dial(t, srv, "")
	readUntil(t, conn, CmdState)
	require.Equal(t, 1, hub.Len())

	hub.Close()
	require.Equal(t, 0, hub.Len())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  string
		header string
		want   dataset.Locale
	}{
		{name: "query wins", query: "?lang=en", header: "id-ID", want: dataset.English},
		{name: "header", header: "en-GB,en;q=0.9", want: dataset.English},
		{name: "indonesian header", header: "id", want: dataset.Indonesian},
		{name: "fallback", want: dataset.English},
		{name: "bad query falls through", query: "?lang=jv", want: dataset.English},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		if tt.header != "" {
			r.Header.Set("Accept-Language", tt.header)
		}
		require.Equal(t, tt.want, RequestLocale(r, dataset.English), tt.name)
	}
}

func TestCheckOrigin(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://evil.example")
	require.True(t, checkOrigin(nil)(r))
	require.True(t, checkOrigin([]string{"*"})(r))
	require.False(t, checkOrigin([]string{"https://jogjamap.id"})(r))
	r.Header.Set("Origin", "https://jogjamap.id")
	require.True(t, checkOrigin([]string{"https://jogjamap.id"})(r))
}

func TestDispatchCoversEveryEvent(t *testing.T) {
	t.Parallel()
	ds, err := dataset.Default()
	require.NoError(t, err)
	v, err := mapview.New(ds, mapview.EmitterFunc(func(mapview.Command) {}), mapview.Options{})
	require.NoError(t, err)
	defer v.Close()

	center := dataset.CityCenter
	size := &mapview.Size{Width: 1280, Height: 720}
	events := []Event{
		{Type: "marker.click", ID: "tugu-yogyakarta"},
		{Type: "select", ID: "keraton-yogyakarta"},
		{Type: "detail.tab", Tab: "media"},
		{Type: "detail.collapse", Collapsed: true},
		{Type: "related.choose", ID: "taman-sari"},
		{Type: "detail.close"},
		{Type: "search.open"},
		{Type: "search.query", Query: "pasar"},
		{Type: "search.collapse", Collapsed: true},
		{Type: "search.choose", ID: "pasar-beringharjo"},
		{Type: "search.close"},
		{Type: "category.toggle", Category: "market"},
		{Type: "theme.set", Theme: "dark"},
		{Type: "locale.set", Locale: "en"},
		{Type: "satellite.toggle"},
		{Type: "fullscreen.toggle"},
		{Type: "fullscreen.result", Error: "NotAllowedError"},
		{Type: "fullscreen.change", Active: true, Container: size},
		{Type: "zoom.in"},
		{Type: "zoom.out"},
		{Type: "view.change", Center: &center, Zoom: 12, Container: size},
		{Type: "resize", Container: size},
		{Type: "geolocate"},
		{Type: "geolocate.result", Position: &mapview.Position{Lat: -7.8, Lng: 110.37, Accuracy: 8}},
		{Type: "geolocate.error", Code: 1, Message: "denied"},
	}
	for _, ev := range events {
		require.NoError(t, dispatch(v, ev), ev.Type)
	}

	state := v.State()
	require.Equal(t, dataset.English, state.Locale)
	require.True(t, state.Satellite)
	require.True(t, state.Fullscreen)
	require.Equal(t, 12, state.Zoom)
	require.NotContains(t, state.ActiveCategories, dataset.Market)

	require.ErrorIs(t, dispatch(v, Event{Type: "teleport"}), ErrUnknownEvent)
}
