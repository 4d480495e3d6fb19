package mapview

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/michalswi/jogjamap/dataset"
)

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
	clock   *fakeClock
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 8, 17, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f, clock: c}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs the timers that came due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type recorder struct {
	mu       sync.Mutex
	commands []Command
}

func (r *recorder) Emit(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

func (r *recorder) all() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.commands)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

func (r *recorder) of(kind CommandType) []Command {
	var out []Command
	for _, c := range r.all() {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) types() []CommandType {
	var out []CommandType
	for _, c := range r.all() {
		out = append(out, c.Type)
	}
	return out
}

var testContainer = Size{Width: 800, Height: 600}

type harness struct {
	v     *Viewer
	rec   *recorder
	clock *fakeClock
	ds    *dataset.Dataset
}

func newHarness(t *testing.T, ds *dataset.Dataset, opts Options) *harness {
	t.Helper()
	if ds == nil {
		var err error
		ds, err = dataset.Default()
		require.NoError(t, err)
	}
	h := &harness{rec: &recorder{}, clock: newFakeClock(), ds: ds}
	opts.Clock = h.clock
	if opts.Container.Empty() {
		opts.Container = testContainer
	}
	v, err := New(ds, h.rec, opts)
	require.NoError(t, err)
	h.v = v
	t.Cleanup(func() { _ = v.Close() })
	return h
}

func place(id string, c dataset.Category, lat, lng float64) dataset.Location {
	return dataset.Location{
		ID:          id,
		Category:    c,
		Name:        dataset.Localized{ID: "Tempat " + id, EN: "Place " + id},
		Description: dataset.Localized{ID: "Deskripsi " + id, EN: "Description " + id},
		Address:     dataset.Localized{ID: "Jalan " + id, EN: "Street " + id},
		Coordinates: dataset.Coordinates{Lat: lat, Lng: lng},
	}
}

func mustDataset(t *testing.T, locs ...dataset.Location) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(locs)
	require.NoError(t, err)
	return ds
}

func ids(locs []dataset.Location) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.ID)
	}
	return out
}

func TestNewMountsBoundedMap(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	cmds := h.rec.all()
	require.NotEmpty(t, cmds)
	require.Equal(t, CmdMapInit, cmds[0].Type)
	mo, ok := cmds[0].Data.(MapOptions)
	require.True(t, ok)
	require.Equal(t, MinZoom, mo.MinZoom)
	require.Equal(t, MaxZoom, mo.MaxZoom)
	require.Equal(t, DefaultZoom, mo.Zoom)
	require.Equal(t, dataset.OperationalBounds, mo.MaxBounds)
	require.InDelta(t, 0.8, mo.MaxBoundsViscosity, 1e-9)

	s := h.v.State()
	require.Equal(t, dataset.Indonesian, s.Locale)
	require.Equal(t, ThemeLight, s.Theme)
	require.Equal(t, "light", s.BaseLayer)
	require.Equal(t, dataset.Categories(), s.ActiveCategories)
	require.Nil(t, s.Selected)
	require.Nil(t, s.UserPosition)
	require.Equal(t, DefaultZoom, s.Zoom)
	require.Equal(t, dataset.CityCenter, s.Center)
	require.Empty(t, s.Results)

	require.Len(t, h.v.canvas.LayersOf(KindTile), 1)
	require.Len(t, h.v.canvas.LayersOf(KindCluster), 1)
	require.Equal(t, ids(h.ds.All()), ids(h.v.RenderedMarkers()))
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()
	ds, err := dataset.Default()
	require.NoError(t, err)

	_, err = New(nil, &recorder{}, Options{})
	require.Error(t, err)
	_, err = New(ds, nil, Options{})
	require.Error(t, err)
	_, err = New(ds, &recorder{}, Options{Locale: "fr"})
	require.Error(t, err)
	_, err = New(ds, &recorder{}, Options{Theme: "sepia"})
	require.Error(t, err)
}

func TestCloseTearsDown(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	require.NoError(t, h.v.HandlePosition(Position{Lat: -7.79, Lng: 110.36, Accuracy: 20}))
	require.NoError(t, h.v.HandleResize(Size{Width: 640, Height: 480}))
	require.NoError(t, h.v.Close())
	require.Empty(t, h.v.Layers())
	require.Contains(t, h.rec.types(), CmdMapDestroy)

	h.rec.reset()
	h.clock.Advance(time.Second)
	require.Empty(t, h.rec.all(), "pending size refresh must not fire after close")

	require.ErrorIs(t, h.v.Select("malioboro"), ErrClosed)
	require.ErrorIs(t, h.v.ZoomIn(), ErrClosed)
	require.ErrorIs(t, h.v.Close(), ErrClosed)
	_, ok := h.v.UserPosition()
	require.False(t, ok)
}

func TestSelectionCallbackRunsUnlocked(t *testing.T) {
	t.Parallel()

	var got []*dataset.Location
	var h *harness
	h = newHarness(t, nil, Options{OnSelectionChange: func(loc *dataset.Location) {
		// Reading state from the callback must not deadlock.
		_ = h.v.State()
		got = append(got, loc)
	}})

	require.NoError(t, h.v.Select("malioboro"))
	require.NoError(t, h.v.ClearSelection())

	require.Len(t, got, 2)
	require.NotNil(t, got[0])
	require.Equal(t, "malioboro", got[0].ID)
	require.Nil(t, got[1])
	require.Len(t, h.rec.of(CmdSelection), 2)
}

func TestUnknownInputs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	require.ErrorIs(t, h.v.Select("nope"), ErrUnknownLocation)
	require.ErrorIs(t, h.v.ToggleCategory(dataset.Category(99)), ErrUnknownCategory)
	require.ErrorIs(t, h.v.SetCategories(dataset.Heritage, dataset.Category(0)), ErrUnknownCategory)
	_, err := h.v.ClickCluster(99999)
	require.ErrorIs(t, err, ErrUnknownCluster)
	require.Error(t, h.v.SetTheme("sepia"))
	require.Error(t, h.v.SetLocale("de"))
	require.Error(t, h.v.SetDetailTab("reviews"))

	_, ok := h.v.Selected()
	require.False(t, ok)
}

func TestSetLocaleRecomputesSearch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	res, err := h.v.SetQuery("palace")
	require.NoError(t, err)
	require.Empty(t, res)

	require.NoError(t, h.v.SetLocale(dataset.English))
	require.Equal(t, dataset.English, h.v.Locale())
	require.Contains(t, ids(h.v.SearchResults()), "keraton-yogyakarta")

	s := h.v.State()
	require.Equal(t, dataset.English, s.Locale)
	require.NotEmpty(t, s.Results)
	require.Equal(t, "Yogyakarta Kraton Palace", s.Results[0].Name)
}

func TestStateDistanceToSelection(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, Options{})

	require.NoError(t, h.v.Select("tugu-yogyakarta"))
	require.Nil(t, h.v.State().DistanceMeters)

	tugu, _ := h.ds.Get("tugu-yogyakarta")
	require.NoError(t, h.v.HandlePosition(Position{Lat: tugu.Coordinates.Lat, Lng: tugu.Coordinates.Lng, Accuracy: 5}))
	s := h.v.State()
	require.NotNil(t, s.DistanceMeters)
	require.InDelta(t, 0, *s.DistanceMeters, 0.01)

	require.NoError(t, h.v.Select("malioboro"))
	s = h.v.State()
	require.NotNil(t, s.DistanceMeters)
	require.Greater(t, *s.DistanceMeters, 500.0)
	require.Less(t, *s.DistanceMeters, 2000.0)
}
