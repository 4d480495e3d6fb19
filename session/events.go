package session

import (
	"errors"
	"fmt"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
)

const (
	// CmdState carries a mapview.State snapshot after every handled event.
	CmdState mapview.CommandType = "state"
	// CmdError reports an event the session could not apply.
	CmdError mapview.CommandType = "error"
	// CmdHello is the first message of a session and carries its id.
	CmdHello mapview.CommandType = "hello"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is a message from the browser renderer. Only the fields used by Type
// are set.
type Event struct {
	Type      string               `json:"type"`
	ID        string               `json:"id,omitempty"`
	ClusterID int                  `json:"clusterId,omitempty"`
	Tab       string               `json:"tab,omitempty"`
	Collapsed bool                 `json:"collapsed,omitempty"`
	Query     string               `json:"query,omitempty"`
	Category  string               `json:"category,omitempty"`
	Theme     string               `json:"theme,omitempty"`
	Locale    string               `json:"locale,omitempty"`
	Active    bool                 `json:"active,omitempty"`
	Error     string               `json:"error,omitempty"`
	Container *mapview.Size        `json:"container,omitempty"`
	Center    *dataset.Coordinates `json:"center,omitempty"`
	Zoom      int                  `json:"zoom,omitempty"`
	Position  *mapview.Position    `json:"position,omitempty"`
	Code      int                  `json:"code,omitempty"`
	Message   string               `json:"message,omitempty"`
}

type eventError struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// dispatch applies ev to v.
func dispatch(v *mapview.Viewer, ev Event) error {
	switch ev.Type {
	case "marker.click":
		return v.ClickMarker(ev.ID)
	case "cluster.click":
		_, err := v.ClickCluster(ev.ClusterID)
		return err
	case "select":
		return v.Select(ev.ID)
	case "detail.close":
		return v.CloseDetail()
	case "detail.tab":
		tab, err := mapview.ParseDetailTab(ev.Tab)
		if err != nil {
			return err
		}
		return v.SetDetailTab(tab)
	case "detail.collapse":
		return v.CollapseDetail(ev.Collapsed)
	case "related.choose":
		return v.ChooseRelated(ev.ID)
	case "search.open":
		return v.OpenSearch()
	case "search.close":
		return v.CloseSearch()
	case "search.collapse":
		return v.CollapseSearch(ev.Collapsed)
	case "search.query":
		_, err := v.SetQuery(ev.Query)
		return err
	case "search.choose":
		return v.ChooseResult(ev.ID)
	case "category.toggle":
		c, err := dataset.ParseCategory(ev.Category)
		if err != nil {
			return err
		}
		return v.ToggleCategory(c)
	case "theme.set":
		theme, err := mapview.ParseTheme(ev.Theme)
		if err != nil {
			return err
		}
		return v.SetTheme(theme)
	case "locale.set":
		locale, err := dataset.ParseLocale(ev.Locale)
		if err != nil {
			return err
		}
		return v.SetLocale(locale)
	case "satellite.toggle":
		return v.ToggleSatellite()
	case "fullscreen.toggle":
		return v.ToggleFullscreen()
	case "fullscreen.result":
		return v.HandleFullscreenResult(ev.Error)
	case "fullscreen.change":
		return v.HandleFullscreenChange(ev.Active, containerOf(ev))
	case "zoom.in":
		return v.ZoomIn()
	case "zoom.out":
		return v.ZoomOut()
	case "view.change":
		if ev.Center == nil {
			return fmt.Errorf("%s: center missing", ev.Type)
		}
		if ev.Container != nil {
			if err := v.HandleResize(*ev.Container); err != nil {
				return err
			}
		}
		return v.HandleViewChange(*ev.Center, ev.Zoom)
	case "resize":
		return v.HandleResize(containerOf(ev))
	case "geolocate":
		return v.Locate()
	case "geolocate.result":
		if ev.Position == nil {
			return fmt.Errorf("%s: position missing", ev.Type)
		}
		return v.HandlePosition(*ev.Position)
	case "geolocate.error":
		_, err := v.HandlePositionError(ev.Code, ev.Message)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
}

func containerOf(ev Event) mapview.Size {
	if ev.Container == nil {
		return mapview.Size{}
	}
	return *ev.Container
}
