package mapview

import (
	"fmt"

	"github.com/michalswi/jogjamap/dataset"
)

// Select makes id the selected location: the detail sidebar opens on its Info
// tab and the camera flies to it at FocusZoom. The category filter is left
// alone, so a location whose category is hidden can still be selected.
func (v *Viewer) Select(id string) error {
	return v.locked(func() error {
		return v.selectByID(id)
	})
}

func (v *Viewer) selectByID(id string) error {
	loc, ok := v.ds.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, id)
	}
	v.selectLocation(loc)
	return nil
}

func (v *Viewer) selectLocation(loc dataset.Location) {
	v.selected = &loc
	v.detail.tab = TabInfo
	v.detail.open = true
	v.detail.collapsed = false

	// Always the same deep zoom so the marker is never hidden in a cluster.
	v.canvas.FlyTo(loc.Coordinates, FocusZoom, FlyDuration)
	v.renderClusters()
	v.selectionChanged()
}

func (v *Viewer) selectionChanged() {
	var id *string
	var snapshot *dataset.Location
	if v.selected != nil {
		id = &v.selected.ID
		c := v.selected.Clone()
		snapshot = &c
	}
	v.emit.Emit(Command{Type: CmdSelection, Data: struct {
		ID *string `json:"id"`
	}{id}})
	if v.onSelect != nil {
		cb := v.onSelect
		v.after = append(v.after, func() { cb(snapshot) })
	}
}

// CloseDetail hides the detail sidebar. The selection and camera stay put.
func (v *Viewer) CloseDetail() error {
	return v.locked(func() error {
		v.detail.open = false
		return nil
	})
}

// ClearSelection returns to the idle state with nothing selected.
func (v *Viewer) ClearSelection() error {
	return v.locked(func() error {
		if v.selected == nil {
			return nil
		}
		v.selected = nil
		v.detail.open = false
		v.selectionChanged()
		return nil
	})
}

// Selected returns the selected location, if any.
func (v *Viewer) Selected() (dataset.Location, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return dataset.Location{}, false
	}
	return v.selected.Clone(), true
}
