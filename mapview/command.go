package mapview

// CommandType names an instruction for the browser renderer.
type CommandType string

const (
	CmdMapInit           CommandType = "map.init"
	CmdMapDestroy        CommandType = "map.destroy"
	CmdLayerAdd          CommandType = "layer.add"
	CmdLayerRemove       CommandType = "layer.remove"
	CmdLayerReplace      CommandType = "layer.replace"
	CmdClusterRender     CommandType = "cluster.render"
	CmdClusterSpiderfy   CommandType = "cluster.spiderfy"
	CmdCameraFly         CommandType = "camera.fly"
	CmdCameraPan         CommandType = "camera.pan"
	CmdCameraZoom        CommandType = "camera.zoom"
	CmdCameraFit         CommandType = "camera.fit"
	CmdInvalidateSize    CommandType = "size.invalidate"
	CmdFullscreenRequest CommandType = "fullscreen.request"
	CmdFullscreenExit    CommandType = "fullscreen.exit"
	CmdGeolocate         CommandType = "geolocate"
	CmdNotify            CommandType = "notify"
	CmdSelection         CommandType = "selection"
)

// Command is one instruction sent to the renderer. Layer names the layer the
// command applies to; Replaces names the layer swapped out by layer.replace.
type Command struct {
	Type     CommandType `json:"type"`
	Layer    string      `json:"layer,omitempty"`
	Replaces string      `json:"replaces,omitempty"`
	Data     any         `json:"data,omitempty"`
}

// Emitter receives commands in the order the viewer issues them. Emit is
// called with the viewer lock held and must not block or call back into it.
type Emitter interface {
	Emit(Command)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Command)

func (f EmitterFunc) Emit(c Command) { f(c) }

type cameraMove struct {
	Center   LatLng  `json:"center"`
	Zoom     int     `json:"zoom"`
	Duration float64 `json:"duration,omitempty"`
}

type notification struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
