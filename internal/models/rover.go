package models

// Location is a point on the Martian surface. Sol is set only where the
// payload carries a mission-day association (e.g. the current position).
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Sol *int    `json:"sol,omitempty"`
}

// RoutePoint is one traversed position in the rover's route.
type RoutePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Sol int     `json:"sol"`
}

// Metrics is the synthesized engineering/environmental telemetry bundle.
type Metrics struct {
	Charge                int     `json:"charge"`                  // battery percentage
	Temperature           float64 `json:"temperature"`             // °C
	Radiation             float64 `json:"radiation"`               // µSv/h
	DustOpacity           float64 `json:"dust_opacity"`            // atmospheric tau
	DustStormActivity     int     `json:"dust_storm_activity"`     // 0-100
	DustAccumulation      float64 `json:"dust_accumulation"`       // mg/cm² on panels
	AtmosphericDustLevels int     `json:"atmospheric_dust_levels"` // µg/m³
}

// CameraImage is a single image attributed to a camera.
type CameraImage struct {
	URL       string   `json:"url"`
	Timestamp string   `json:"timestamp"`
	Location  Location `json:"location"`
}

// Camera groups images by camera name.
type Camera struct {
	Name   string        `json:"name"`
	Images []CameraImage `json:"images"`
}

// Header carries the response timestamp, rover status and selected sol.
type Header struct {
	EarthTime string `json:"earth_time"`
	Status    string `json:"status"`
	Sol       int    `json:"sol"`
}

// Timeline lists the sols surfaced to the client for scrubbing.
type Timeline struct {
	Sols        []int `json:"sols"`
	SelectedSol int   `json:"selected_sol"`
}

// MapData is the traversed route plus the rover's current position.
type MapData struct {
	Route           []RoutePoint `json:"route"`
	CurrentPosition Location     `json:"current_position"`
}

// Overlays holds data rendered on top of the map.
type Overlays struct {
	Metrics Metrics `json:"metrics"`
}

// RoverData is the aggregate response for one sol. The shape is identical
// whether or not the upstream photo fetch succeeded; Errors records any
// degradations applied while assembling it.
type RoverData struct {
	Header   Header   `json:"header"`
	Timeline Timeline `json:"timeline"`
	Map      MapData  `json:"map"`
	Overlays Overlays `json:"overlays"`
	Cameras  []Camera `json:"cameras"`
	Errors   []string `json:"errors"`
}
