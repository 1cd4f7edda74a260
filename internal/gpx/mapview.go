package gpx

const (
	CameraPitch   = 45
	CameraPadding = 200
	CameraMaxZoom = 18
	PointZoom     = 17
)

type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   LineString     `json:"geometry"`
}

// Camera describes how the browser map frames the track. When Bounds is nil
// the map jumps to Center at Zoom.
type Camera struct {
	Center  [2]float64     `json:"center"`
	Pitch   float64        `json:"pitch"`
	Padding int            `json:"padding"`
	MaxZoom float64        `json:"max_zoom"`
	Zoom    float64        `json:"zoom,omitempty"`
	Bounds  *[2][2]float64 `json:"bounds,omitempty"`
}

type MapView struct {
	Item       Item    `json:"item"`
	Feature    Feature `json:"feature"`
	Gradient   []any   `json:"gradient"`
	StartColor string  `json:"start_color"`
	EndColor   string  `json:"end_color"`
	Camera     Camera  `json:"camera"`
}

// GradientExpression colors the line start -> end -> start along its length.
func GradientExpression(start, end string) []any {
	return []any{
		"interpolate",
		[]any{"linear"},
		[]any{"line-progress"},
		0, start,
		0.5, end,
		1, start,
	}
}

func NewMapView(item Item, points []TrackPoint, start, end string) (MapView, error) {
	b, ok := BoundingBox(points)
	if !ok {
		return MapView{}, ErrNoTrackPoints
	}

	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Lon, p.Lat}
	}

	start = colorOr(start, DefaultStartColor)
	end = colorOr(end, DefaultEndColor)

	cam := Camera{
		Center:  b.Center(),
		Pitch:   CameraPitch,
		Padding: CameraPadding,
		MaxZoom: CameraMaxZoom,
	}
	if b.ZeroArea() {
		cam.Zoom = PointZoom
	} else {
		cam.Bounds = &[2][2]float64{{b.MinLon, b.MinLat}, {b.MaxLon, b.MaxLat}}
	}

	return MapView{
		Item: item,
		Feature: Feature{
			Type:       "Feature",
			Properties: map[string]any{"name": item.Label},
			Geometry:   LineString{Type: "LineString", Coordinates: coords},
		},
		Gradient:   GradientExpression(start, end),
		StartColor: start,
		EndColor:   end,
		Camera:     cam,
	}, nil
}
