// Package gpx reads GPS tracks and prepares them for the map view.
package gpx

import (
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

var ErrNoTrackPoints = errors.New("No track points found in GPX")

type TrackPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Parse scans every trkpt element for its lat/lon attributes, in document
// order. Missing or unparsable values become 0. A document without trkpt
// elements yields an empty slice; callers report that as ErrNoTrackPoints.
func Parse(r io.Reader) ([]TrackPoint, error) {
	points := []TrackPoint{}
	dec := xml.NewDecoder(r)
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return points, nil
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				slog.Debug("GPX scan stopped at malformed XML", "line", syntaxErr.Line, "points", len(points))
				return points, nil
			}
			return points, err
		}

		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "trkpt" {
			continue
		}

		var p TrackPoint
		for _, a := range el.Attr {
			switch a.Name.Local {
			case "lat":
				p.Lat = parseFloat(a.Value)
			case "lon":
				p.Lon = parseFloat(a.Value)
			}
		}
		points = append(points, p)
	}
}

func ParseString(content string) ([]TrackPoint, error) {
	return Parse(strings.NewReader(content))
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundingBox returns false for an empty track.
func BoundingBox(points []TrackPoint) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b, true
}

// Center is the bounding box midpoint as [lon, lat].
func (b Bounds) Center() [2]float64 {
	return [2]float64{(b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2}
}

// ZeroArea reports whether all points collapse onto one coordinate.
func (b Bounds) ZeroArea() bool {
	return b.MinLat == b.MaxLat && b.MinLon == b.MaxLon
}

// Center is the midpoint of the track's bounding box as [lon, lat], used to
// place the map before the fitted camera is applied.
func Center(points []TrackPoint) ([2]float64, bool) {
	b, ok := BoundingBox(points)
	if !ok {
		return [2]float64{}, false
	}
	return b.Center(), true
}
