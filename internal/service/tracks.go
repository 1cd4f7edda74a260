package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rallykat/rallykat/internal/gpx"
)

type TrackCatalog struct {
	Groups  []gpx.ItemGroup   `json:"groups"`
	Default *gpx.Item         `json:"default"`
	Colors  []gpx.ColorOption `json:"colors"`
}

type TrackService struct {
	source  gpx.Source
	uploads *gpx.Uploads
}

func NewTrackService(source gpx.Source, uploads *gpx.Uploads) *TrackService {
	return &TrackService{source: source, uploads: uploads}
}

func (s *TrackService) Files(ctx context.Context) ([]string, error) {
	files, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tracks: %w", err)
	}
	return files, nil
}

// Open returns the raw GPX file as stored by the source.
func (s *TrackService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.source.Open(ctx, name)
}

func (s *TrackService) Catalog(ctx context.Context) (TrackCatalog, error) {
	files, err := s.Files(ctx)
	if err != nil {
		return TrackCatalog{}, err
	}

	items := append(gpx.ParseItems(files), s.uploads.Items()...)
	catalog := TrackCatalog{
		Groups: gpx.GroupItems(items),
		Colors: gpx.Palette,
	}
	if def, ok := gpx.DefaultItem(items); ok {
		catalog.Default = &def
	}
	return catalog, nil
}

// Load resolves a catalog name to its track points. Uploaded tracks are
// served from memory; everything else goes through the source.
func (s *TrackService) Load(ctx context.Context, name string) (gpx.Item, []gpx.TrackPoint, error) {
	if up, ok := s.uploads.Get(name); ok {
		return up.Item, up.Points, nil
	}

	rc, err := s.source.Open(ctx, name)
	if err != nil {
		return gpx.Item{}, nil, err
	}
	defer rc.Close()

	points, err := gpx.Parse(rc)
	if err != nil {
		return gpx.Item{}, nil, fmt.Errorf("error reading %s: %w", name, err)
	}
	if len(points) == 0 {
		return gpx.Item{}, nil, gpx.ErrNoTrackPoints
	}
	return gpx.ParseItem(name), points, nil
}

func (s *TrackService) MapView(ctx context.Context, name, startColor, endColor string) (gpx.MapView, error) {
	item, points, err := s.Load(ctx, name)
	if err != nil {
		return gpx.MapView{}, err
	}
	return gpx.NewMapView(item, points, startColor, endColor)
}

// Upload parses a user supplied GPX file and adds it to the catalog.
func (s *TrackService) Upload(fileName string, r io.Reader) (gpx.Item, error) {
	points, err := gpx.Parse(r)
	if err != nil {
		return gpx.Item{}, fmt.Errorf("error reading upload: %w", err)
	}
	if len(points) == 0 {
		return gpx.Item{}, gpx.ErrNoTrackPoints
	}
	return s.uploads.Add(fileName, points), nil
}

func (s *TrackService) TracksReport(ctx context.Context) (string, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("🗺️ *Tracks*\n\n")
	if len(catalog.Groups) == 0 {
		sb.WriteString("No tracks available.")
		return sb.String(), nil
	}
	for _, g := range catalog.Groups {
		sb.WriteString(fmt.Sprintf("*%s*\n", EscapeMarkdown(g.SeriesName)))
		for _, it := range g.Items {
			if it.RaceNumber != nil {
				sb.WriteString(fmt.Sprintf("  • Race %d: %s\n", *it.RaceNumber, EscapeMarkdown(it.Label)))
			} else {
				sb.WriteString(fmt.Sprintf("  • %s\n", EscapeMarkdown(it.Label)))
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
