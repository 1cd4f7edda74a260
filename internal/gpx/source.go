package gpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrFileNotFound = errors.New("gpx file not found")

// StatusError reports a GPX file that could not be retrieved. A 404 status
// matches ErrFileNotFound.
type StatusError struct {
	Name   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load GPX file: %d", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrFileNotFound && e.Status == http.StatusNotFound
}

func notFound(name string) error {
	return &StatusError{Name: name, Status: http.StatusNotFound}
}

// Source lists and opens GPX files by name.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func isGPX(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".gpx")
}

func (s *DirSource) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading gpx directory: %w", err)
	}

	files := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !isGPX(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || !isGPX(name) {
		return nil, notFound(name)
	}

	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening gpx file: %w", err)
	}
	return f, nil
}

// HTTPSource reads the listing and files of another running instance.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type fileListing struct {
	Files []string `json:"files"`
	Error string   `json:"error,omitempty"`
}

func (s *HTTPSource) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/gpx-files", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	var listing fileListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("failed to fetch GPX files: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if listing.Error != "" {
		return nil, errors.New(listing.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch GPX files: %d", resp.StatusCode)
	}
	if listing.Files == nil {
		listing.Files = []string{}
	}
	return listing.Files, nil
}

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/gpx/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Name: name, Status: resp.StatusCode}
	}
	return resp.Body, nil
}
