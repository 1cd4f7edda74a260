package gpx

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const uploadPrefix = "upload-"

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9-]+`)

type Upload struct {
	Item   Item
	Points []TrackPoint
}

// Uploads keeps user supplied tracks for the life of the process.
type Uploads struct {
	mu      sync.RWMutex
	entries map[string]Upload
}

func NewUploads() *Uploads {
	return &Uploads{entries: make(map[string]Upload)}
}

func uploadKey(fileName string) string {
	safe := unsafeChars.ReplaceAllString(BaseName(stripDir(fileName)), "-")
	safe = strings.Trim(safe, "-")
	if safe == "" {
		safe = "upload"
	}
	return uploadPrefix + safe
}

// stripDir drops any directory part a browser may send with the file name.
func stripDir(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			return name[i+1:]
		}
	}
	return name
}

// Add stores the points and returns the catalog item. Points must be
// non-empty; callers reject empty tracks with ErrNoTrackPoints first.
func (u *Uploads) Add(fileName string, points []TrackPoint) Item {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := uploadKey(fileName)
	if _, taken := u.entries[key]; taken {
		key = key + "-" + uuid.NewString()
	}

	label := capitalizeWords(BaseName(stripDir(fileName)))
	if label == "" {
		label = "Uploaded Track"
	}
	item := Item{
		FileName:   key,
		BaseName:   key,
		SeriesName: UploadsSeries,
		CourseName: label,
		Label:      label,
	}
	u.entries[key] = Upload{Item: item, Points: append([]TrackPoint(nil), points...)}
	return item
}

func (u *Uploads) Get(key string) (Upload, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	up, ok := u.entries[key]
	return up, ok
}

func (u *Uploads) Items() []Item {
	u.mu.RLock()
	defer u.mu.RUnlock()

	items := make([]Item, 0, len(u.entries))
	for _, up := range u.entries {
		items = append(items, up.Item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FileName < items[j].FileName })
	return items
}
