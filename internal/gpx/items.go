package gpx

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	OtherSeries   = "Other"
	UploadsSeries = "Uploads"
)

var (
	itemPattern   = regexp.MustCompile(`^([^-]+)-(\d+)-(.+)$`)
	gpxExtPattern = regexp.MustCompile(`(?i)\.gpx$`)
	separators    = regexp.MustCompile(`[-_]+`)
	spaces        = regexp.MustCompile(`\s+`)
	wordStart     = regexp.MustCompile(`\b\w`)
)

// Item is one selectable track. File names follow series-raceNumber-course.
type Item struct {
	FileName   string `json:"file_name"`
	BaseName   string `json:"base_name"`
	SeriesName string `json:"series_name"`
	RaceNumber *int   `json:"race_number"`
	CourseName string `json:"course_name"`
	Label      string `json:"label"`
}

type ItemGroup struct {
	SeriesName string `json:"series_name"`
	Items      []Item `json:"items"`
}

func BaseName(fileName string) string {
	return gpxExtPattern.ReplaceAllString(fileName, "")
}

func capitalizeWords(s string) string {
	s = separators.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

func ParseItem(fileName string) Item {
	base := BaseName(fileName)
	if m := itemPattern.FindStringSubmatch(base); m != nil {
		course := capitalizeWords(m[3])
		item := Item{
			FileName:   fileName,
			BaseName:   base,
			SeriesName: capitalizeWords(m[1]),
			CourseName: course,
			Label:      course,
		}
		if n, err := strconv.Atoi(m[2]); err == nil {
			item.RaceNumber = &n
		}
		return item
	}

	course := capitalizeWords(base)
	return Item{
		FileName:   fileName,
		BaseName:   base,
		SeriesName: OtherSeries,
		CourseName: course,
		Label:      course,
	}
}

func ParseItems(fileNames []string) []Item {
	items := make([]Item, len(fileNames))
	for i, name := range fileNames {
		items[i] = ParseItem(name)
	}
	return items
}

// GroupItems groups by series name (sorted), ordering each group by race
// number with unnumbered items last, then by label.
func GroupItems(items []Item) []ItemGroup {
	bySeries := make(map[string][]Item)
	for _, it := range items {
		bySeries[it.SeriesName] = append(bySeries[it.SeriesName], it)
	}

	groups := make([]ItemGroup, 0, len(bySeries))
	for name, list := range bySeries {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := raceOrder(list[i]), raceOrder(list[j])
			if a != b {
				return a < b
			}
			return list[i].Label < list[j].Label
		})
		groups = append(groups, ItemGroup{SeriesName: name, Items: list})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].SeriesName < groups[j].SeriesName
	})
	return groups
}

func raceOrder(it Item) int {
	if it.RaceNumber == nil {
		return int(^uint(0) >> 1)
	}
	return *it.RaceNumber
}

// DefaultItem picks the lowest race of the first series.
func DefaultItem(items []Item) (Item, bool) {
	groups := GroupItems(items)
	if len(groups) > 0 && len(groups[0].Items) > 0 {
		return groups[0].Items[0], true
	}
	if len(items) > 0 {
		return items[0], true
	}
	return Item{}, false
}
