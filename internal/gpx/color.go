package gpx

import (
	"regexp"
	"strings"
)

const (
	DefaultStartColor = "#FF0000"
	DefaultEndColor   = "#FF7A00"
)

type ColorOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Palette = []ColorOption{
	{Name: "Red", Value: "red"},
	{Name: "Orange", Value: "#FF7A00"},
	{Name: "Yellow", Value: "yellow"},
	{Name: "Green", Value: "green"},
	{Name: "Blue", Value: "blue"},
	{Name: "Cyan", Value: "#00FFAA"},
	{Name: "Magenta", Value: "magenta"},
	{Name: "Purple", Value: "purple"},
	{Name: "White", Value: "#FFFFFF"},
	{Name: "Black", Value: "#000000"},
}

var hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

var namedColors = map[string]bool{
	"black": true, "white": true, "red": true, "orange": true, "yellow": true,
	"green": true, "blue": true, "cyan": true, "magenta": true, "purple": true,
	"pink": true, "gray": true, "grey": true, "lime": true, "navy": true,
	"teal": true, "aqua": true, "fuchsia": true, "maroon": true, "olive": true,
	"silver": true, "gold": true, "brown": true, "coral": true, "crimson": true,
	"indigo": true, "violet": true, "tomato": true, "turquoise": true,
}

func ValidColor(c string) bool {
	c = strings.TrimSpace(c)
	return hexColor.MatchString(c) || namedColors[strings.ToLower(c)]
}

func colorOr(c, fallback string) string {
	if ValidColor(c) {
		return strings.TrimSpace(c)
	}
	return fallback
}
