// Package bracket lays out single-elimination heats as columns of match cards
// joined by curved connectors.
package bracket

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rallykat/rallykat/internal/models"
)

// Column holds the heats of one level ordered by round.
type Column struct {
	Level int
	Heats []models.Heat
}

// GroupByLevel drops heats without a numeric level, groups the rest by level
// and orders heats by round within a level and columns by level.
func GroupByLevel(heats []models.Heat) []Column {
	byLevel := make(map[int][]models.Heat)
	for _, h := range heats {
		if h.Level == nil {
			continue
		}
		byLevel[*h.Level] = append(byLevel[*h.Level], h)
	}

	columns := make([]Column, 0, len(byLevel))
	for level, hs := range byLevel {
		sort.SliceStable(hs, func(i, j int) bool {
			return hs[i].RoundOrZero() < hs[j].RoundOrZero()
		})
		columns = append(columns, Column{Level: level, Heats: hs})
	}

	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Level < columns[j].Level
	})
	return columns
}

// FinalLevel is the level of the last column.
func FinalLevel(columns []Column) (int, bool) {
	if len(columns) == 0 {
		return 0, false
	}
	return columns[len(columns)-1].Level, true
}

// Predecessors returns the indices in the previous column that feed node i.
func Predecessors(i int) (int, int) {
	return 2 * i, 2*i + 1
}

// NodeKey identifies a rendered match card by level and in-column index.
type NodeKey struct {
	Level int
	Index int
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%d-%d", k.Level, k.Index)
}

type Point struct {
	X, Y float64
}

type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) CenterLeft() Point {
	return Point{X: r.X, Y: r.Y + r.Height/2}
}

func (r Rect) CenterRight() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height/2}
}

func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Measurer reports the current rectangle of a rendered node. It is queried
// only after layout has run.
type Measurer interface {
	Measure(key NodeKey) (Rect, bool)
}

// Connector is a cubic S-curve from a predecessor's right edge to its
// successor's left edge.
type Connector struct {
	From, To NodeKey
	Start    Point
	C1, C2   Point
	End      Point
}

// NewConnector places both control points at the horizontal midpoint, the
// first at the start's height and the second at the end's height.
func NewConnector(from, to NodeKey, start, end Point) Connector {
	midX := (start.X + end.X) / 2
	return Connector{
		From:  from,
		To:    to,
		Start: start,
		C1:    Point{X: midX, Y: start.Y},
		C2:    Point{X: midX, Y: end.Y},
		End:   end,
	}
}

// D renders the connector as an SVG path.
func (c Connector) D() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.Start.X), num(c.Start.Y),
		num(c.C1.X), num(c.C1.Y),
		num(c.C2.X), num(c.C2.Y),
		num(c.End.X), num(c.End.Y))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Connectors links every node to its existing predecessors. Missing or
// unmeasurable predecessors produce no connector.
func Connectors(columns []Column, m Measurer) []Connector {
	var connectors []Connector
	for col := 0; col < len(columns)-1; col++ {
		prev := columns[col]
		next := columns[col+1]
		for n := range next.Heats {
			toKey := NodeKey{Level: next.Level, Index: n}
			toRect, ok := m.Measure(toKey)
			if !ok {
				continue
			}
			end := toRect.CenterLeft()

			a, b := Predecessors(n)
			for _, idx := range []int{a, b} {
				if idx >= len(prev.Heats) {
					continue
				}
				fromKey := NodeKey{Level: prev.Level, Index: idx}
				fromRect, ok := m.Measure(fromKey)
				if !ok {
					continue
				}
				connectors = append(connectors, NewConnector(fromKey, toKey, fromRect.CenterRight(), end))
			}
		}
	}
	return connectors
}
