package bracket

import (
	"fmt"

	"github.com/rallykat/rallykat/internal/models"
)

type PlacedCard struct {
	Card
	Rect Rect
}

type ColumnView struct {
	Level  int
	Header string
	X      float64
	Cards  []PlacedCard
}

// View is a fully laid out bracket ready to render.
type View struct {
	Columns    []ColumnView
	Connectors []Connector
	Width      float64
	Height     float64
}

func (v View) Empty() bool {
	return len(v.Columns) == 0
}

// Build recomputes the whole bracket from scratch: grouping, layout, cards
// and connectors.
func Build(heats []models.Heat, g Geometry) View {
	columns := GroupByLevel(heats)
	if len(columns) == 0 {
		return View{}
	}

	finalLevel, _ := FinalLevel(columns)
	layout := Compute(columns, g)

	view := View{
		Columns:    make([]ColumnView, len(columns)),
		Connectors: Connectors(columns, layout),
		Width:      layout.Width,
		Height:     layout.Height,
	}

	for c, column := range columns {
		cv := ColumnView{
			Level:  column.Level,
			Header: fmt.Sprintf("Round %d", column.Level),
			X:      g.columnX(c),
			Cards:  make([]PlacedCard, len(column.Heats)),
		}
		if column.Level == finalLevel {
			cv.Header = "Final"
		}
		for i, heat := range column.Heats {
			key := NodeKey{Level: column.Level, Index: i}
			rect, _ := layout.Measure(key)
			cv.Cards[i] = PlacedCard{
				Card: NewCard(key, heat, column.Level == finalLevel),
				Rect: rect,
			}
		}
		view.Columns[c] = cv
	}
	return view
}
