package bracket

// Geometry sizes match cards and the gaps between them, in CSS pixels.
type Geometry struct {
	CardWidth    float64
	RowHeight    float64
	MetaHeight   float64
	ColumnGap    float64
	CardGap      float64
	HeaderHeight float64
	Padding      float64
}

var DefaultGeometry = Geometry{
	CardWidth:    200,
	RowHeight:    28,
	MetaHeight:   22,
	ColumnGap:    64,
	CardGap:      16,
	HeaderHeight: 32,
	Padding:      16,
}

// Layout is the measured position of every node after a layout pass.
type Layout struct {
	rects  map[NodeKey]Rect
	Width  float64
	Height float64
}

func (l *Layout) Measure(key NodeKey) (Rect, bool) {
	r, ok := l.rects[key]
	return r, ok
}

func (g Geometry) cardHeight(players int) float64 {
	return g.MetaHeight + float64(max(players, minRows))*g.RowHeight
}

func (g Geometry) columnX(col int) float64 {
	return g.Padding + float64(col)*(g.CardWidth+g.ColumnGap)
}

// Compute stacks the first column and centers each later node between its
// existing predecessors, never letting cards in a column overlap.
func Compute(columns []Column, g Geometry) *Layout {
	l := &Layout{rects: make(map[NodeKey]Rect)}
	top := g.Padding + g.HeaderHeight
	bottom := top

	for col, column := range columns {
		x := g.columnX(col)
		cursor := top
		for i, heat := range column.Heats {
			h := g.cardHeight(len(heat.Players))
			y := cursor

			if col > 0 {
				if center, ok := l.predecessorCenter(columns[col-1].Level, i); ok {
					y = max(center-h/2, cursor)
				}
			}

			r := Rect{X: x, Y: y, Width: g.CardWidth, Height: h}
			l.rects[NodeKey{Level: column.Level, Index: i}] = r
			cursor = r.Bottom() + g.CardGap
			bottom = max(bottom, r.Bottom())
		}
	}

	if len(columns) > 0 {
		l.Width = g.columnX(len(columns)-1) + g.CardWidth + g.Padding
		l.Height = bottom + g.Padding
	}
	return l
}

func (l *Layout) predecessorCenter(prevLevel, i int) (float64, bool) {
	a, b := Predecessors(i)
	var sum float64
	var n int
	for _, idx := range []int{a, b} {
		if r, ok := l.rects[NodeKey{Level: prevLevel, Index: idx}]; ok {
			sum += r.Y + r.Height/2
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
