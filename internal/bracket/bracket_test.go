package bracket

import (
	"testing"

	"github.com/rallykat/rallykat/internal/models"
)

func intPtr(v int) *int { return &v }

func heat(level, round int, players ...*models.Player) models.Heat {
	return models.Heat{Level: intPtr(level), Round: intPtr(round), Players: players}
}

func seededHeats(counts ...int) []models.Heat {
	var heats []models.Heat
	for level, n := range counts {
		for r := n; r >= 1; r-- {
			heats = append(heats, heat(level+1, r))
		}
	}
	return heats
}

func TestGroupByLevelOrdering(t *testing.T) {
	heats := []models.Heat{
		heat(2, 2), heat(1, 3), heat(3, 1), heat(1, 1), heat(2, 1), heat(1, 2),
		{Round: intPtr(1)}, // no numeric level
	}

	columns := GroupByLevel(heats)
	if len(columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(columns))
	}
	for c, column := range columns {
		if c > 0 && column.Level < columns[c-1].Level {
			t.Errorf("column %d level %d is before level %d", c, column.Level, columns[c-1].Level)
		}
		for i := 1; i < len(column.Heats); i++ {
			if column.Heats[i].RoundOrZero() < column.Heats[i-1].RoundOrZero() {
				t.Errorf("level %d not ordered by round at %d", column.Level, i)
			}
		}
	}
	if got := len(columns[0].Heats); got != 3 {
		t.Errorf("level 1 has %d heats, want 3", got)
	}
	if level, ok := FinalLevel(columns); !ok || level != 3 {
		t.Errorf("FinalLevel = %d, %v", level, ok)
	}
}

func TestGroupByLevelMissingRoundSortsFirst(t *testing.T) {
	columns := GroupByLevel([]models.Heat{heat(1, 2), {Level: intPtr(1), Key: "noround"}})
	if columns[0].Heats[0].Key != "noround" {
		t.Errorf("expected heat without round first, got %+v", columns[0].Heats[0])
	}
}

func TestConnectorsStandardSeedShape(t *testing.T) {
	columns := GroupByLevel(seededHeats(12, 6, 3, 1))
	layout := Compute(columns, DefaultGeometry)
	connectors := Connectors(columns, layout)

	if len(connectors) != 12+6+2 {
		t.Fatalf("expected 20 connectors, got %d", len(connectors))
	}

	perNode := make(map[NodeKey]int)
	for _, c := range connectors {
		perNode[c.To]++
		if c.From.Level != c.To.Level-1 {
			t.Errorf("connector %v -> %v skips a level", c.From, c.To)
		}
		a, b := Predecessors(c.To.Index)
		if c.From.Index != a && c.From.Index != b {
			t.Errorf("connector %v -> %v is not from 2i or 2i+1", c.From, c.To)
		}
	}
	for key, n := range perNode {
		if n > 2 {
			t.Errorf("node %v has %d incoming connectors", key, n)
		}
	}
}

func TestConnectorsSkipMissingPredecessors(t *testing.T) {
	columns := GroupByLevel(seededHeats(3, 2))
	connectors := Connectors(columns, Compute(columns, DefaultGeometry))

	if len(connectors) != 3 {
		t.Fatalf("expected 3 connectors, got %d", len(connectors))
	}
	last := connectors[len(connectors)-1]
	if last.From.Index != 2 || last.To.Index != 1 {
		t.Errorf("unexpected last connector %v -> %v", last.From, last.To)
	}
}

type mapMeasurer map[NodeKey]Rect

func (m mapMeasurer) Measure(key NodeKey) (Rect, bool) {
	r, ok := m[key]
	return r, ok
}

func TestConnectorsSkipUnmeasuredNodes(t *testing.T) {
	columns := GroupByLevel(seededHeats(2, 1))
	m := mapMeasurer{
		{Level: 1, Index: 0}: {X: 0, Y: 0, Width: 100, Height: 40},
		{Level: 2, Index: 0}: {X: 200, Y: 20, Width: 100, Height: 40},
	}

	connectors := Connectors(columns, m)
	if len(connectors) != 1 {
		t.Fatalf("expected 1 connector, got %d", len(connectors))
	}
	if got, want := connectors[0].D(), "M 100 20 C 150 20, 150 40, 200 40"; got != want {
		t.Errorf("D() = %q, want %q", got, want)
	}
}

func TestNewConnectorControlPoints(t *testing.T) {
	c := NewConnector(NodeKey{1, 0}, NodeKey{2, 0}, Point{X: 10, Y: 20}, Point{X: 50, Y: 80})
	if c.C1 != (Point{X: 30, Y: 20}) || c.C2 != (Point{X: 30, Y: 80}) {
		t.Errorf("unexpected control points %v %v", c.C1, c.C2)
	}
	if got, want := c.D(), "M 10 20 C 30 20, 30 80, 50 80"; got != want {
		t.Errorf("D() = %q, want %q", got, want)
	}
}

func TestComputeCentersSuccessor(t *testing.T) {
	columns := GroupByLevel(seededHeats(2, 1))
	layout := Compute(columns, DefaultGeometry)

	a, _ := layout.Measure(NodeKey{Level: 1, Index: 0})
	b, _ := layout.Measure(NodeKey{Level: 1, Index: 1})
	final, ok := layout.Measure(NodeKey{Level: 2, Index: 0})
	if !ok {
		t.Fatal("final node not measured")
	}

	wantCenter := (a.CenterRight().Y + b.CenterRight().Y) / 2
	if got := final.CenterLeft().Y; got != wantCenter {
		t.Errorf("final center y = %v, want %v", got, wantCenter)
	}
	if final.X <= a.X+a.Width {
		t.Errorf("final column should sit right of the first column")
	}
	if layout.Width < final.X+final.Width || layout.Height < b.Bottom() {
		t.Errorf("canvas %vx%v does not contain all cards", layout.Width, layout.Height)
	}
}
