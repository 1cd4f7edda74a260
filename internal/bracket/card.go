package bracket

import (
	"fmt"
	"strings"

	"github.com/rallykat/rallykat/internal/models"
)

const minRows = 2

var rankBadges = map[int]struct{ symbol, class string }{
	1: {"👑", "gold"},
	2: {"🥈", "silver"},
	3: {"🥉", "bronze"},
}

type Row struct {
	Player *models.Player
	TBD    bool
	Winner bool
	Rank   int
	Mark   string
}

// Classes returns the CSS classes of the row.
func (r Row) Classes() string {
	if r.TBD {
		return "player-row tbd"
	}
	classes := []string{"player-row"}
	if r.Winner {
		classes = append(classes, "winner")
	}
	if badge, ok := rankBadges[r.Rank]; ok {
		classes = append(classes, badge.class)
	}
	return strings.Join(classes, " ")
}

// MarkClass distinguishes final-round badges from plain win marks.
func (r Row) MarkClass() string {
	if r.Rank > 0 {
		return "rank-mark"
	}
	return "win-mark"
}

type Card struct {
	Key        NodeKey
	Label      string
	Redemption bool
	Final      bool
	Rows       []Row
}

// NewCard renders max(players, 2) rows so byes and open slots show as TBD.
// Final cards carry 1st/2nd/3rd badges instead of a win mark.
func NewCard(key NodeKey, heat models.Heat, isFinal bool) Card {
	card := Card{
		Key:        key,
		Label:      fmt.Sprintf("H%d", heat.RoundOrZero()),
		Redemption: heat.Redemption,
		Final:      isFinal,
	}

	var ranks map[int]int
	if isFinal {
		ranks = FinalRanks(heat)
	}

	total := max(len(heat.Players), minRows)
	card.Rows = make([]Row, total)
	for i := 0; i < total; i++ {
		var player *models.Player
		if i < len(heat.Players) {
			player = heat.Players[i]
		}
		if player == nil {
			card.Rows[i] = Row{TBD: true}
			continue
		}

		row := Row{
			Player: player,
			Winner: heat.Winner != nil && heat.Winner.ID == player.ID,
		}
		if isFinal {
			row.Rank = ranks[i]
			if badge, ok := rankBadges[row.Rank]; ok {
				row.Mark = badge.symbol
			}
		} else if row.Winner {
			row.Mark = "✓"
		}
		card.Rows[i] = row
	}
	return card
}

// FinalRanks maps player indices of a final heat to ranks 1-3. The winner is
// first and the other present players follow in array order; without a
// winner the order is provisional array order.
func FinalRanks(heat models.Heat) map[int]int {
	var present []int
	for i, p := range heat.Players {
		if p != nil {
			present = append(present, i)
		}
	}

	winnerIdx := -1
	if heat.Winner != nil {
		for _, i := range present {
			if heat.Players[i].ID == heat.Winner.ID {
				winnerIdx = i
				break
			}
		}
	}

	order := present
	if winnerIdx >= 0 {
		order = []int{winnerIdx}
		for _, i := range present {
			if i != winnerIdx {
				order = append(order, i)
			}
		}
	}

	ranks := make(map[int]int)
	for pos, i := range order {
		if pos >= 3 {
			break
		}
		ranks[i] = pos + 1
	}
	return ranks
}
