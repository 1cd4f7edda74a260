package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/rallykat/rallykat/internal/models"
)

var ErrPlayerNotFound = errors.New("player not found")

const (
	playersKey = "players"

	minSimilarity = 0.6
)

type PlayerService struct {
	content ContentSource
	cache   *Cache
}

func NewPlayerService(src ContentSource, cache *Cache) *PlayerService {
	return &PlayerService{content: src, cache: cache}
}

func (s *PlayerService) Players(ctx context.Context) ([]models.Player, error) {
	players, err := cached(ctx, s.cache, playersKey, s.content.GetPlayers)
	if err != nil {
		return nil, fmt.Errorf("error fetching players: %w", err)
	}
	return players, nil
}

func (s *PlayerService) Leaderboard(ctx context.Context) ([]models.RankedPlayer, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(players), nil
}

// Rank orders players by score and assigns competition ranks where tied
// scores share the previous player's rank.
func Rank(players []models.Player) []models.RankedPlayer {
	sorted := make([]models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	ranked := make([]models.RankedPlayer, len(sorted))
	for i, p := range sorted {
		rank := 1
		if i > 0 {
			rank = ranked[i-1].Rank
			if p.Score != sorted[i-1].Score {
				rank++
			}
		}
		ranked[i] = models.RankedPlayer{Player: p, Rank: rank, Suffix: OrdinalSuffix(rank)}
	}
	return ranked
}

func OrdinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Search returns leaderboard entries matching the query, best match first.
func (s *PlayerService) Search(ctx context.Context, query string) ([]models.RankedPlayer, error) {
	ranked, err := s.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return search(ranked, query), nil
}

func (s *PlayerService) FindPlayer(ctx context.Context, query string) (models.RankedPlayer, error) {
	matches, err := s.Search(ctx, query)
	if err != nil {
		return models.RankedPlayer{}, err
	}
	if len(matches) == 0 {
		return models.RankedPlayer{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, query)
	}
	return matches[0], nil
}

type match struct {
	player   models.RankedPlayer
	distance int
}

func search(ranked []models.RankedPlayer, query string) []models.RankedPlayer {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.RankedPlayer{}
	}

	var subsequence, similar []match
	for _, p := range ranked {
		best, contained, near := -1, false, false
		for _, candidate := range []string{p.Handle, p.Name} {
			if candidate == "" {
				continue
			}
			lower := strings.ToLower(candidate)
			d := fuzzy.LevenshteinDistance(query, lower)
			if best < 0 || d < best {
				best = d
			}
			contained = contained || fuzzy.MatchFold(query, candidate)
			near = near || similarity(query, lower, d) > minSimilarity
		}

		m := match{player: p, distance: best}
		switch {
		case contained:
			subsequence = append(subsequence, m)
		case near:
			similar = append(similar, m)
		}
	}

	byDistance := func(ms []match) {
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].distance < ms[j].distance })
	}
	byDistance(subsequence)
	byDistance(similar)

	out := make([]models.RankedPlayer, 0, len(subsequence)+len(similar))
	for _, m := range append(subsequence, similar...) {
		out = append(out, m.player)
	}
	return out
}

func similarity(a, b string, distance int) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(distance)/float64(longest)
}

// Refresh re-fetches the player list regardless of TTL.
func (s *PlayerService) Refresh(ctx context.Context) error {
	if err := refresh(ctx, s.cache, playersKey, s.content.GetPlayers); err != nil {
		return fmt.Errorf("error refreshing players: %w", err)
	}
	return nil
}
