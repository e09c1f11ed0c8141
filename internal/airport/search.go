package airport

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultLimit is the number of results returned when no limit is given
const DefaultLimit = 5

// Scores assigned to search hits
const (
	ScoreExactCode = 100 // key equals the query and is at most 4 characters
	ScorePrefix    = 50
	ScoreSubstring = 10
)

// ScanMode selects how much of the index a search looks at
type ScanMode int

const (
	// ScanBounded stops scanning as soon as 2*limit candidate airports have been
	// collected. Cheap enough to run on every keystroke, but a strong match that appears
	// late in the index can be missed.
	ScanBounded ScanMode = iota
	// ScanFull scores every index entry before ranking
	ScanFull
)

// ParseScanMode maps a config value to a ScanMode
func ParseScanMode(s string) (ScanMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bounded":
		return ScanBounded, true
	case "full":
		return ScanFull, true
	}
	return ScanBounded, false
}

func (m ScanMode) String() string {
	if m == ScanFull {
		return "full"
	}
	return "bounded"
}

// Match is a scored search hit
type Match struct {
	Airport Airport `json:"airport"`
	Score   int     `json:"score"`
}

// Search returns the best matching airports for a free-text query using a bounded scan
func (d *Directory) Search(query string, limit int) []Airport {
	matches := d.SearchScored(query, limit, ScanBounded)
	out := make([]Airport, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Airport)
	}
	return out
}

// SearchScored ranks airports against query. The query is lowercased and trimmed and
// must be at least two characters long. Each airport is scored by its best matching key;
// its first matching key fixes its position among equal scores.
func (d *Directory) SearchScored(query string, limit int, mode ScanMode) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < 2 {
		return []Match{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > len(d.airports) {
		limit = len(d.airports)
	}
	maxCandidates := 2 * limit

	capacity := min(maxCandidates, len(d.airports))
	candidates := make([]Match, 0, capacity)
	seen := make(map[string]int, capacity) // ICAO -> position in candidates

	for _, entry := range d.index {
		score := scoreKey(entry.Key, q)
		if score == 0 {
			continue
		}

		if pos, ok := seen[entry.ICAO]; ok {
			if score > candidates[pos].Score {
				candidates[pos].Score = score
			}
			continue
		}

		seen[entry.ICAO] = len(candidates)
		candidates = append(candidates, Match{
			Airport: d.airports[d.byICAO[entry.ICAO]],
			Score:   score,
		})
		if mode == ScanBounded && len(candidates) >= maxCandidates {
			break
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func scoreKey(key, q string) int {
	switch {
	case strings.HasPrefix(key, q):
		if key == q && len(key) <= 4 {
			return ScoreExactCode
		}
		return ScorePrefix
	case strings.Contains(key, q):
		return ScoreSubstring
	}
	return 0
}
