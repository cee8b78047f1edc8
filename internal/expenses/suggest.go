package expenses

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const suggestThreshold = 0.7

// Suggest finds the known category closest to an unknown one.
func Suggest(layout Layout, chapter, category string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(category))
	if needle == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range layout.Categories(chapter) {
		haystack := strings.ToLower(strings.TrimSpace(candidate))
		// long table keys are matched by their prefix, compare like for like
		if len(haystack) > len(needle)*2 {
			haystack = truncateRunes(haystack, len([]rune(needle))+8)
		}
		score := matchr.JaroWinkler(needle, haystack, false)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return strings.TrimSpace(best), true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
