package fuzzy

import "sort"

// Match is one ranked choice.
type Match struct {
	Choice string
	Score  int
	// Index is the position of Choice in the input slice.
	Index int
}

// Extract scores every choice against query with WRatio after FullProcess
// and returns up to limit matches by descending score. Ties keep input order.
// A non-positive limit returns every match.
func Extract(query string, choices []string, limit int) []Match {
	return ExtractWith(query, choices, limit, WRatio)
}

// ExtractWith is Extract with a custom scorer.
func ExtractWith(query string, choices []string, limit int, scorer Scorer) []Match {
	if len(choices) == 0 {
		return nil
	}

	processedQuery := FullProcess(query)

	matches := make([]Match, 0, len(choices))
	for idx, choice := range choices {
		matches = append(matches, Match{
			Choice: choice,
			Score:  scorer(processedQuery, FullProcess(choice)),
			Index:  idx,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}

// Choices returns the matched strings in rank order.
func Choices(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Choice
	}

	return out
}
