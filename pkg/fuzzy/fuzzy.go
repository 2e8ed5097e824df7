// Package fuzzy ranks strings by similarity using the fuzzywuzzy family of
// scorers (ratio, partial ratio, token sort, token set and the weighted
// combination WRatio), built on indel-weighted Levenshtein ratios.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/Sumatoshi-tech/edgarvault/pkg/levenshtein"
)

// Scoring constants of the weighted ratio.
const (
	maxScore = 100

	// unbaseScale discounts token-based scores against the plain ratio.
	unbaseScale = 0.95
	// partialScale discounts substring scores for moderately different lengths.
	partialScale = 0.90
	// farPartialScale replaces partialScale when lengths differ by more than farLengthRatio.
	farPartialScale = 0.6

	// partialLengthRatio is the length ratio from which partial scorers are tried.
	partialLengthRatio = 1.5
	// farLengthRatio is the length ratio from which farPartialScale applies.
	farLengthRatio = 8

	// perfectPartial short-circuits partial matching once a window is near identical.
	perfectPartial = 0.995
)

// Scorer returns a similarity score in [0, 100] for two processed strings.
type Scorer func(s1, s2 string) int

var contextPool = sync.Pool{
	New: func() any { return new(levenshtein.Context) },
}

func ratioFloat(s1, s2 string) float64 {
	ctx, _ := contextPool.Get().(*levenshtein.Context)
	defer contextPool.Put(ctx)

	return ctx.Ratio(s1, s2)
}

// intr rounds half to even, matching the reference implementation.
func intr(f float64) int {
	return int(math.RoundToEven(f))
}

// FullProcess lowercases s, turns every rune that is not a letter, digit or
// underscore into a space and trims the result.
func FullProcess(s string) string {
	return fullProcess(s, false)
}

func fullProcess(s string, forceASCII bool) string {
	var sb strings.Builder

	sb.Grow(len(s))

	for _, r := range s {
		if forceASCII && r > unicode.MaxASCII {
			continue
		}

		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteByte(' ')
		}
	}

	return strings.TrimSpace(sb.String())
}

// Ratio is the rounded indel similarity of two strings.
func Ratio(s1, s2 string) int {
	if s1 == "" || s2 == "" {
		return 0
	}

	return intr(maxScore * ratioFloat(s1, s2))
}

// PartialRatio scores the best aligned window of the longer string against
// the shorter one.
func PartialRatio(s1, s2 string) int {
	if s1 == "" || s2 == "" {
		return 0
	}

	shorter, longer := []rune(s1), []rune(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	short := string(shorter)
	best := 0.0

	for start := 0; start+len(shorter) <= len(longer); start++ {
		score := ratioFloat(short, string(longer[start:start+len(shorter)]))
		if score > perfectPartial {
			return maxScore
		}

		best = max(best, score)
	}

	return intr(maxScore * best)
}

// TokenSortRatio compares the strings after sorting their tokens.
func TokenSortRatio(s1, s2 string) int {
	return tokenSort(s1, s2, Ratio)
}

// PartialTokenSortRatio is TokenSortRatio with a partial comparison.
func PartialTokenSortRatio(s1, s2 string) int {
	return tokenSort(s1, s2, PartialRatio)
}

func tokenSort(s1, s2 string, scorer Scorer) int {
	return scorer(sortedTokens(s1), sortedTokens(s2))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)

	return strings.Join(tokens, " ")
}

// TokenSetRatio compares the shared tokens against each side's remainder.
func TokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, Ratio)
}

// PartialTokenSetRatio is TokenSetRatio with a partial comparison.
func PartialTokenSetRatio(s1, s2 string) int {
	return tokenSet(s1, s2, PartialRatio)
}

func tokenSet(s1, s2 string, scorer Scorer) int {
	if s1 == "" || s2 == "" {
		return 0
	}

	set1 := tokenSetOf(s1)
	set2 := tokenSetOf(s2)

	var sect, diff1, diff2 []string

	for token := range set1 {
		if _, ok := set2[token]; ok {
			sect = append(sect, token)
		} else {
			diff1 = append(diff1, token)
		}
	}

	for token := range set2 {
		if _, ok := set1[token]; !ok {
			diff2 = append(diff2, token)
		}
	}

	sort.Strings(sect)
	sort.Strings(diff1)
	sort.Strings(diff2)

	sortedSect := strings.Join(sect, " ")
	combined1 := strings.TrimSpace(sortedSect + " " + strings.Join(diff1, " "))
	combined2 := strings.TrimSpace(sortedSect + " " + strings.Join(diff2, " "))

	return max(
		scorer(sortedSect, combined1),
		scorer(sortedSect, combined2),
		scorer(combined1, combined2),
	)
}

func tokenSetOf(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}

	return set
}

// WRatio is the weighted combination of the other scorers used by Extract.
// Both inputs are processed with ASCII folding first.
func WRatio(s1, s2 string) int {
	p1 := fullProcess(s1, true)
	p2 := fullProcess(s2, true)

	if p1 == "" || p2 == "" {
		return 0
	}

	base := float64(Ratio(p1, p2))

	len1 := float64(len([]rune(p1)))
	len2 := float64(len([]rune(p2)))
	lenRatio := max(len1, len2) / min(len1, len2)

	if lenRatio < partialLengthRatio {
		tsor := float64(TokenSortRatio(p1, p2)) * unbaseScale
		tser := float64(TokenSetRatio(p1, p2)) * unbaseScale

		return intr(max(base, tsor, tser))
	}

	scale := partialScale
	if lenRatio > farLengthRatio {
		scale = farPartialScale
	}

	partial := float64(PartialRatio(p1, p2)) * scale
	ptsor := float64(PartialTokenSortRatio(p1, p2)) * unbaseScale * scale
	ptser := float64(PartialTokenSetRatio(p1, p2)) * unbaseScale * scale

	return intr(max(base, partial, ptsor, ptser))
}
