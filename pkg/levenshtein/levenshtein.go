// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

// Package levenshtein calculates edit distances and similarity ratios between strings.
package levenshtein

// substitutionCostIndel is the cost of a substitution when only insertions and
// deletions are counted (a substitution is a deletion plus an insertion).
// The resulting distance is len(a)+len(b)-2*LCS(a,b).
const substitutionCostIndel = 2

// Context is the object which allows to calculate distances with no
// per-call allocations once its buffer has grown.
type Context struct {
	intSlice []int
}

func (ctx *Context) getIntSlice(length int) []int {
	if cap(ctx.intSlice) < length {
		ctx.intSlice = make([]int, length)
	}

	return ctx.intSlice[:length]
}

// Ratio returns the normalized indel similarity of two strings in [0, 1].
// Two empty strings are identical and score 1.
func (ctx *Context) Ratio(str1, str2 string) float64 {
	s1 := []rune(str1)
	s2 := []rune(str2)

	lensum := len(s1) + len(s2)
	if lensum == 0 {
		return 1
	}

	dist := ctx.weighted(s1, s2, substitutionCostIndel)

	return float64(lensum-dist) / float64(lensum)
}

// weighted runs the single-column dynamic program in O(min(m,n)) space.
// It is based on the optimized C version found here:
// http://en.wikibooks.org/wiki/Algorithm_implementation/Strings/Levenshtein_distance#C
func (ctx *Context) weighted(s1, s2 []rune, subCost int) int {
	if len(s1) < len(s2) {
		s1, s2 = s2, s1
	}

	lenS1 := len(s1)
	lenS2 := len(s2)

	if lenS2 == 0 {
		return lenS1
	}

	column := ctx.getIntSlice(lenS2 + 1)
	for idx := range column {
		column[idx] = idx
	}

	for row := range lenS1 {
		s1Rune := s1[row]
		lastdiag := column[0]
		column[0] = row + 1

		for col := range lenS2 {
			olddiag := column[col+1]

			cost := 0
			if s2[col] != s1Rune {
				cost = subCost
			}

			column[col+1] = min(
				column[col+1]+1,
				column[col]+1,
				lastdiag+cost,
			)
			lastdiag = olddiag
		}
	}

	return column[lenS2]
}
