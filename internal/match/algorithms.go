// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package match

import "strings"

// Levenshtein returns the edit distance between a and b using the two-row
// form, O(min(len)) space.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// LevenshteinRatio maps edit distance to a [0,1] similarity.
func LevenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// JaroWinkler returns the Jaro-Winkler similarity in [0,1], prefix scaling
// 0.1 over at most 4 common leading characters.
func JaroWinkler(a, b string) float64 {
	jaro := jaroSimilarity(a, b)
	if jaro == 0 {
		return 0
	}

	prefix := 0
	ra, rb := []rune(a), []rune(b)
	for prefix < len(ra) && prefix < len(rb) && prefix < 4 && ra[prefix] == rb[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

func jaroSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}

	window := la
	if lb > window {
		window = lb
	}
	window = window/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, la)
	matchedB := make([]bool, lb)
	matches := 0

	for i := 0; i < la; i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > lb {
			hi = lb
		}
		for j := lo; j < hi; j++ {
			if matchedB[j] || ra[i] != rb[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := 0; i < la; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if ra[i] != rb[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(la) + m/float64(lb) + (m-t)/m) / 3
}

// Soundex returns the 4-character American Soundex code for s, or "" when
// s carries no letters.
func Soundex(s string) string {
	s = strings.ToUpper(s)

	var first byte
	var digits []byte
	var prev byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			continue
		}
		d := soundexDigit(c)
		if first == 0 {
			first = c
			prev = d
			continue
		}
		switch {
		case c == 'H' || c == 'W':
			// Skipped entirely: does not reset the duplicate run.
		case d == 0:
			prev = 0
		case d != prev:
			digits = append(digits, '0'+d)
			prev = d
		}
		if len(digits) == 3 {
			break
		}
	}

	if first == 0 {
		return ""
	}
	code := string(first) + string(digits)
	for len(code) < 4 {
		code += "0"
	}
	return code
}

func soundexDigit(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return 1
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return 2
	case 'D', 'T':
		return 3
	case 'L':
		return 4
	case 'M', 'N':
		return 5
	case 'R':
		return 6
	default:
		return 0
	}
}

// Metaphone returns a simplified Metaphone code: common digraph folding,
// vowels kept only in initial position. Good enough to match spelling
// variants of the same surname; not the full 1990 rule set.
func Metaphone(s string) string {
	up := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			up = append(up, c)
		}
	}
	if len(up) == 0 {
		return ""
	}

	var out []byte
	emit := func(c byte) {
		if len(out) == 0 || out[len(out)-1] != c {
			out = append(out, c)
		}
	}

	for i := 0; i < len(up); i++ {
		c := up[i]
		var next byte
		if i+1 < len(up) {
			next = up[i+1]
		}

		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				emit(c)
			}
		case 'B':
			// Silent terminal MB.
			if !(i == len(up)-1 && i > 0 && up[i-1] == 'M') {
				emit('B')
			}
		case 'C':
			switch {
			case next == 'H':
				emit('X')
				i++
			case next == 'I' || next == 'E' || next == 'Y':
				emit('S')
			default:
				emit('K')
			}
		case 'D':
			if next == 'G' {
				emit('J')
				i++
			} else {
				emit('T')
			}
		case 'G':
			switch {
			case next == 'H':
				emit('K')
				i++
			case next == 'N':
				// Silent GN.
			case next == 'I' || next == 'E' || next == 'Y':
				emit('J')
			default:
				emit('K')
			}
		case 'H':
			if i > 0 && isMetaVowel(up[i-1]) && !isMetaVowel(next) {
				// Silent between vowel and consonant.
			} else {
				emit('H')
			}
		case 'K':
			if !(i > 0 && up[i-1] == 'C') {
				emit('K')
			}
		case 'P':
			if next == 'H' {
				emit('F')
				i++
			} else {
				emit('P')
			}
		case 'Q':
			emit('K')
		case 'S':
			if next == 'H' {
				emit('X')
				i++
			} else {
				emit('S')
			}
		case 'T':
			if next == 'H' {
				emit('0')
				i++
			} else {
				emit('T')
			}
		case 'V':
			emit('F')
		case 'W', 'Y':
			if isMetaVowel(next) {
				emit(c)
			}
		case 'X':
			emit('K')
			emit('S')
		case 'Z':
			emit('S')
		default:
			emit(c)
		}
	}
	return string(out)
}

func isMetaVowel(c byte) bool {
	return c == 'A' || c == 'E' || c == 'I' || c == 'O' || c == 'U'
}

// tokenSetJaccard returns the Jaccard index of the token sets of a and b.
func tokenSetJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}

	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		}
	}
	union := len(set) + len(seen) - inter
	return float64(inter) / float64(union)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
