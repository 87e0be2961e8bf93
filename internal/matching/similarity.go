// internal/matching/similarity.go
package matching

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings from 0 to 100. Ranking and thresholds do not
// depend on which implementation is plugged in.
type Similarity func(a, b string) float64

// SimilarText is the character-overlap ratio: the longest common substring
// is found, then the parts to its left and right are matched recursively.
// Works on bytes.
func SimilarText(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	common := commonChars(a, b)
	return float64(common*2) * 100 / float64(total)
}

func commonChars(a, b string) int {
	posA, posB, best := longestCommon(a, b)
	if best == 0 {
		return 0
	}
	sum := best
	if posA > 0 && posB > 0 {
		sum += commonChars(a[:posA], b[:posB])
	}
	if posA+best < len(a) && posB+best < len(b) {
		sum += commonChars(a[posA+best:], b[posB+best:])
	}
	return sum
}

// longestCommon returns the first longest common substring's offsets.
func longestCommon(a, b string) (posA, posB, best int) {
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			n := 0
			for i+n < len(a) && j+n < len(b) && a[i+n] == b[j+n] {
				n++
			}
			if n > best {
				posA, posB, best = i, j, n
			}
		}
	}
	return posA, posB, best
}

// LevenshteinSimilarity turns edit distance into a 0-100 score relative to
// the longer string.
func LevenshteinSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}
