package util

import (
	"fmt"
	"strings"
)

// Suggest returns the candidate closest to input, compared case-insensitively
// with Levenshtein distance. Returns empty string if no close match is found
// (distance > 3).
func Suggest(input string, candidates []string) string {
	const maxDistance = 3
	bestDistance := maxDistance + 1
	var bestMatch string

	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, c := range candidates {
		distance := levenshteinDistance(normalized, strings.ToLower(c))
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = c
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// UnknownValueError formats an "invalid X" error listing the valid values and,
// when one is close, a suggestion.
func UnknownValueError(kind, value string, valid []string) error {
	if s := Suggest(value, valid); s != "" {
		return fmt.Errorf("invalid %s %q, did you mean %q? (valid: %s)", kind, value, s, strings.Join(valid, ", "))
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", kind, value, strings.Join(valid, ", "))
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
// This is the minimum number of single-character edits (insertions, deletions,
// or substitutions) required to change one string into the other.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create a matrix to store distances
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	// Initialize the first row and column
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	// Fill in the rest of the matrix
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
