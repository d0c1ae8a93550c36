package dedup

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio is the normalized Indel similarity of a and b in [0, 1]:
// 2*LCS(a, b) / (len(a) + len(b)), measured in runes. Two empty strings are identical.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la+lb == 0 {
		return 1
	}
	if a == b {
		return 1
	}
	return float64(2*edlib.LCS(a, b)) / float64(la+lb)
}

// ratioUpperBound is the best Ratio two strings of lengths la and lb could reach.
func ratioUpperBound(la, lb int) float64 {
	if la+lb == 0 {
		return 1
	}
	return float64(2*min(la, lb)) / float64(la+lb)
}
