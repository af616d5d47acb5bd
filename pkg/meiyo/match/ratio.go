package match

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// Ratio returns the edit-distance similarity of a and b on a 0–100 scale,
// computed over runes as 100·(1 − distance/maxLen).
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := runeLen(a), runeLen(b)
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(maxLen))))
}

// PartialRatio returns the best Ratio between the shorter string and every
// same-length window of the longer one.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}

	s := string(short)
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		r := Ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
