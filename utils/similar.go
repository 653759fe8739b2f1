package utils

// SimilarityThreshold is the minimum Similar score at which a scraped search
// result is considered the same title as the one requested.
const SimilarityThreshold = 0.79

// Similar returns a normalized edit similarity between two strings in [0, 1],
// using the Ratcliff/Obershelp measure: twice the number of matching
// characters divided by the total number of characters. Callers are expected
// to lower-case (and transliterate) both inputs first.
func Similar(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ar, br)) / float64(total)
}

// matchingChars counts matching characters by finding the longest common
// substring and recursing on the pieces to its left and right.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the longest run of runes common to a and b,
// preferring the earliest occurrence in a on ties.
func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] is the length of the common suffix ending at a[i], b[j]
	// for the current row i.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > size {
					size = cur[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
