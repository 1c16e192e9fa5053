package cleaner

import "unicode/utf8"

// EstimateTokens approximates a tokenizer count as utf8 rune count / 3.
//
// English text averages ~4 chars/token and CJK text ~1.5 chars/token, so
// the estimate runs slightly high for English pages. Cost reports built
// on it err towards overstating spend.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / 3
	if est < 1 {
		return 1
	}
	return est
}
