package diff

import (
	"strings"
	"unicode"
)

// Tokenize splits s into whitespace-delimited tokens. Absent text is passed
// as "" and yields no tokens. Tokens are compared verbatim: no case folding
// or punctuation stripping is applied.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, isSpace)
}

// isSpace is unicode.IsSpace plus the information separators
// U+001C..U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// LCSTable builds the (len(x)+1)×(len(y)+1) dynamic programming table where
// cell [i][j] holds the LCS length of x[:i] and y[:j]. Rows share one
// backing buffer.
func LCSTable(x, y []string) [][]int {
	m := len(x)
	n := len(y)

	cells := make([]int, (m+1)*(n+1))
	table := make([][]int, m+1)
	for i := range table {
		table[i] = cells[i*(n+1) : (i+1)*(n+1)]
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if x[i-1] == y[j-1] {
				table[i][j] = table[i-1][j-1] + 1
				continue
			}
			if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}
	return table
}

// LCS returns one longest common subsequence of x and y.
//
// The table is walked back from the bottom-right corner. When the two
// neighbouring cells tie, the x cursor is decremented first, so the result
// is stable for a given input pair.
func LCS(x, y []string) []string {
	table := LCSTable(x, y)
	i := len(x)
	j := len(y)

	k := table[i][j]
	if k == 0 {
		return nil
	}

	out := make([]string, k)
	for i > 0 && j > 0 {
		switch {
		case x[i-1] == y[j-1]:
			k--
			out[k] = x[i-1]
			i--
			j--
		case table[i-1][j] >= table[i][j-1]:
			i--
		default:
			j--
		}
	}
	return out
}
