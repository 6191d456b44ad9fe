// Package diff locates the points where two token sequences diverge.
package diff

import "strings"

// MergeGap is the largest distance between the start offsets of two
// consecutive raw spans for which they are folded into one span.
const MergeGap = 2

// Span is one point of divergence between a left (original) and a right
// token sequence. Offsets are half-open token indexes.
type Span struct {
	Left       string `json:"left"`
	Right      string `json:"right"`
	LeftStart  int    `json:"left_start"`
	LeftEnd    int    `json:"left_end"`
	RightStart int    `json:"right_start"`
	RightEnd   int    `json:"right_end"`
}

// Diff returns the merged divergence spans between original and other,
// ordered by LeftStart.
func Diff(original, other string) []Span {
	return Merge(Raw(original, other))
}

// Raw returns the unmerged divergence spans between original and other.
func Raw(original, other string) []Span {
	return Walk(Tokenize(original), Tokenize(other))
}

// Walk aligns left and right on their LCS and emits one span for every
// maximal run of unmatched tokens.
func Walk(left, right []string) []Span {
	common := LCS(left, right)

	spans := make([]Span, 0, 4)
	li, ri, ci := 0, 0, 0
	for li < len(left) || ri < len(right) {
		leftStart := li
		rightStart := ri

		for li < len(left) && (ci >= len(common) || left[li] != common[ci]) {
			li++
		}
		for ri < len(right) && (ci >= len(common) || right[ri] != common[ci]) {
			ri++
		}

		if li > leftStart || ri > rightStart {
			spans = append(spans, Span{
				Left:       strings.Join(left[leftStart:li], " "),
				Right:      strings.Join(right[rightStart:ri], " "),
				LeftStart:  leftStart,
				LeftEnd:    li,
				RightStart: rightStart,
				RightEnd:   ri,
			})
		}

		if ci < len(common) {
			ci++
			li++
			ri++
		}
	}

	if len(spans) == 0 {
		return nil
	}
	return spans
}

// Merge folds near-adjacent spans together. A span joins the previous output
// span when its LeftStart is at most MergeGap tokens after the LeftStart of
// the raw span preceding it in the input, not after that span's end.
func Merge(raw []Span) []Span {
	if len(raw) == 0 {
		return nil
	}

	merged := make([]Span, 0, len(raw))
	merged = append(merged, raw[0])
	for i := 1; i < len(raw); i++ {
		if raw[i].LeftStart-raw[i-1].LeftStart > MergeGap {
			merged = append(merged, raw[i])
			continue
		}
		last := len(merged) - 1
		merged = append(merged[:last], merged[last].join(raw[i]))
	}
	return merged
}

// join keeps s's start offsets and takes next's end offsets. Texts are glued
// with a single space even when one side is empty, and Right texts are later
// compared verbatim.
func (s Span) join(next Span) Span {
	return Span{
		Left:       s.Left + " " + next.Left,
		Right:      s.Right + " " + next.Right,
		LeftStart:  s.LeftStart,
		LeftEnd:    next.LeftEnd,
		RightStart: s.RightStart,
		RightEnd:   next.RightEnd,
	}
}
