package ui

import (
	"strings"

	"github.com/PedroElizalde01/gecscore/diff"
	"github.com/PedroElizalde01/gecscore/score"
)

type LineKind int

const (
	Meta LineKind = iota
	Sentence
	Event
)

// Line is one row of the gold/predicted panes. GoldAt and PredAt hold the
// original-text token offset of the span shown on that side, if any.
type Line struct {
	Kind      LineKind
	Event     score.Kind
	GoldAt    *int
	PredAt    *int
	Gold      string
	Predicted string

	// Marks are half-open token ranges of Gold / Predicted to highlight.
	GoldMarks [][2]int
	PredMarks [][2]int
}

// Lines lays out one evaluated row: the original sentence, the gold and
// predicted corrections with changed tokens marked, then one line per
// classification event.
func Lines(original, golden, predicted string, res score.RowResult) []Line {
	lines := make([]Line, 0, len(res.Events)+4)
	lines = append(lines,
		Line{Kind: Meta, Gold: "original: " + original, Predicted: "original: " + original},
		Line{
			Kind:      Sentence,
			Gold:      golden,
			Predicted: predicted,
			GoldMarks: rightRanges(res.Gold),
			PredMarks: rightRanges(res.Predicted),
		},
	)

	if len(res.Events) == 0 {
		return append(lines, Line{Kind: Meta, Gold: "(no corrections)", Predicted: "(no corrections)"})
	}

	for _, e := range res.Events {
		line := Line{Kind: Event, Event: e.Kind}
		if e.Gold != nil {
			line.GoldAt = intPtr(e.Gold.LeftStart)
			line.Gold = spanText(*e.Gold)
		}
		if e.Predicted != nil {
			line.PredAt = intPtr(e.Predicted.LeftStart)
			line.Predicted = spanText(*e.Predicted)
		}
		lines = append(lines, line)
	}
	return lines
}

// FirstEvent returns the index of the first event line, or 0.
func FirstEvent(lines []Line) int {
	for i := range lines {
		if lines[i].Kind == Event {
			return i
		}
	}
	return 0
}

// IsMiss reports whether the line is a classification event other than a
// true positive.
func (l Line) IsMiss() bool {
	return l.Kind == Event && l.Event != score.TruePositive
}

func spanText(s diff.Span) string {
	left := strings.TrimSpace(s.Left)
	right := strings.TrimSpace(s.Right)
	if left == "" {
		left = "∅"
	}
	if right == "" {
		right = "∅"
	}
	return left + " → " + right
}

func rightRanges(spans []diff.Span) [][2]int {
	out := make([][2]int, 0, len(spans))
	for _, s := range spans {
		if s.RightEnd > s.RightStart {
			out = append(out, [2]int{s.RightStart, s.RightEnd})
		}
	}
	return out
}

func intPtr(v int) *int {
	n := v
	return &n
}
