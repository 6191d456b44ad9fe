// Package score classifies how well predicted corrections reproduce gold
// corrections and aggregates the result over a dataset.
package score

import (
	"fmt"

	"github.com/PedroElizalde01/gecscore/diff"
)

// Kind is the classification of one gold/predicted span pairing.
type Kind int

const (
	TruePositive Kind = iota
	FalsePositive
	FalseMissing
	FalseRedundant
)

func (k Kind) String() string {
	switch k {
	case TruePositive:
		return "TP"
	case FalsePositive:
		return "FP"
	case FalseMissing:
		return "FM"
	case FalseRedundant:
		return "FR"
	default:
		return "??"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{TruePositive, FalsePositive, FalseMissing, FalseRedundant} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event is one classified step of the alignment walk. Gold is nil for
// FalseRedundant events and Predicted is nil for FalseMissing events.
type Event struct {
	Kind      Kind       `json:"kind"`
	Gold      *diff.Span `json:"gold,omitempty"`
	Predicted *diff.Span `json:"predicted,omitempty"`
}

// Counts holds per-kind event totals. Counts combine only by addition.
type Counts struct {
	TruePositive   int `json:"tp"`
	FalsePositive  int `json:"fp"`
	FalseMissing   int `json:"fm"`
	FalseRedundant int `json:"fr"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		TruePositive:   c.TruePositive + o.TruePositive,
		FalsePositive:  c.FalsePositive + o.FalsePositive,
		FalseMissing:   c.FalseMissing + o.FalseMissing,
		FalseRedundant: c.FalseRedundant + o.FalseRedundant,
	}
}

// Total is the number of classified events.
func (c Counts) Total() int {
	return c.TruePositive + c.FalsePositive + c.FalseMissing + c.FalseRedundant
}

// Errors is the number of events that are not true positives.
func (c Counts) Errors() int {
	return c.FalsePositive + c.FalseMissing + c.FalseRedundant
}

func (c *Counts) record(k Kind) {
	switch k {
	case TruePositive:
		c.TruePositive++
	case FalsePositive:
		c.FalsePositive++
	case FalseMissing:
		c.FalseMissing++
	case FalseRedundant:
		c.FalseRedundant++
	}
}

// Align walks gold and predicted spans, both computed against the same
// original text and ordered by LeftStart, and classifies every pairing.
// Spans meeting at the same LeftStart are a true positive when their Right
// texts are equal and a false positive otherwise; an unpaired gold span is
// a false missing and an unpaired predicted span a false redundant.
func Align(gold, predicted []diff.Span) []Event {
	events := make([]Event, 0, len(gold)+len(predicted))
	g, p := 0, 0
	for g < len(gold) || p < len(predicted) {
		switch {
		case g >= len(gold):
			events = append(events, Event{Kind: FalseRedundant, Predicted: &predicted[p]})
			p++
		case p >= len(predicted):
			events = append(events, Event{Kind: FalseMissing, Gold: &gold[g]})
			g++
		case gold[g].LeftStart == predicted[p].LeftStart:
			kind := FalsePositive
			if gold[g].Right == predicted[p].Right {
				kind = TruePositive
			}
			events = append(events, Event{Kind: kind, Gold: &gold[g], Predicted: &predicted[p]})
			g++
			p++
		case gold[g].LeftStart < predicted[p].LeftStart:
			events = append(events, Event{Kind: FalseMissing, Gold: &gold[g]})
			g++
		default:
			events = append(events, Event{Kind: FalseRedundant, Predicted: &predicted[p]})
			p++
		}
	}
	return events
}

// Classify returns the event counts of Align(gold, predicted).
func Classify(gold, predicted []diff.Span) Counts {
	return Tally(Align(gold, predicted))
}

// Tally counts events by kind.
func Tally(events []Event) Counts {
	var c Counts
	for _, e := range events {
		c.record(e.Kind)
	}
	return c
}
