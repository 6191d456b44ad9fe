package score

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/PedroElizalde01/gecscore/diff"
	"golang.org/x/sync/errgroup"
)

// ErrSizeMismatch is matched by errors returned when the true and predicted
// datasets do not have the same number of rows.
var ErrSizeMismatch = errors.New("dataset size mismatch")

// SizeMismatchError reports the row counts of two datasets that cannot be
// paired by position.
type SizeMismatchError struct {
	True      int
	Predicted int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%v: %d true rows, %d predicted rows", ErrSizeMismatch, e.True, e.Predicted)
}

func (e *SizeMismatchError) Unwrap() error {
	return ErrSizeMismatch
}

// Pair is one dataset row: an original sentence and its correction. Absent
// text is the empty string.
type Pair struct {
	Original string `json:"original"`
	Target   string `json:"target"`
}

// RowResult is the evaluation of a single row.
type RowResult struct {
	Index     int         `json:"index"`
	Gold      []diff.Span `json:"gold"`
	Predicted []diff.Span `json:"predicted"`
	Events    []Event     `json:"events"`
	Counts    Counts      `json:"counts"`
}

// Report is the dataset-level score. Recall and Precision are percentages.
type Report struct {
	Recall          float64 `json:"recall"`
	Precision       float64 `json:"precision"`
	TruePositives   int     `json:"true_positives"`
	FalsePositives  int     `json:"false_positives"`
	FalseMissings   int     `json:"false_missings"`
	FalseRedundants int     `json:"false_redundants"`
}

// NewReport derives recall and precision from c. A zero denominator yields
// 0.0 rather than NaN.
func NewReport(c Counts) Report {
	r := Report{
		TruePositives:   c.TruePositive,
		FalsePositives:  c.FalsePositive,
		FalseMissings:   c.FalseMissing,
		FalseRedundants: c.FalseRedundant,
	}
	if d := c.TruePositive + c.FalsePositive + c.FalseMissing; d > 0 {
		r.Recall = float64(c.TruePositive) / float64(d) * 100
	}
	if d := c.TruePositive + c.FalsePositive + c.FalseRedundant; d > 0 {
		r.Precision = float64(c.TruePositive) / float64(d) * 100
	}
	return r
}

// Counts returns the totals the report was built from.
func (r Report) Counts() Counts {
	return Counts{
		TruePositive:   r.TruePositives,
		FalsePositive:  r.FalsePositives,
		FalseMissing:   r.FalseMissings,
		FalseRedundant: r.FalseRedundants,
	}
}

// EvaluateRow diffs original against golden and against predicted and
// classifies the two span lists.
func EvaluateRow(original, golden, predicted string) RowResult {
	gold := diff.Diff(original, golden)
	pred := diff.Diff(original, predicted)
	events := Align(gold, pred)
	return RowResult{
		Gold:      gold,
		Predicted: pred,
		Events:    events,
		Counts:    Tally(events),
	}
}

type options struct {
	workers int
}

// Option configures EvaluateRows and Evaluate.
type Option func(*options)

// WithWorkers bounds the number of rows evaluated concurrently. Values below
// one select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// EvaluateRows evaluates every row of truth against the row at the same
// index of predicted. The original sentence is always taken from truth;
// predicted[i].Original is ignored. Results are returned in row order.
func EvaluateRows(ctx context.Context, truth, predicted []Pair, opts ...Option) ([]RowResult, error) {
	if len(truth) != len(predicted) {
		return nil, &SizeMismatchError{True: len(truth), Predicted: len(predicted)}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	results := make([]RowResult, len(truth))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range truth {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := EvaluateRow(truth[i].Original, truth[i].Target, predicted[i].Target)
			res.Index = i
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Sum adds the counts of rows in order.
func Sum(rows []RowResult) Counts {
	var c Counts
	for _, row := range rows {
		c = c.Add(row.Counts)
	}
	return c
}

// Evaluate scores a predicted dataset against the true dataset. The whole
// dataset is consumed before a report is produced.
func Evaluate(ctx context.Context, truth, predicted []Pair, opts ...Option) (Report, error) {
	rows, err := EvaluateRows(ctx, truth, predicted, opts...)
	if err != nil {
		return Report{}, err
	}
	return NewReport(Sum(rows)), nil
}
