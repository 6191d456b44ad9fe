// Package dataset reads evaluation datasets from CSV files and writes
// evaluation results.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PedroElizalde01/gecscore/score"
)

// Columns names the CSV header fields a dataset is read from.
type Columns struct {
	ID       string
	Original string
	Target   string
}

// DefaultColumns returns the column names used by the correction datasets:
// err_sentence holds the original text and cor_sentence the correction.
func DefaultColumns() Columns {
	return Columns{
		ID:       "id",
		Original: "err_sentence",
		Target:   "cor_sentence",
	}
}

// Table is a loaded dataset. IDs is empty when the file has no id column;
// Pairs[i].Original is empty when the file has no original column.
type Table struct {
	IDs   []string
	Pairs []score.Pair
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.Pairs)
}

// Head returns a table holding at most the first n rows. n <= 0 keeps all
// rows.
func (t *Table) Head(n int) *Table {
	if n <= 0 || n >= len(t.Pairs) {
		return t
	}
	out := &Table{Pairs: t.Pairs[:n]}
	if len(t.IDs) > 0 {
		out.IDs = t.IDs[:n]
	}
	return out
}

// ID returns the id of row i, or its index when the table has no ids.
func (t *Table) ID(i int) string {
	if i < len(t.IDs) && t.IDs[i] != "" {
		return t.IDs[i]
	}
	return fmt.Sprintf("#%d", i)
}

// LoadError describes a dataset file that could not be read.
type LoadError struct {
	Path   string
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("dataset %s: column %q: %v", e.Path, e.Column, e.Err)
	}
	return fmt.Sprintf("dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrMissingColumn is wrapped by LoadError when a required header field is
// absent.
var ErrMissingColumn = errors.New("missing column")

// FriendlyError renders err as a one-line message suitable for a status bar.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		switch {
		case errors.Is(loadErr.Err, os.ErrNotExist):
			return fmt.Sprintf("Dataset file %s not found.", loadErr.Path)
		case errors.Is(loadErr.Err, ErrMissingColumn):
			return fmt.Sprintf("Dataset %s has no %q column.", loadErr.Path, loadErr.Column)
		}
	}
	if errors.Is(err, score.ErrSizeMismatch) {
		return "True and predicted datasets have different row counts: " + err.Error()
	}
	return err.Error()
}

// LoadTrue reads a dataset holding both the original and the gold
// correction of every row.
func LoadTrue(path string, cols Columns) (*Table, error) {
	return load(path, cols, true)
}

// LoadPredicted reads a dataset holding predicted corrections. Only the
// target column is required; originals are taken from the true dataset.
func LoadPredicted(path string, cols Columns) (*Table, error) {
	return load(path, cols, false)
}

func load(path string, cols Columns, needOriginal bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Read(f, cols, needOriginal)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
			return nil, loadErr
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

// Read parses a CSV dataset with a header row from r. Short rows and empty
// cells read as absent text.
func Read(r io.Reader, cols Columns, needOriginal bool) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := headerIndex(header)
	targetIdx, ok := index[cols.Target]
	if !ok {
		return nil, &LoadError{Path: "<reader>", Column: cols.Target, Err: ErrMissingColumn}
	}
	originalIdx, hasOriginal := index[cols.Original]
	if needOriginal && !hasOriginal {
		return nil, &LoadError{Path: "<reader>", Column: cols.Original, Err: ErrMissingColumn}
	}
	idIdx, hasID := index[cols.ID]

	t := &Table{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Pairs)+1, err)
		}

		pair := score.Pair{Target: field(record, targetIdx)}
		if hasOriginal {
			pair.Original = field(record, originalIdx)
		}
		t.Pairs = append(t.Pairs, pair)
		if hasID {
			t.IDs = append(t.IDs, field(record, idIdx))
		}
	}
	return t, nil
}

// Align pairs the originals of truth with the corrections of predicted,
// position by position.
func Align(truth, predicted *Table) ([]score.Pair, []score.Pair, error) {
	if truth.Len() != predicted.Len() {
		return nil, nil, &score.SizeMismatchError{True: truth.Len(), Predicted: predicted.Len()}
	}
	pred := make([]score.Pair, predicted.Len())
	for i := range pred {
		pred[i] = score.Pair{
			Original: truth.Pairs[i].Original,
			Target:   predicted.Pairs[i].Target,
		}
	}
	return truth.Pairs, pred, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, exists := index[name]; exists {
			continue
		}
		index[name] = i
	}
	return index
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
