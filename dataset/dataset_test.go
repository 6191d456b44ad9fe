package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PedroElizalde01/gecscore/score"
)

const trueCSV = "id,err_sentence,cor_sentence\n" +
	"a1,나는 학교에 갑니다,나는 학교에 갔습니다\n" +
	"a2,그는 빠르게 뛰었다,그는 빠르게 뛰었다\n" +
	"a3,\"쉼표, 포함\",\n"

func TestRead_TrueDataset(t *testing.T) {
	tbl, err := Read(strings.NewReader(trueCSV), DefaultColumns(), true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.Len())
	}
	if tbl.Pairs[0].Original != "나는 학교에 갑니다" || tbl.Pairs[0].Target != "나는 학교에 갔습니다" {
		t.Fatalf("unexpected first row %+v", tbl.Pairs[0])
	}
	if tbl.Pairs[2].Original != "쉼표, 포함" || tbl.Pairs[2].Target != "" {
		t.Fatalf("expected quoted original and absent target, got %+v", tbl.Pairs[2])
	}
	if tbl.ID(1) != "a2" {
		t.Fatalf("expected id a2, got %q", tbl.ID(1))
	}
}

func TestRead_PredictedOnlyNeedsTarget(t *testing.T) {
	tbl, err := Read(strings.NewReader("id,cor_sentence\nx,하나\ny\n"), DefaultColumns(), false)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if tbl.Pairs[1].Target != "" {
		t.Fatalf("expected short row to read as absent, got %q", tbl.Pairs[1].Target)
	}
}

func TestRead_MissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("id,cor_sentence\nx,하나\n"), DefaultColumns(), true)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Column != "err_sentence" {
		t.Fatalf("expected LoadError for err_sentence, got %v", err)
	}
}

func TestRead_EmptyInput(t *testing.T) {
	tbl, err := Read(strings.NewReader(""), DefaultColumns(), true)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected no rows, got %d", tbl.Len())
	}
}

func TestRead_HeaderWithByteOrderMark(t *testing.T) {
	tbl, err := Read(strings.NewReader("\ufeffcor_sentence\n하나\n"), DefaultColumns(), false)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 1 || tbl.Pairs[0].Target != "하나" {
		t.Fatalf("unexpected table %+v", tbl.Pairs)
	}
	if tbl.ID(0) != "#0" {
		t.Fatalf("expected index fallback id, got %q", tbl.ID(0))
	}
}

func TestLoadTrue_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, err := LoadTrue(path, DefaultColumns())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
	msg := FriendlyError(err)
	if !strings.Contains(msg, "not found") {
		t.Fatalf("expected friendly not-found message, got %q", msg)
	}
}

func TestLoadPredicted_SetsPathOnColumnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.csv")
	if err := os.WriteFile(path, []byte("id,text\n1,x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadPredicted(path, DefaultColumns())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.Path != path {
		t.Fatalf("expected path %q, got %q", path, loadErr.Path)
	}
	if !strings.Contains(FriendlyError(err), "cor_sentence") {
		t.Fatalf("expected column in friendly message, got %q", FriendlyError(err))
	}
}

func TestAlign_UsesTrueOriginals(t *testing.T) {
	truth := &Table{Pairs: []score.Pair{{Original: "o1", Target: "g1"}, {Original: "o2", Target: "g2"}}}
	pred := &Table{Pairs: []score.Pair{{Target: "p1"}, {Original: "ignored", Target: "p2"}}}

	tp, pp, err := Align(truth, pred)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}
	if len(tp) != 2 || pp[1].Original != "o2" || pp[1].Target != "p2" {
		t.Fatalf("unexpected alignment %+v %+v", tp, pp)
	}
}

func TestAlign_SizeMismatch(t *testing.T) {
	truth := &Table{Pairs: []score.Pair{{}, {}}}
	pred := &Table{Pairs: []score.Pair{{}}}
	_, _, err := Align(truth, pred)
	if !errors.Is(err, score.ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if !strings.Contains(FriendlyError(err), "different row counts") {
		t.Fatalf("unexpected friendly message %q", FriendlyError(err))
	}
}

func TestHead(t *testing.T) {
	tbl := &Table{IDs: []string{"a", "b", "c"}, Pairs: make([]score.Pair, 3)}
	if got := tbl.Head(2); got.Len() != 2 || len(got.IDs) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", got.Len(), len(got.IDs))
	}
	if got := tbl.Head(0); got.Len() != 3 {
		t.Fatalf("expected all rows, got %d", got.Len())
	}
}

func TestWriteReport(t *testing.T) {
	r := score.NewReport(score.Counts{TruePositive: 1, FalseMissing: 1})

	var text bytes.Buffer
	if err := WriteReport(&text, r, "text"); err != nil {
		t.Fatalf("WriteReport(text) error = %v", err)
	}
	if !strings.Contains(text.String(), "Recall: 50.00%") || !strings.Contains(text.String(), "Precision: 100.00%") {
		t.Fatalf("unexpected text report:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := WriteReport(&js, r, "json"); err != nil {
		t.Fatalf("WriteReport(json) error = %v", err)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["recall"] != 50 || decoded["false_missings"] != 1 {
		t.Fatalf("unexpected json report %v", decoded)
	}

	if err := WriteReport(&js, r, "yaml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestWriteRows(t *testing.T) {
	tbl := &Table{IDs: []string{"a1", "a2"}, Pairs: make([]score.Pair, 2)}
	rows := []score.RowResult{
		{Index: 0, Counts: score.Counts{TruePositive: 1}},
		{Index: 1, Counts: score.Counts{FalseMissing: 2, FalseRedundant: 1}},
	}

	var buf bytes.Buffer
	if err := WriteRows(&buf, tbl, rows); err != nil {
		t.Fatalf("WriteRows() error = %v", err)
	}
	want := "id,tp,fp,fm,fr\na1,1,0,0,0\na2,0,0,2,1\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
