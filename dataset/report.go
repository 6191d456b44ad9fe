package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/PedroElizalde01/gecscore/score"
)

// WriteReport writes r as "text" or "json".
func WriteReport(w io.Writer, r score.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "", "text":
		_, err := fmt.Fprintf(w,
			"Recall: %.2f%%\nPrecision: %.2f%%\nTrue positives: %d\nFalse positives: %d\nFalse missings: %d\nFalse redundants: %d\n",
			r.Recall, r.Precision, r.TruePositives, r.FalsePositives, r.FalseMissings, r.FalseRedundants)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteRows writes one CSV line of counts per evaluated row.
func WriteRows(w io.Writer, t *Table, rows []score.RowResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "tp", "fp", "fm", "fr"}); err != nil {
		return err
	}
	for _, row := range rows {
		c := row.Counts
		record := []string{
			t.ID(row.Index),
			strconv.Itoa(c.TruePositive),
			strconv.Itoa(c.FalsePositive),
			strconv.Itoa(c.FalseMissing),
			strconv.Itoa(c.FalseRedundant),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
