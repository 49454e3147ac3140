package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// DayTotals is one day of a totals report.
type DayTotals struct {
	Date    string             `json:"date"`
	Totals  []model.IssueTotal `json:"issues"`
	Entries []model.TimeEntry  `json:"entries,omitempty"`
	Skipped int                `json:"skipped"`
	Hours   float64            `json:"total_hours"`
}

type totalsDoc struct {
	Range string      `json:"range"`
	Days  []DayTotals `json:"days"`
	Hours float64     `json:"total_hours"`
}

// Formats lists the values accepted by WriteTotals.
var Formats = []string{"md", "csv", "json"}

// WriteTotals renders per-issue totals of several days in format.
func WriteTotals(w io.Writer, format, rangeDesc string, days []DayTotals) error {
	var exact float64
	for _, d := range days {
		for _, t := range d.Totals {
			exact += t.Exact
		}
	}
	grand := timecalc.RoundHours(exact)

	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"date", "issue_id", "hours"}); err != nil {
			return err
		}
		for _, d := range days {
			for _, t := range d.Totals {
				if err := cw.Write([]string{d.Date, t.IssueID, timecalc.FormatHours(t.Hours)}); err != nil {
					return err
				}
			}
		}
		cw.Flush()
		return cw.Error()

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(totalsDoc{Range: rangeDesc, Days: days, Hours: grand})

	case "md", "":
		fmt.Fprintf(w, "Hamster %s\n", rangeDesc)
		fmt.Fprintln(w, "--------------------------------")
		for _, d := range days {
			if len(d.Totals) == 0 {
				continue
			}
			fmt.Fprintln(w, d.Date)
			for _, t := range d.Totals {
				fmt.Fprintf(w, "  %-18s%sh\n", "#"+t.IssueID, timecalc.FormatHours(t.Hours))
			}
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%sh\n", "Total", timecalc.FormatHours(grand))
		return nil

	default:
		return fmt.Errorf("unknown format %q (want md, csv or json)", format)
	}
}
