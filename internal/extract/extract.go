// Package extract turns raw Hamster activities into issue-tagged time
// entries and per-issue totals.
package extract

import (
	"fmt"
	"regexp"

	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// IntegrityError is returned when a completed activity does not end after it
// starts. It means the database is damaged and the run must stop.
type IntegrityError struct {
	Label string
	Hours float64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("duration for entry %q is not > 0: %vh", e.Label, e.Hours)
}

// Result is the outcome of extracting one day's activities.
type Result struct {
	Entries    []model.TimeEntry
	Totals     []model.IssueTotal
	Skipped    []model.Skip
	GrandTotal float64
	ExactTotal float64
}

// Total returns the rounded total for issue id, or 0 if it has no entries.
func (r Result) Total(id string) float64 {
	for _, t := range r.Totals {
		if t.IssueID == id {
			return t.Hours
		}
	}
	return 0
}

// Empty reports whether no entry was accepted.
func (r Result) Empty() bool {
	return len(r.Entries) == 0
}

// Extractor matches activity labels against an issue ID pattern.
type Extractor struct {
	re *regexp.Regexp
}

// New compiles pattern anchored at the start of the label. The first
// capture group is the issue ID.
func New(pattern string) (*Extractor, error) {
	if pattern == "" {
		return nil, fmt.Errorf("issue id pattern is empty")
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid issue id pattern %q: %w", pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("issue id pattern %q has no capture group", pattern)
	}
	return &Extractor{re: re}, nil
}

// IssueID returns the issue referenced by label.
func (x *Extractor) IssueID(label string) (string, bool) {
	m := x.re.FindStringSubmatch(label)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Extract processes rows in order. Unmatched and running activities are
// recorded in Skipped. Totals keep first-seen issue order and are summed at
// full precision before rounding.
func (x *Extractor) Extract(rows []model.Activity) (Result, error) {
	var res Result
	exact := map[string]float64{}
	var order []string

	for _, row := range rows {
		id, ok := x.IssueID(row.Label)
		if !ok {
			res.Skipped = append(res.Skipped, model.Skip{Label: row.Label, Reason: model.SkipNoIssueID})
			continue
		}
		if row.Running() {
			res.Skipped = append(res.Skipped, model.Skip{Label: row.Label, Reason: model.SkipNotCompleted})
			continue
		}

		hours := row.End.Sub(row.Start).Hours()
		if hours <= 0 {
			return Result{}, &IntegrityError{Label: row.Label, Hours: hours}
		}

		if _, seen := exact[id]; !seen {
			order = append(order, id)
		}
		exact[id] += hours
		res.ExactTotal += hours

		res.Entries = append(res.Entries, model.TimeEntry{
			Label:    row.Label,
			Category: row.Category,
			Note:     row.Note,
			IssueID:  id,
			Hours:    timecalc.RoundHours(hours),
		})
	}

	for _, id := range order {
		res.Totals = append(res.Totals, model.IssueTotal{
			IssueID: id,
			Hours:   timecalc.RoundHours(exact[id]),
			Exact:   exact[id],
		})
	}
	res.GrandTotal = timecalc.RoundHours(res.ExactTotal)
	return res, nil
}
