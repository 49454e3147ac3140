package gitlab

import (
	"context"

	"github.com/Tiliavir/gitlab-time-sync/internal/model"
)

// Outcome is the result of pushing one issue total.
type Outcome struct {
	IssueID  string
	Hours    float64
	Duration string
	Issue    *Issue
	Stats    *TimeStats
	Sent     bool
	Skipped  bool
	Err      error
}

// PushTotals submits totals in order. Totals that round to zero are not
// submitted and are marked Skipped. A missing issue is recorded in its
// Outcome and the next issue is tried. Any other failure stops the sequence
// and is returned; outcomes for the issues already handled are returned with
// it, and their submissions stay in place.
func (c *Client) PushTotals(ctx context.Context, totals []model.IssueTotal) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(totals))
	for _, t := range totals {
		o := Outcome{IssueID: t.IssueID, Hours: t.Hours, Duration: FormatDuration(t.Hours)}
		if t.Hours <= 0 {
			o.Skipped = true
			outcomes = append(outcomes, o)
			c.log.Warn("total rounds to zero, skipping", "issue", t.IssueID)
			continue
		}

		issue, err := c.LookupIssue(ctx, t.IssueID)
		if err != nil {
			o.Err = err
			outcomes = append(outcomes, o)
			if Kind(err) == KindIssueNotFound {
				c.log.Warn("issue not found, skipping", "issue", t.IssueID)
				continue
			}
			return outcomes, err
		}
		o.Issue = issue

		stats, err := c.AddSpentTime(ctx, issue, o.Duration)
		if err != nil {
			o.Err = err
			outcomes = append(outcomes, o)
			return outcomes, err
		}
		o.Stats = stats
		o.Sent = true
		outcomes = append(outcomes, o)
		c.log.Info("spent time added", "issue", t.IssueID, "duration", o.Duration)
	}
	return outcomes, nil
}
