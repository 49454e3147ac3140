package model

import "time"

// Activity is one Hamster fact joined with its activity and category.
// End is nil while the activity is still running.
type Activity struct {
	Label    string
	Category string
	Start    time.Time
	End      *time.Time
	Note     *string
}

// Running reports whether the activity has not been stopped yet.
func (a Activity) Running() bool {
	return a.End == nil
}

// TimeEntry is a completed activity tagged with a GitLab issue.
type TimeEntry struct {
	Label    string  `json:"label"`
	Category string  `json:"category,omitempty"`
	Note     *string `json:"note,omitempty"`
	IssueID  string  `json:"issue_id"`
	Hours    float64 `json:"hours"`
}

// IssueTotal is the summed duration of all entries for one issue on a day.
// Exact is the full-precision sum, Hours the value rounded for display and push.
type IssueTotal struct {
	IssueID string  `json:"issue_id"`
	Hours   float64 `json:"hours"`
	Exact   float64 `json:"-"`
}

// SkipReason explains why an activity did not become a TimeEntry.
type SkipReason string

const (
	SkipNoIssueID    SkipReason = "not able to find issue ID"
	SkipNotCompleted SkipReason = "not completed yet"
)

// Skip records an activity dropped during extraction.
type Skip struct {
	Label  string
	Reason SkipReason
}
