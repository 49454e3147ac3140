package timecalc

import (
	"fmt"
	"time"
)

// Mode tells which input shape produced a Range.
type Mode int

const (
	ModeSingle Mode = iota
	ModeBetween
)

// Range is an inclusive span of calendar days. Open is set when the end
// was not given and defaulted to today.
type Range struct {
	Start time.Time
	End   time.Time
	Mode  Mode
	Open  bool

	today time.Time
}

// Days returns every day of the range in ascending order.
func (r Range) Days() []time.Time {
	return DaysBetween(r.Start, r.End)
}

// Question builds the confirmation shown before processing the range,
// e.g. "Sync tasks for yesterday (18/10/26) ?".
func (r Range) Question(verb string, f Format) string {
	if r.Mode == ModeBetween {
		if r.Open {
			return fmt.Sprintf("%s tasks from %s to today (included) ?", verb, f.Format(r.Start))
		}
		return fmt.Sprintf("%s tasks from %s to %s (included) ?", verb, f.Format(r.Start), f.Format(r.End))
	}

	switch {
	case !r.today.IsZero() && SameDay(r.Start, r.today):
		return fmt.Sprintf("%s tasks for today ?", verb)
	case !r.today.IsZero() && SameDay(r.Start, r.today.AddDate(0, 0, -1)):
		return fmt.Sprintf("%s tasks for yesterday (%s) ?", verb, f.Format(r.Start))
	default:
		return fmt.Sprintf("%s tasks for %s ?", verb, f.Format(r.Start))
	}
}

// Describe is a short human description of the range, e.g.
// "12/10/15" or "12/10/15 to 15/10/15".
func (r Range) Describe(f Format) string {
	if r.Mode == ModeSingle {
		return f.Format(r.Start)
	}
	return fmt.Sprintf("%s to %s", f.Format(r.Start), f.Format(r.End))
}
